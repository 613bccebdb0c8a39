package world

// MeshHandle is whatever the renderer created for a baked mesh.
type MeshHandle interface {
	Release()
}

// Baker uploads mesh geometry. The grid only calls it from the goroutine
// that calls Update and Settle.
type Baker interface {
	Bake(m *Mesh) (MeshHandle, error)
}

// NopBaker bakes nothing. It lets the grid stream without a GPU.
type NopBaker struct{}

func (NopBaker) Bake(*Mesh) (MeshHandle, error) { return nopHandle{}, nil }

type nopHandle struct{}

func (nopHandle) Release() {}
