package render

import (
	"errors"
	"fmt"

	"procterrain/internal/profiling"
	"procterrain/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Baker uploads meshes into vertex arrays. It must be used on the goroutine
// that owns the GL context.
type Baker struct {
	live int
}

// NewBaker creates a GL baker. The GL context must already be current.
func NewBaker() *Baker {
	return &Baker{}
}

// meshHandle is one uploaded mesh.
type meshHandle struct {
	baker      *Baker
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

// Bake implements world.Baker.
func (b *Baker) Bake(m *world.Mesh) (world.MeshHandle, error) {
	defer profiling.Track("render.Bake")()

	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return nil, errors.New("render: empty mesh")
	}
	vertices := packTerrain(m)

	h := &meshHandle{baker: b, indexCount: int32(len(m.Indices))}
	gl.GenVertexArrays(1, &h.vao)
	gl.BindVertexArray(h.vao)

	gl.GenBuffers(1, &h.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, h.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &h.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	// position, normal and four colors, 3 floats each
	for attr := uint32(0); attr < terrainStride/3; attr++ {
		gl.EnableVertexAttribArray(attr)
		gl.VertexAttribPointerWithOffset(attr, 3, gl.FLOAT, false, terrainStride*4, uintptr(attr*3*4))
	}
	gl.BindVertexArray(0)
	b.live++

	if code := gl.GetError(); code != gl.NO_ERROR {
		h.Release()
		return nil, fmt.Errorf("render: upload mesh lod %d: gl error 0x%x", m.LOD, code)
	}
	return h, nil
}

// Live is the number of handles not yet released.
func (b *Baker) Live() int { return b.live }

// Release frees the GL objects. Calling it twice is a no-op.
func (h *meshHandle) Release() {
	if h.vao == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &h.vao)
	gl.DeleteBuffers(1, &h.vbo)
	gl.DeleteBuffers(1, &h.ebo)
	h.vao, h.vbo, h.ebo = 0, 0, 0
	if h.baker.live > 0 {
		h.baker.live--
	}
}

func (h *meshHandle) draw(mode uint32) {
	gl.BindVertexArray(h.vao)
	gl.DrawElementsWithOffset(mode, h.indexCount, gl.UNSIGNED_INT, 0)
}
