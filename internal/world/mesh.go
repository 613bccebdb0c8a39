package world

import (
	"math"

	"procterrain/internal/culling"
	"procterrain/internal/profiling"
	"procterrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one terrain vertex. The diagnostic colors back the viewer's draw modes.
type Vertex struct {
	Position   mgl32.Vec3
	Normal     mgl32.Vec3
	Color      mgl32.Vec3 // weight-blended biome color
	BiomeColor mgl32.Vec3 // dominant biome
	HeatColor  mgl32.Vec3
	MoistColor mgl32.Vec3
}

// MeshSpec describes one LOD level of a chunk.
type MeshSpec struct {
	Interior         int // interior vertices per side
	LOD              int
	OriginX, OriginZ float64 // world position of the first interior vertex
	Stride           float64
	SkirtDepth       float64
}

// Mesh is the geometry of one LOD level. Vertices are laid out row-major
// over a (Interior+2)^2 lattice; the outer ring is the skirt.
type Mesh struct {
	LOD              int
	Interior         int
	Stride           float64
	OriginX, OriginZ float64

	Vertices []Vertex
	Indices  []uint32

	MinHeight, MaxHeight float64
	Box                  culling.Box

	handle MeshHandle
}

// Side is the vertex count per side including the skirt ring.
func (m *Mesh) Side() int { return m.Interior + 2 }

// Index returns the vertex index of column w, row d.
func (m *Mesh) Index(w, d int) int { return w + m.Side()*d }

// Span is the world-space width of the interior.
func (m *Mesh) Span() float64 { return float64(m.Interior-1) * m.Stride }

// Handle is the baked GPU handle, nil until baked or after a failed bake.
func (m *Mesh) Handle() MeshHandle { return m.handle }

// LODTint is the debug color for a LOD factor.
func LODTint(lod int) mgl32.Vec3 {
	switch lod {
	case 1:
		return mgl32.Vec3{1, 1, 1}
	case 2:
		return mgl32.Vec3{0.6, 1, 0.6}
	case 4:
		return mgl32.Vec3{0.6, 0.6, 1}
	case 8:
		return mgl32.Vec3{1, 1, 0.5}
	default:
		return mgl32.Vec3{1, 0.5, 0.5}
	}
}

// normalFan lists, for the shared-diagonal triangulation, the two neighbor
// offsets (dw, dd) of each of the six triangles around a vertex in winding order.
var normalFan = [6][2][2]int{
	{{-1, -1}, {-1, 0}}, // nw, w
	{{0, -1}, {-1, -1}}, // n, nw
	{{1, 0}, {0, -1}},   // e, n
	{{-1, 0}, {0, 1}},   // w, s
	{{0, 1}, {1, 1}},    // s, se
	{{1, 1}, {1, 0}},    // se, e
}

var downNormal = mgl32.Vec3{0, -1, 0}

// BuildMesh samples the classifier over the level's lattice and assembles
// vertices, skirt, normals, indices and bounding box.
func BuildMesh(spec MeshSpec, c *terrain.Classifier) *Mesh {
	defer profiling.Track("world.BuildMesh")()

	n := spec.Interior
	side := n + 2
	m := &Mesh{
		LOD:      spec.LOD,
		Interior: n,
		Stride:   spec.Stride,
		OriginX:  spec.OriginX,
		OriginZ:  spec.OriginZ,
		Vertices: make([]Vertex, side*side),
	}

	// lattice shares the mesh indexing. Its outer ring holds fake vertices
	// one stride beyond the interior so border normals see real terrain.
	lattice := make([]mgl32.Vec3, side*side)
	samples := make([]terrain.Sample, side*side)
	heights := terrain.NewHeightRange()
	for d := 0; d < side; d++ {
		for w := 0; w < side; w++ {
			x := spec.OriginX + float64(w-1)*spec.Stride
			z := spec.OriginZ + float64(d-1)*spec.Stride
			i := w + side*d
			if isInterior(w, d, n) {
				s := c.Sample(x, z)
				samples[i] = s
				heights.Observe(s.Height)
				lattice[i] = mgl32.Vec3{float32(x), float32(s.Height), float32(z)}
			} else {
				lattice[i] = fakeVertex(c, x, z)
			}
		}
	}

	// interior vertices, row-major so the fallback normal is the previous one
	var last mgl32.Vec3
	haveLast := false
	for d := 1; d <= n; d++ {
		for w := 1; w <= n; w++ {
			i := w + side*d
			normal, ok := vertexNormal(lattice, side, w, d)
			switch {
			case ok:
				last, haveLast = normal, true
			case haveLast:
				normal = last
			default:
				normal = downNormal
			}
			s := samples[i]
			m.Vertices[i] = Vertex{
				Position:   lattice[i],
				Normal:     normal,
				Color:      s.Color,
				BiomeColor: s.Kind.Color(),
				HeatColor:  s.Temperature.Color(),
				MoistColor: s.Humidity.Color(),
			}
		}
	}

	// skirt ring copies its nearest interior vertex and drops to SkirtDepth
	for d := 0; d < side; d++ {
		for w := 0; w < side; w++ {
			if isInterior(w, d, n) {
				continue
			}
			src := m.Vertices[clampInt(w, 1, n)+side*clampInt(d, 1, n)]
			src.Position = mgl32.Vec3{src.Position.X(), float32(spec.SkirtDepth), src.Position.Z()}
			m.Vertices[w+side*d] = src
		}
	}

	m.Indices = make([]uint32, 0, (side-1)*(side-1)*6)
	for d := 0; d < side-1; d++ {
		for w := 0; w < side-1; w++ {
			i1 := uint32(w + side*d)
			i2 := uint32(w + side*(d+1))
			i3 := uint32(w + 1 + side*(d+1))
			i4 := uint32(w + 1 + side*d)
			m.Indices = append(m.Indices, i1, i2, i3, i1, i3, i4)
		}
	}

	m.MinHeight, m.MaxHeight = heights.Min, heights.Max
	if heights.Empty() {
		m.MinHeight, m.MaxHeight = -math.MaxFloat32, math.MaxFloat32
	}
	span := m.Span()
	m.Box = culling.NewBox(
		float32(spec.OriginX), float32(spec.OriginX+span),
		float32(m.MinHeight), float32(m.MaxHeight),
		float32(spec.OriginZ), float32(spec.OriginZ+span),
	)
	return m
}

func fakeVertex(c *terrain.Classifier, x, z float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(x), float32(c.HeightAt(x, z)), float32(z)}
}

// vertexNormal averages the face normals of the triangles around (w,d) whose
// corners all exist in the lattice. ok is false when no triangle was usable
// or the sum vanished.
func vertexNormal(lattice []mgl32.Vec3, side, w, d int) (mgl32.Vec3, bool) {
	at := func(dw, dd int) (mgl32.Vec3, bool) {
		x, z := w+dw, d+dd
		if x < 0 || z < 0 || x >= side || z >= side {
			return mgl32.Vec3{}, false
		}
		return lattice[x+side*z], true
	}

	v0 := lattice[w+side*d]
	var sum mgl32.Vec3
	count := 0
	for _, tri := range normalFan {
		a, okA := at(tri[0][0], tri[0][1])
		b, okB := at(tri[1][0], tri[1][1])
		if !okA || !okB {
			continue
		}
		sum = sum.Add(a.Sub(v0).Cross(b.Sub(v0)))
		count++
	}
	if count == 0 {
		return mgl32.Vec3{}, false
	}
	sum = sum.Mul(1 / float32(count))
	if sum.Len() == 0 {
		return mgl32.Vec3{}, false
	}
	return sum.Normalize(), true
}

func isInterior(w, d, n int) bool {
	return w >= 1 && w <= n && d >= 1 && d <= n
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
