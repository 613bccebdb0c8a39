package world

import (
	"testing"

	"procterrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t testing.TB) *terrain.Classifier {
	t.Helper()
	c, err := terrain.NewClassifier(terrain.DefaultParams())
	require.NoError(t, err)
	return c
}

func testMeshSpec() MeshSpec {
	return MeshSpec{Interior: 9, LOD: 1, OriginX: -12, OriginZ: 30, Stride: 1.5, SkirtDepth: -20}
}

func TestBuildMeshLayout(t *testing.T) {
	c := newTestClassifier(t)
	spec := testMeshSpec()
	m := BuildMesh(spec, c)

	side := spec.Interior + 2
	require.Equal(t, side, m.Side())
	require.Len(t, m.Vertices, side*side)
	require.Len(t, m.Indices, (side-1)*(side-1)*6)
	for _, idx := range m.Indices {
		require.Less(t, int(idx), len(m.Vertices))
	}

	// interior lattice positions
	for d := 1; d <= spec.Interior; d++ {
		for w := 1; w <= spec.Interior; w++ {
			p := m.Vertices[m.Index(w, d)].Position
			x := spec.OriginX + float64(w-1)*spec.Stride
			z := spec.OriginZ + float64(d-1)*spec.Stride
			assert.InDelta(t, x, p.X(), 1e-4)
			assert.InDelta(t, z, p.Z(), 1e-4)
			assert.InDelta(t, c.HeightAt(x, z), p.Y(), 1e-4)
		}
	}
}

func TestBuildMeshSkirt(t *testing.T) {
	c := newTestClassifier(t)
	spec := testMeshSpec()
	m := BuildMesh(spec, c)
	n := spec.Interior

	for d := 0; d < m.Side(); d++ {
		for w := 0; w < m.Side(); w++ {
			if isInterior(w, d, n) {
				continue
			}
			v := m.Vertices[m.Index(w, d)]
			src := m.Vertices[m.Index(clampInt(w, 1, n), clampInt(d, 1, n))]
			assert.Equal(t, float32(spec.SkirtDepth), v.Position.Y(), "skirt (%d,%d) depth", w, d)
			assert.Equal(t, src.Position.X(), v.Position.X())
			assert.Equal(t, src.Position.Z(), v.Position.Z())
			assert.Equal(t, src.Normal, v.Normal)
			assert.Equal(t, src.Color, v.Color)
		}
	}
}

func TestBuildMeshTriangulation(t *testing.T) {
	c := newTestClassifier(t)
	m := BuildMesh(testMeshSpec(), c)
	side := m.Side()

	// first cell: (w,d),(w,d+1),(w+1,d+1) then (w,d),(w+1,d+1),(w+1,d)
	want := []uint32{0, uint32(side), uint32(side + 1), 0, uint32(side + 1), 1}
	assert.Equal(t, want, m.Indices[:6])
}

func TestBuildMeshBoundingBox(t *testing.T) {
	c := newTestClassifier(t)
	spec := testMeshSpec()
	m := BuildMesh(spec, c)

	lo, hi := float32(1e30), float32(-1e30)
	for d := 1; d <= spec.Interior; d++ {
		for w := 1; w <= spec.Interior; w++ {
			y := m.Vertices[m.Index(w, d)].Position.Y()
			lo, hi = min(lo, y), max(hi, y)
		}
	}

	span := float32(float64(spec.Interior-1) * spec.Stride)
	assert.InDelta(t, lo, m.Box.Min().Y(), 1e-4)
	assert.InDelta(t, hi, m.Box.Max().Y(), 1e-4)
	assert.InDelta(t, float32(spec.OriginX), m.Box.Min().X(), 1e-4)
	assert.InDelta(t, float32(spec.OriginX)+span, m.Box.Max().X(), 1e-4)
	assert.InDelta(t, float32(spec.OriginZ), m.Box.Min().Z(), 1e-4)
	assert.InDelta(t, float32(spec.OriginZ)+span, m.Box.Max().Z(), 1e-4)
	assert.Greater(t, m.Box.Min().Y(), float32(spec.SkirtDepth), "skirt is not part of the box")
}

func TestBuildMeshNormalsPointUp(t *testing.T) {
	c := newTestClassifier(t)
	m := BuildMesh(testMeshSpec(), c)
	for i, v := range m.Vertices {
		assert.InDelta(t, 1, v.Normal.Len(), 1e-4, "vertex %d", i)
		assert.Greater(t, v.Normal.Y(), float32(0), "vertex %d faces up", i)
	}
}

func flatLattice(side int, slope float32) []mgl32.Vec3 {
	l := make([]mgl32.Vec3, side*side)
	for d := 0; d < side; d++ {
		for w := 0; w < side; w++ {
			l[w+side*d] = mgl32.Vec3{float32(w), slope * float32(w), float32(d)}
		}
	}
	return l
}

func TestVertexNormalFlatAndSloped(t *testing.T) {
	n, ok := vertexNormal(flatLattice(3, 0), 3, 1, 1)
	require.True(t, ok)
	assert.InDelta(t, 0, n.X(), 1e-6)
	assert.InDelta(t, 1, n.Y(), 1e-6)
	assert.InDelta(t, 0, n.Z(), 1e-6)

	// y = x rises to the east, so the normal leans west
	n, ok = vertexNormal(flatLattice(3, 1), 3, 1, 1)
	require.True(t, ok)
	assert.InDelta(t, -0.7071, n.X(), 1e-3)
	assert.InDelta(t, 0.7071, n.Y(), 1e-3)
	assert.InDelta(t, 0, n.Z(), 1e-3)
}

func TestVertexNormalPartialFan(t *testing.T) {
	// the corner of the lattice only has the s/se/e triangles
	n, ok := vertexNormal(flatLattice(3, 0), 3, 0, 0)
	require.True(t, ok)
	assert.InDelta(t, 1, n.Y(), 1e-6)
}

func TestVertexNormalFallback(t *testing.T) {
	_, ok := vertexNormal([]mgl32.Vec3{{0, 0, 0}}, 1, 0, 0)
	assert.False(t, ok, "no triangles")

	// all neighbors coincide with v0 so every cross product vanishes
	_, ok = vertexNormal(make([]mgl32.Vec3, 9), 3, 1, 1)
	assert.False(t, ok, "zero-length sum")
}

func TestLODTintDistinct(t *testing.T) {
	seen := map[mgl32.Vec3]int{}
	for _, lod := range []int{1, 2, 4, 8, 16} {
		seen[LODTint(lod)] = lod
	}
	assert.Len(t, seen, 5)
}

func BenchmarkBuildMesh(b *testing.B) {
	c := newTestClassifier(b)
	spec := MeshSpec{Interior: 65, LOD: 1, Stride: 1, SkirtDepth: -10}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		BuildMesh(spec, c)
	}
}
