package render

import (
	"math"

	"procterrain/internal/culling"
	"procterrain/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// terrainStride is the float count of one interleaved terrain vertex:
// position, normal, blended color, biome, heat and moisture colors.
const terrainStride = 18

// packTerrain interleaves the mesh vertices in attribute order.
func packTerrain(m *world.Mesh) []float32 {
	out := make([]float32, 0, len(m.Vertices)*terrainStride)
	for _, v := range m.Vertices {
		out = append(out, v.Position[:]...)
		out = append(out, v.Normal[:]...)
		out = append(out, v.Color[:]...)
		out = append(out, v.BiomeColor[:]...)
		out = append(out, v.HeatColor[:]...)
		out = append(out, v.MoistColor[:]...)
	}
	return out
}

// packBoxLines flattens the edges of every box into GL_LINES positions.
func packBoxLines(boxes []culling.Box) []float32 {
	out := make([]float32, 0, len(boxes)*24*3)
	for _, b := range boxes {
		for _, p := range b.Lines() {
			out = append(out, p[:]...)
		}
	}
	return out
}

// packModels flattens instance matrices column by column.
func packModels(models []mgl32.Mat4) []float32 {
	out := make([]float32, 0, len(models)*16)
	for _, m := range models {
		out = append(out, m[:]...)
	}
	return out
}

// plantMesh is position+normal triangles in model space, base at the origin.
type plantMesh []float32

const plantStride = 6

// coneMesh is a closed cone of the given segment count.
func coneMesh(segments int, radius, height float32) plantMesh {
	var out plantMesh
	apex := mgl32.Vec3{0, height, 0}
	for i := 0; i < segments; i++ {
		a := ring(i, segments, radius)
		b := ring(i+1, segments, radius)
		n := apex.Sub(a).Cross(b.Sub(a)).Normalize()
		out = appendTri(out, a, b, apex, n)
		out = appendTri(out, b, a, mgl32.Vec3{}, mgl32.Vec3{0, -1, 0})
	}
	return out
}

// prismMesh is a closed upright prism, used for cactus trunks.
func prismMesh(segments int, radius, height float32) plantMesh {
	var out plantMesh
	up := mgl32.Vec3{0, height, 0}
	for i := 0; i < segments; i++ {
		a := ring(i, segments, radius)
		b := ring(i+1, segments, radius)
		n := a.Add(b).Normalize()
		out = appendTri(out, a, b, b.Add(up), n)
		out = appendTri(out, a, b.Add(up), a.Add(up), n)
		out = appendTri(out, b.Add(up), up, a.Add(up), mgl32.Vec3{0, 1, 0})
		out = appendTri(out, b, a, mgl32.Vec3{}, mgl32.Vec3{0, -1, 0})
	}
	return out
}

func ring(i, segments int, radius float32) mgl32.Vec3 {
	angle := 2 * math.Pi * float64(i%segments) / float64(segments)
	return mgl32.Vec3{radius * float32(math.Cos(angle)), 0, radius * float32(math.Sin(angle))}
}

func appendTri(out plantMesh, a, b, c, n mgl32.Vec3) plantMesh {
	for _, p := range [3]mgl32.Vec3{a, b, c} {
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2])
	}
	return out
}

// Vertices is the number of vertices in the mesh.
func (m plantMesh) Vertices() int { return len(m) / plantStride }
