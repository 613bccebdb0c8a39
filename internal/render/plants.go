package render

import (
	"procterrain/internal/profiling"
	"procterrain/internal/terrain"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type plantModel struct {
	kind     terrain.PlantKind
	color    mgl32.Vec3
	vao      uint32
	vbo      uint32
	instVBO  uint32
	vertices int32
	capacity int // instances the buffer can hold
}

// PlantRenderer draws every plant of a VegetationBatch with one instanced
// call per plant kind.
type PlantRenderer struct {
	shader   *Shader
	models   []*plantModel
	lightDir mgl32.Vec3
}

func plantGeometry(kind terrain.PlantKind) (plantMesh, mgl32.Vec3) {
	switch kind {
	case terrain.Spruce:
		return coneMesh(8, 0.8, 3), mgl32.Vec3{0.08, 0.3, 0.1}
	case terrain.Cactus:
		return prismMesh(6, 0.2, 1.8), mgl32.Vec3{0.3, 0.55, 0.2}
	default:
		return coneMesh(5, 0.5, 0.5), mgl32.Vec3{0.45, 0.4, 0.25}
	}
}

// NewPlantRenderer compiles the instancing program and uploads one model per kind.
func NewPlantRenderer() (*PlantRenderer, error) {
	shader, err := LoadShader("plants")
	if err != nil {
		return nil, err
	}
	r := &PlantRenderer{shader: shader, lightDir: mgl32.Vec3{-0.4, -1, -0.3}.Normalize()}

	for _, kind := range []terrain.PlantKind{terrain.Spruce, terrain.Cactus, terrain.Shrub} {
		mesh, color := plantGeometry(kind)
		m := &plantModel{kind: kind, color: color, vertices: int32(mesh.Vertices())}

		gl.GenVertexArrays(1, &m.vao)
		gl.BindVertexArray(m.vao)

		gl.GenBuffers(1, &m.vbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(mesh)*4, gl.Ptr([]float32(mesh)), gl.STATIC_DRAW)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, plantStride*4, 0)
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, plantStride*4, 3*4)

		// mat4 instance attribute takes four vec4 slots
		gl.GenBuffers(1, &m.instVBO)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.instVBO)
		for col := uint32(0); col < 4; col++ {
			loc := 2 + col
			gl.EnableVertexAttribArray(loc)
			gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, 16*4, uintptr(col*4*4))
			gl.VertexAttribDivisor(loc, 1)
		}
		gl.BindVertexArray(0)

		r.models = append(r.models, m)
	}
	return r, nil
}

// Draw renders the batch and returns the number of instances drawn.
func (r *PlantRenderer) Draw(batch *terrain.VegetationBatch, view, proj mgl32.Mat4) int {
	defer profiling.Track("render.PlantRenderer.Draw")()

	r.shader.Use()
	r.shader.SetMatrix4("view", view)
	r.shader.SetMatrix4("proj", proj)
	r.shader.SetVec3("lightDir", r.lightDir)

	total := 0
	for _, m := range r.models {
		instances := packModels(batch.Models(m.kind))
		n := len(instances) / 16
		if n == 0 {
			continue
		}

		gl.BindBuffer(gl.ARRAY_BUFFER, m.instVBO)
		if n > m.capacity {
			m.capacity = n
			gl.BufferData(gl.ARRAY_BUFFER, len(instances)*4, gl.Ptr(instances), gl.DYNAMIC_DRAW)
		} else {
			gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(instances)*4, gl.Ptr(instances))
		}

		r.shader.SetVec3("color", m.color)
		gl.BindVertexArray(m.vao)
		gl.DrawArraysInstanced(gl.TRIANGLES, 0, m.vertices, int32(n))
		total += n
	}
	gl.BindVertexArray(0)
	return total
}

// Delete frees the GL objects.
func (r *PlantRenderer) Delete() {
	for _, m := range r.models {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.instVBO)
	}
	r.models = nil
	r.shader.Delete()
}
