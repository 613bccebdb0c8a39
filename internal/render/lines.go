package render

import (
	"procterrain/internal/culling"
	"procterrain/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// BoxRenderer draws chunk bounding boxes as line wireframes.
type BoxRenderer struct {
	shader   *Shader
	vao      uint32
	vbo      uint32
	capacity int // floats the buffer can hold
}

// NewBoxRenderer compiles the line program and sets up the VAO.
func NewBoxRenderer() (*BoxRenderer, error) {
	shader, err := LoadShader("lines")
	if err != nil {
		return nil, err
	}
	r := &BoxRenderer{shader: shader}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.BindVertexArray(0)
	return r, nil
}

// Draw outlines every box in one color.
func (r *BoxRenderer) Draw(boxes []culling.Box, view, proj mgl32.Mat4, color mgl32.Vec3) {
	if len(boxes) == 0 {
		return
	}
	defer profiling.Track("render.BoxRenderer.Draw")()

	vertices := packBoxLines(boxes)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	if len(vertices) > r.capacity {
		r.capacity = len(vertices)
		gl.BufferData(gl.ARRAY_BUFFER, r.capacity*4, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	}

	r.shader.Use()
	r.shader.SetMatrix4("view", view)
	r.shader.SetMatrix4("proj", proj)
	r.shader.SetVec3("color", color)

	gl.BindVertexArray(r.vao)
	gl.LineWidth(1.0)
	gl.DrawArrays(gl.LINES, 0, int32(len(vertices)/3))
	gl.BindVertexArray(0)
}

// Delete frees the GL objects.
func (r *BoxRenderer) Delete() {
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	r.shader.Delete()
}
