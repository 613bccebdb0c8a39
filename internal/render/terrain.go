package render

import (
	"procterrain/internal/config"
	"procterrain/internal/profiling"
	"procterrain/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Frame is what one draw call of the terrain needs.
type Frame struct {
	View, Proj mgl32.Mat4
	Items      []world.DrawItem
	ColorMode  config.ColorMode
	Wireframe  bool
}

// TerrainRenderer draws baked chunk meshes.
type TerrainRenderer struct {
	shader   *Shader
	lightDir mgl32.Vec3
}

// NewTerrainRenderer compiles the terrain program.
func NewTerrainRenderer() (*TerrainRenderer, error) {
	shader, err := LoadShader("terrain")
	if err != nil {
		return nil, err
	}
	return &TerrainRenderer{
		shader:   shader,
		lightDir: mgl32.Vec3{-0.4, -1, -0.3}.Normalize(),
	}, nil
}

// Draw renders every item. Items whose handle was not made by this package
// are skipped.
func (r *TerrainRenderer) Draw(f Frame) int {
	defer profiling.Track("render.TerrainRenderer.Draw")()

	r.shader.Use()
	r.shader.SetMatrix4("view", f.View)
	r.shader.SetMatrix4("proj", f.Proj)
	r.shader.SetInt("colorMode", int32(f.ColorMode))
	r.shader.SetVec3("lightDir", r.lightDir)
	r.shader.SetBool("shaded", f.ColorMode != config.ColorNormals)

	mode := uint32(gl.TRIANGLES)
	if f.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	drawn := 0
	for _, it := range f.Items {
		h, ok := it.Mesh.Handle().(*meshHandle)
		if !ok || h.vao == 0 {
			continue
		}
		r.shader.SetVec3("lodTint", world.LODTint(it.Mesh.LOD))
		h.draw(mode)
		drawn++
	}
	gl.BindVertexArray(0)
	return drawn
}

// Delete frees the program.
func (r *TerrainRenderer) Delete() {
	r.shader.Delete()
}
