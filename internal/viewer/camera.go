package viewer

import (
	"math"

	"procterrain/internal/culling"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying perspective camera. Yaw and pitch are degrees.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float64
	Pitch    float64

	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32

	Speed       float32
	Sensitivity float64

	firstMouse bool
	lastX      float64
	lastY      float64
}

func NewCamera(width, height int, fov, speed float32, sensitivity float64) *Camera {
	c := &Camera{
		Yaw:         -90,
		FOV:         fov,
		NearPlane:   0.1,
		FarPlane:    2000.0,
		Speed:       speed,
		Sensitivity: sensitivity,
		firstMouse:  true,
	}
	c.Resize(width, height)
	return c
}

// Resize updates the aspect ratio. Zero sizes (minimised windows) are ignored.
func (c *Camera) Resize(width, height int) {
	if width > 0 && height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

// ResetMouse makes the next mouse event only record the cursor position.
func (c *Camera) ResetMouse() { c.firstMouse = true }

func (c *Camera) HandleMouseMovement(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX = xpos
		c.lastY = ypos
		c.firstMouse = false
		return
	}

	xoffset := (xpos - c.lastX) * c.Sensitivity
	yoffset := (c.lastY - ypos) * c.Sensitivity
	c.lastX = xpos
	c.lastY = ypos

	c.Yaw += xoffset
	c.Pitch += yoffset

	// Constrain pitch
	if c.Pitch > 89.0 {
		c.Pitch = 89.0
	}
	if c.Pitch < -89.0 {
		c.Pitch = -89.0
	}
}

func (c *Camera) Front() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(c.Yaw))
	pt := mgl32.DegToRad(float32(c.Pitch))
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// Right is horizontal, so strafing never changes height.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Front().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

// Move flies the camera. forward, right and up are -1..1 axis values.
func (c *Camera) Move(dt float64, forward, right, up float32, boost bool) {
	speed := c.Speed * float32(dt)
	if boost {
		speed *= 4
	}
	delta := c.Front().Mul(forward).Add(c.Right().Mul(right)).Add(mgl32.Vec3{0, up, 0})
	if delta.Len() == 0 {
		return
	}
	c.Position = c.Position.Add(delta.Normalize().Mul(speed))
}

// KeepAbove lifts the camera to at least clearance above the ground height.
func (c *Camera) KeepAbove(ground, clearance float32) {
	if c.Position.Y() < ground+clearance {
		c.Position[1] = ground + clearance
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

// Planes returns the culling planes of the current view.
func (c *Camera) Planes() []culling.Plane {
	planes := culling.PlanesFromMatrix(c.ProjectionMatrix().Mul4(c.ViewMatrix()))
	return planes[:]
}
