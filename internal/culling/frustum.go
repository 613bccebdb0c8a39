package culling

import (
	"math"

	"procterrain/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// Box is an axis-aligned bounding box stored as its 8 corners. The top face
// (maxY) comes first, clockwise from (minX,minZ), then the bottom face in the
// same order.
type Box [8]mgl32.Vec3

// NewBox builds the corner array for the given extents.
func NewBox(minX, maxX, minY, maxY, minZ, maxZ float32) Box {
	return Box{
		{minX, maxY, minZ},
		{maxX, maxY, minZ},
		{maxX, maxY, maxZ},
		{minX, maxY, maxZ},
		{minX, minY, minZ},
		{maxX, minY, minZ},
		{maxX, minY, maxZ},
		{minX, minY, maxZ},
	}
}

// Min returns the lowest corner.
func (b Box) Min() mgl32.Vec3 { return b[4] }

// Max returns the highest corner.
func (b Box) Max() mgl32.Vec3 { return b[2] }

// Center returns the midpoint of the box.
func (b Box) Center() mgl32.Vec3 { return b.Min().Add(b.Max()).Mul(0.5) }

// pnCorners maps a normal's octant to the (P, N) corner indices. The octant
// index has bit 2 set for negative x, bit 1 for negative y, bit 0 for negative z.
var pnCorners = [8][2]int{
	{2, 4}, // +++
	{1, 7}, // ++-
	{6, 0}, // +-+
	{5, 3}, // +--
	{3, 5}, // -++
	{0, 6}, // -+-
	{7, 1}, // --+
	{4, 2}, // ---
}

// PN returns the corner furthest along n (P) and the one furthest against it
// (N). Zero components count as positive.
func (b Box) PN(n mgl32.Vec3) (p, nv mgl32.Vec3) {
	idx := 0
	if n.X() < 0 {
		idx |= 4
	}
	if n.Y() < 0 {
		idx |= 2
	}
	if n.Z() < 0 {
		idx |= 1
	}
	c := pnCorners[idx]
	return b[c[0]], b[c[1]]
}

// boxEdges lists the 12 edges as corner index pairs.
var boxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Lines returns the box edges as 24 points for GL_LINES drawing.
func (b Box) Lines() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 0, len(boxEdges)*2)
	for _, e := range boxEdges {
		out = append(out, b[e[0]], b[e[1]])
	}
	return out
}

// Plane is a point on the plane and its outward unit normal. Points with a
// positive Evaluate lie outside the frustum.
type Plane struct {
	Point  mgl32.Vec3
	Normal mgl32.Vec3
}

// Evaluate returns the signed distance of q along the normal.
func (p Plane) Evaluate(q mgl32.Vec3) float32 {
	return p.Normal.Dot(q.Sub(p.Point))
}

// Target is anything with a bounding box that a culling pass can flag.
type Target interface {
	Bounds() Box
	SetVisible(bool)
	SetStraddling(bool)
}

// Stats counts the outcome of one culling pass.
type Stats struct {
	Visible    int
	Culled     int
	Straddling int
}

// Classify tests one box. A box entirely outside any plane is culled. A box
// crossing a plane stays visible and is reported as straddling.
func Classify(b Box, planes []Plane) (visible, straddling bool) {
	for _, pl := range planes {
		p, n := b.PN(pl.Normal)
		if pl.Evaluate(n) > 0 {
			return false, false
		}
		if pl.Evaluate(p) > 0 {
			straddling = true
		}
	}
	return true, straddling
}

// Cull flags every target against the planes and returns the counts.
func Cull[T Target](targets []T, planes []Plane) Stats {
	defer profiling.Track("culling.Cull")()

	var s Stats
	for _, t := range targets {
		visible, straddling := Classify(t.Bounds(), planes)
		t.SetVisible(visible)
		t.SetStraddling(straddling)
		switch {
		case !visible:
			s.Culled++
		case straddling:
			s.Visible++
			s.Straddling++
		default:
			s.Visible++
		}
	}
	return s
}

// PlanesFromMatrix derives the left, right, bottom, top and near planes from
// a combined projection*view matrix. The far plane is left out; terrain
// beyond it is bounded by the grid instead.
func PlanesFromMatrix(clip mgl32.Mat4) [5]Plane {
	// mgl32 matrices are column-major
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{clip[i], clip[4+i], clip[8+i], clip[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	inward := [5]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
	}

	var out [5]Plane
	for i, v := range inward {
		out[i] = outwardPlane(v)
	}
	return out
}

// outwardPlane turns an inward-facing ax+by+cz+d >= 0 plane into point/normal
// form with the normal pointing out of the frustum.
func outwardPlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := float32(math.Sqrt(float64(n.Dot(n))))
	if l == 0 {
		return Plane{} // never culls
	}
	n = n.Mul(1 / l)
	d := v.W() / l
	return Plane{Point: n.Mul(-d), Normal: n.Mul(-1)}
}
