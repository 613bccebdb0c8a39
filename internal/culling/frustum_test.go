package culling

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	box        Box
	visible    bool
	straddling bool
}

func (f *fakeTarget) Bounds() Box          { return f.box }
func (f *fakeTarget) SetVisible(v bool)    { f.visible = v }
func (f *fakeTarget) SetStraddling(s bool) { f.straddling = s }

func unitBox(cx, cy, cz float32) Box {
	return NewBox(cx-0.5, cx+0.5, cy-0.5, cy+0.5, cz-0.5, cz+0.5)
}

func TestBoxCornerLayout(t *testing.T) {
	b := NewBox(-1, 2, -3, 4, -5, 6)

	assert.Equal(t, mgl32.Vec3{-1, 4, -5}, b[0])
	assert.Equal(t, mgl32.Vec3{2, 4, -5}, b[1])
	assert.Equal(t, mgl32.Vec3{2, 4, 6}, b[2])
	assert.Equal(t, mgl32.Vec3{-1, 4, 6}, b[3])
	assert.Equal(t, mgl32.Vec3{-1, -3, -5}, b[4])
	assert.Equal(t, mgl32.Vec3{2, -3, -5}, b[5])
	assert.Equal(t, mgl32.Vec3{2, -3, 6}, b[6])
	assert.Equal(t, mgl32.Vec3{-1, -3, 6}, b[7])

	assert.Equal(t, mgl32.Vec3{-1, -3, -5}, b.Min())
	assert.Equal(t, mgl32.Vec3{2, 4, 6}, b.Max())
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, b.Center())
}

// P must maximise and N minimise the dot product with the normal for every octant.
func TestPNExtremes(t *testing.T) {
	b := NewBox(-1, 2, -3, 4, -5, 6)
	signs := []float32{1, -1}
	for _, sx := range signs {
		for _, sy := range signs {
			for _, sz := range signs {
				n := mgl32.Vec3{sx * 0.3, sy * 0.7, sz * 0.2}
				p, nv := b.PN(n)
				for _, c := range b {
					assert.LessOrEqual(t, c.Dot(n), p.Dot(n)+1e-5, "P for %v", n)
					assert.GreaterOrEqual(t, c.Dot(n), nv.Dot(n)-1e-5, "N for %v", n)
				}
			}
		}
	}
}

func TestPNZeroComponentsArePositive(t *testing.T) {
	b := NewBox(0, 1, 0, 1, 0, 1)
	p, n := b.PN(mgl32.Vec3{0, 0, 0})
	assert.Equal(t, b[2], p)
	assert.Equal(t, b[4], n)

	p, n = b.PN(mgl32.Vec3{0, -1, 0})
	assert.Equal(t, b[6], p)
	assert.Equal(t, b[0], n)
}

func TestLines(t *testing.T) {
	b := unitBox(0, 0, 0)
	lines := b.Lines()
	require.Len(t, lines, 24)
	for i := 0; i < len(lines); i += 2 {
		d := lines[i].Sub(lines[i+1])
		assert.InDelta(t, 1, d.Len(), 1e-6, "edge %d is a unit edge", i/2)
	}
}

func TestPlaneEvaluate(t *testing.T) {
	pl := Plane{Point: mgl32.Vec3{0, 2, 0}, Normal: mgl32.Vec3{0, 1, 0}}
	assert.InDelta(t, 3, pl.Evaluate(mgl32.Vec3{7, 5, -1}), 1e-6)
	assert.InDelta(t, -2, pl.Evaluate(mgl32.Vec3{0, 0, 0}), 1e-6)
}

func TestClassifyAgainstSinglePlane(t *testing.T) {
	// outside is x > 0
	planes := []Plane{{Point: mgl32.Vec3{}, Normal: mgl32.Vec3{1, 0, 0}}}

	visible, straddling := Classify(unitBox(-5, 0, 0), planes)
	assert.True(t, visible)
	assert.False(t, straddling)

	visible, straddling = Classify(unitBox(5, 0, 0), planes)
	assert.False(t, visible, "entirely outside")
	assert.False(t, straddling)

	visible, straddling = Classify(unitBox(0, 0, 0), planes)
	assert.True(t, visible, "a straddling box stays visible")
	assert.True(t, straddling)
}

func TestCullCountsAndFlags(t *testing.T) {
	planes := []Plane{
		{Point: mgl32.Vec3{10, 0, 0}, Normal: mgl32.Vec3{1, 0, 0}},
		{Point: mgl32.Vec3{-10, 0, 0}, Normal: mgl32.Vec3{-1, 0, 0}},
	}
	targets := []*fakeTarget{
		{box: unitBox(0, 0, 0)},
		{box: unitBox(10, 0, 0)},
		{box: unitBox(-20, 0, 0)},
		{box: unitBox(30, 0, 0)},
	}

	s := Cull(targets, planes)
	assert.Equal(t, Stats{Visible: 2, Culled: 2, Straddling: 1}, s)

	assert.True(t, targets[0].visible)
	assert.False(t, targets[0].straddling)
	assert.True(t, targets[1].visible)
	assert.True(t, targets[1].straddling)
	assert.False(t, targets[2].visible)
	assert.False(t, targets[3].visible)
}

func TestPlanesFromMatrix(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 1000)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	planes := PlanesFromMatrix(proj.Mul4(view))

	for i, pl := range planes {
		assert.InDelta(t, 1, pl.Normal.Len(), 1e-4, "plane %d normal is unit length", i)
	}

	all := planes[:]
	inFront := unitBox(0, 0, -20)
	behind := unitBox(0, 0, 20)
	farLeft := unitBox(-100, 0, -20)
	onEdge := unitBox(-20, 0, -20)

	v, s := Classify(inFront, all)
	assert.True(t, v)
	assert.False(t, s)

	v, _ = Classify(behind, all)
	assert.False(t, v)

	v, _ = Classify(farLeft, all)
	assert.False(t, v)

	v, s = Classify(onEdge, all)
	assert.True(t, v)
	assert.True(t, s)
}
