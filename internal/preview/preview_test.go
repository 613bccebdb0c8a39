package preview

import (
	"context"
	"image/color"
	"testing"

	"procterrain/internal/terrain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassifier(t *testing.T) *terrain.Classifier {
	t.Helper()
	c, err := terrain.NewClassifier(terrain.DefaultParams())
	require.NoError(t, err)
	return c
}

func TestRenderBiomeLayerMatchesClassify(t *testing.T) {
	c := newClassifier(t)
	o := Options{Layer: LayerBiome, Width: 40, Height: 30, Step: 3, Upscale: 1, Workers: 2}

	img, err := Render(context.Background(), c, o)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())

	x0 := -float64(o.Width-1) * o.Step / 2
	z0 := -float64(o.Height-1) * o.Step / 2
	for _, p := range [][2]int{{0, 0}, {39, 29}, {17, 5}, {3, 22}} {
		kind := c.Classify(x0+float64(p[0])*o.Step, z0+float64(p[1])*o.Step)
		assert.Equal(t, toRGBA(kind.Color()), img.RGBAAt(p[0], p[1]), "pixel %v", p)
	}
}

func TestRenderUpscaleAndLegend(t *testing.T) {
	c := newClassifier(t)
	o := Options{Layer: LayerHeat, Width: 16, Height: 16, Step: 8, Upscale: 4}

	plain, err := Render(context.Background(), c, o)
	require.NoError(t, err)
	assert.Equal(t, 64, plain.Bounds().Dx())
	// nearest-neighbour keeps whole blocks
	assert.Equal(t, plain.RGBAAt(40, 40), plain.RGBAAt(43, 43))

	o.Legend = true
	withLegend, err := Render(context.Background(), c, o)
	require.NoError(t, err)
	assert.NotEqual(t, plain.Pix, withLegend.Pix, "legend draws over the map")
	// the far corner is untouched
	assert.Equal(t, plain.RGBAAt(63, 63), withLegend.RGBAAt(63, 63))
}

func TestRenderEveryLayer(t *testing.T) {
	c := newClassifier(t)
	for l := LayerBiome; l <= LayerBlend; l++ {
		t.Run(l.String(), func(t *testing.T) {
			img, err := Render(context.Background(), c, Options{Layer: l, Width: 8, Height: 8, Step: 20, Upscale: 1, Legend: true})
			require.NoError(t, err)
			for i := 3; i < len(img.Pix); i += 4 {
				require.Equal(t, uint8(255), img.Pix[i], "opaque output")
			}
		})
	}
}

func TestRenderRejectsBadOptions(t *testing.T) {
	c := newClassifier(t)
	bad := []Options{
		{Width: 0, Height: 4, Step: 1, Upscale: 1},
		{Width: 4, Height: 4, Step: 0, Upscale: 1},
		{Width: 4, Height: 4, Step: 1, Upscale: 0},
		{Layer: Layer(9), Width: 4, Height: 4, Step: 1, Upscale: 1},
	}
	for _, o := range bad {
		_, err := Render(context.Background(), c, o)
		assert.Error(t, err, "%+v", o)
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Render(ctx, newClassifier(t), Options{Width: 8, Height: 8, Step: 1, Upscale: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLayer(t *testing.T) {
	for l := LayerBiome; l <= LayerBlend; l++ {
		got, ok := ParseLayer(l.String())
		require.True(t, ok)
		assert.Equal(t, l, got)
	}
	_, ok := ParseLayer("rainfall")
	assert.False(t, ok)
}

func TestToRGBAClamps(t *testing.T) {
	assert.Equal(t, color.RGBA{0, 255, 128, 255}, toRGBA([3]float32{-1, 2, 0.5}))
}
