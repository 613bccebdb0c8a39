// Package preview renders top-down maps of a terrain classifier.
package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"procterrain/internal/profiling"
	"procterrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"
)

// Layer selects what a map shows.
type Layer int

const (
	LayerBiome Layer = iota
	LayerHeat
	LayerMoisture
	LayerHeight
	LayerBlend
)

var layerNames = []string{"biome", "heat", "moisture", "height", "blend"}

func (l Layer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return "unknown"
	}
	return layerNames[l]
}

// ParseLayer is the inverse of String.
func ParseLayer(s string) (Layer, bool) {
	for i, name := range layerNames {
		if name == s {
			return Layer(i), true
		}
	}
	return LayerBiome, false
}

// Options describes the sampled window and the output image.
type Options struct {
	Layer            Layer
	CenterX, CenterZ float64
	// Width and Height are the number of samples per axis.
	Width, Height int
	// Step is the world distance between samples.
	Step float64
	// Upscale enlarges the sampled map by an integer factor.
	Upscale int
	Legend  bool
	// Workers bounds the row bands sampled in parallel; 0 means one per band.
	Workers int
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New("preview: width and height must be positive")
	}
	if o.Step <= 0 {
		return errors.New("preview: step must be positive")
	}
	if o.Upscale < 1 {
		return errors.New("preview: upscale must be at least 1")
	}
	if o.Layer < 0 || int(o.Layer) >= len(layerNames) {
		return fmt.Errorf("preview: unknown layer %d", o.Layer)
	}
	return nil
}

const bandRows = 32

// Render samples c over the window and returns the finished image.
func Render(ctx context.Context, c *terrain.Classifier, o Options) (*image.RGBA, error) {
	defer profiling.Track("preview.Render")()

	if err := o.Validate(); err != nil {
		return nil, err
	}

	samples := make([]terrain.Sample, o.Width*o.Height)
	x0 := o.CenterX - float64(o.Width-1)*o.Step/2
	z0 := o.CenterZ - float64(o.Height-1)*o.Step/2

	g, ctx := errgroup.WithContext(ctx)
	if o.Workers > 0 {
		g.SetLimit(o.Workers)
	}
	for start := 0; start < o.Height; start += bandRows {
		end := min(start+bandRows, o.Height)
		g.Go(func() error {
			for row := start; row < end; row++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				z := z0 + float64(row)*o.Step
				for col := 0; col < o.Width; col++ {
					samples[row*o.Width+col] = c.Sample(x0+float64(col)*o.Step, z)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("preview: sample: %w", err)
	}

	small := image.NewRGBA(image.Rect(0, 0, o.Width, o.Height))
	paint := painter(c, o.Layer, samples)
	for i, s := range samples {
		small.SetRGBA(i%o.Width, i/o.Width, paint(s))
	}

	img := small
	if o.Upscale > 1 {
		img = image.NewRGBA(image.Rect(0, 0, o.Width*o.Upscale, o.Height*o.Upscale))
		draw.NearestNeighbor.Scale(img, img.Bounds(), small, small.Bounds(), draw.Src, nil)
	}

	if o.Legend {
		drawLegend(img, legendEntries(c, o.Layer, samples))
	}
	return img, nil
}

func painter(c *terrain.Classifier, layer Layer, samples []terrain.Sample) func(terrain.Sample) color.RGBA {
	switch layer {
	case LayerHeat:
		cold, hot := terrain.Cold.Color(), terrain.Hot.Color()
		return func(s terrain.Sample) color.RGBA { return toRGBA(gradient(cold, hot, s.Heat)) }
	case LayerMoisture:
		dry, wet := terrain.Dry.Color(), terrain.Wet.Color()
		return func(s terrain.Sample) color.RGBA { return toRGBA(gradient(dry, wet, s.Moisture)) }
	case LayerHeight:
		r := heightRange(samples)
		span := r.Max - r.Min
		return func(s terrain.Sample) color.RGBA {
			t := 0.0
			if span > 0 {
				t = (s.Height - r.Min) / span
			}
			v := float32(t)
			if s.Height <= c.GroundLevel() {
				return toRGBA(mgl32.Vec3{0.1, 0.2, 0.5})
			}
			return toRGBA(mgl32.Vec3{v, v, v})
		}
	case LayerBlend:
		return func(s terrain.Sample) color.RGBA { return toRGBA(s.Color) }
	default:
		return func(s terrain.Sample) color.RGBA { return toRGBA(s.Kind.Color()) }
	}
}

func heightRange(samples []terrain.Sample) *terrain.HeightRange {
	r := terrain.NewHeightRange()
	for _, s := range samples {
		r.Observe(s.Height)
	}
	return r
}

type legendEntry struct {
	label  string
	swatch color.RGBA
}

func legendEntries(c *terrain.Classifier, layer Layer, samples []terrain.Sample) []legendEntry {
	switch layer {
	case LayerHeat:
		return []legendEntry{
			{terrain.Cold.String(), toRGBA(terrain.Cold.Color())},
			{terrain.Hot.String(), toRGBA(terrain.Hot.Color())},
		}
	case LayerMoisture:
		return []legendEntry{
			{terrain.Dry.String(), toRGBA(terrain.Dry.Color())},
			{terrain.Wet.String(), toRGBA(terrain.Wet.Color())},
		}
	case LayerHeight:
		r := heightRange(samples)
		return []legendEntry{
			{fmt.Sprintf("min %.1f", r.Min), toRGBA(mgl32.Vec3{0, 0, 0})},
			{fmt.Sprintf("max %.1f", r.Max), toRGBA(mgl32.Vec3{1, 1, 1})},
			{fmt.Sprintf("ground %.1f", c.GroundLevel()), toRGBA(mgl32.Vec3{0.1, 0.2, 0.5})},
		}
	default:
		var counts [terrain.BiomeCount]int
		for _, s := range samples {
			counts[s.Kind]++
		}
		entries := make([]legendEntry, 0, terrain.BiomeCount)
		for _, k := range terrain.BiomeKinds {
			pct := 100 * float64(counts[k]) / float64(max(len(samples), 1))
			entries = append(entries, legendEntry{fmt.Sprintf("%s %.0f%%", k, pct), toRGBA(k.Color())})
		}
		return entries
	}
}

const (
	legendPad    = 4
	legendLine   = 15
	legendSwatch = 10
)

func drawLegend(img *image.RGBA, entries []legendEntry) {
	face := basicfont.Face7x13
	width := 0
	for _, e := range entries {
		width = max(width, font.MeasureString(face, e.label).Ceil())
	}
	box := image.Rect(0, 0, legendPad*3+legendSwatch+width, legendPad*2+legendLine*len(entries))
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(color.RGBA{0, 0, 0, 160}), image.Point{}, draw.Over)

	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	for i, e := range entries {
		top := legendPad + i*legendLine
		sw := image.Rect(legendPad, top+2, legendPad+legendSwatch, top+2+legendSwatch)
		draw.Draw(img, sw.Intersect(img.Bounds()), image.NewUniform(e.swatch), image.Point{}, draw.Src)
		d.Dot = fixed.P(legendPad*2+legendSwatch, top+face.Ascent)
		d.DrawString(e.label)
	}
}

func gradient(a, b mgl32.Vec3, t float64) mgl32.Vec3 {
	t = math.Max(0, math.Min(1, t))
	return a.Add(b.Sub(a).Mul(float32(t)))
}

func toRGBA(v mgl32.Vec3) color.RGBA {
	ch := func(f float32) uint8 {
		return uint8(math.Round(float64(mgl32.Clamp(f, 0, 1)) * 255))
	}
	return color.RGBA{ch(v[0]), ch(v[1]), ch(v[2]), 255}
}
