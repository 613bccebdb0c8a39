package terrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidParams is returned when classifier or noise parameters are unusable.
var ErrInvalidParams = errors.New("terrain: invalid parameters")

// blendEpsilon bounds the weather-space distance used for inverse-distance weights.
const blendEpsilon = 1e-4

// BiomeParams configures one biome's surface.
type BiomeParams struct {
	Noise  NoiseParams `yaml:"noise"`
	Offset float64     `yaml:"offset"`
	// Anchor overrides the quadrant centroid in (heat, moisture) space.
	Anchor *[2]float64 `yaml:"anchor,omitempty"`
}

// Params configures a Classifier.
type Params struct {
	Heat              NoiseParams               `yaml:"heat"`
	Moisture          NoiseParams               `yaml:"moisture"`
	HeatThreshold     float64                   `yaml:"heat_threshold"`
	MoistureThreshold float64                   `yaml:"moisture_threshold"`
	Tectonic          NoiseParams               `yaml:"tectonic"`
	GroundLevel       float64                   `yaml:"ground_level"`
	Biomes            map[BiomeKind]BiomeParams `yaml:"-"`
}

// DefaultParams returns a four-biome configuration with the weather fields on
// simplex noise and the height fields on perlin noise.
func DefaultParams() Params {
	return Params{
		Heat: NoiseParams{
			Octaves: 1, Amplitude: 1, Gain: 0.5, Lacunarity: 2,
			Frequency: 0.013, Seed: 0.1, Source: SourceSimplex,
		},
		Moisture: NoiseParams{
			Octaves: 2, Amplitude: 1, Gain: 0.5, Lacunarity: 2,
			Frequency: 0.024, Seed: 1.137, Source: SourceSimplex,
		},
		HeatThreshold:     0.5,
		MoistureThreshold: 0.5,
		Tectonic: NoiseParams{
			Octaves: 2, Amplitude: 4, Gain: 0.5, Lacunarity: 2,
			Frequency: 0.004, Seed: 7.3, Source: SourcePerlin,
		},
		GroundLevel: -3,
		Biomes: map[BiomeKind]BiomeParams{
			Ice: {
				Noise:  NoiseParams{Octaves: 3, Amplitude: 1, Gain: 0.5, Lacunarity: 2, Frequency: 0.05, Seed: 2.1, Source: SourcePerlin},
				Offset: 1.5,
			},
			Tundra: {
				Noise:  NoiseParams{Octaves: 4, Amplitude: 1.5, Gain: 0.5, Lacunarity: 2, Frequency: 0.07, Seed: 3.4, Source: SourcePerlin},
				Offset: 0.5,
			},
			Woodland: {
				Noise:  NoiseParams{Octaves: 6, Amplitude: 3, Gain: 0.5, Lacunarity: 2, Frequency: 0.09, Seed: 0.1, Source: SourcePerlin},
				Offset: 0,
			},
			Desert: {
				Noise:  NoiseParams{Octaves: 2, Amplitude: 0.8, Gain: 0.5, Lacunarity: 2, Frequency: 0.03, Seed: 5.9, Source: SourceValue},
				Offset: -0.5,
			},
		},
	}
}

// Validate checks thresholds, every noise field and that all four biomes are present.
func (p Params) Validate() error {
	if p.HeatThreshold <= 0 || p.HeatThreshold >= 1 {
		return fmt.Errorf("%w: heat threshold must be in (0,1), got %g", ErrInvalidParams, p.HeatThreshold)
	}
	if p.MoistureThreshold <= 0 || p.MoistureThreshold >= 1 {
		return fmt.Errorf("%w: moisture threshold must be in (0,1), got %g", ErrInvalidParams, p.MoistureThreshold)
	}
	for name, np := range map[string]NoiseParams{"heat": p.Heat, "moisture": p.Moisture, "tectonic": p.Tectonic} {
		if err := np.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, k := range BiomeKinds {
		bp, ok := p.Biomes[k]
		if !ok {
			return fmt.Errorf("%w: biome %s is not configured", ErrInvalidParams, k)
		}
		if err := bp.Noise.Validate(); err != nil {
			return fmt.Errorf("biome %s: %w", k, err)
		}
		if a := bp.Anchor; a != nil && (a[0] < 0 || a[0] > 1 || a[1] < 0 || a[1] > 1) {
			return fmt.Errorf("%w: biome %s anchor %v outside [0,1]", ErrInvalidParams, k, *a)
		}
	}
	return nil
}

// HeightRange accumulates the extremes of the heights it observes.
type HeightRange struct {
	Min, Max float64
	Count    int
}

// NewHeightRange returns an empty range.
func NewHeightRange() *HeightRange {
	return &HeightRange{Min: math.Inf(1), Max: math.Inf(-1)}
}

func (r *HeightRange) Observe(h float64) {
	if h < r.Min {
		r.Min = h
	}
	if h > r.Max {
		r.Max = h
	}
	r.Count++
}

// Empty reports whether nothing was observed yet.
func (r *HeightRange) Empty() bool { return r.Count == 0 }

// Weights holds one blend weight per biome, indexed by BiomeKind.
type Weights [BiomeCount]float64

// Sum adds all weights.
func (w Weights) Sum() float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

// Sample is everything the mesh builder needs for one vertex.
type Sample struct {
	Heat, Moisture float64
	Height         float64
	Kind           BiomeKind
	Temperature    Temperature
	Humidity       Moisture
	// Color is the weight-blended biome color.
	Color mgl32.Vec3
}

// Classifier maps world (x,z) to weather, biome and blended height. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	params   Params
	heat     *NoiseField
	moisture *NoiseField
	tectonic *NoiseField
	table    [2][2]BiomeKind
	biomes   [BiomeCount]*Biome
}

// NewClassifier validates p and builds every noise field.
func NewClassifier(p Params) (*Classifier, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{params: p}
	c.table[Cold][Dry] = Tundra
	c.table[Cold][Wet] = Ice
	c.table[Hot][Dry] = Desert
	c.table[Hot][Wet] = Woodland

	var err error
	if c.heat, err = NewNoiseField(p.Heat); err != nil {
		return nil, err
	}
	if c.moisture, err = NewNoiseField(p.Moisture); err != nil {
		return nil, err
	}
	if c.tectonic, err = NewNoiseField(p.Tectonic); err != nil {
		return nil, err
	}

	for _, k := range BiomeKinds {
		bp := p.Biomes[k]
		field, err := NewNoiseField(bp.Noise)
		if err != nil {
			return nil, fmt.Errorf("biome %s: %w", k, err)
		}
		heat, moist := c.centroid(k)
		if bp.Anchor != nil {
			heat, moist = bp.Anchor[0], bp.Anchor[1]
		}
		c.biomes[k] = &Biome{Kind: k, Heat: heat, Moist: moist, Offset: bp.Offset, field: field}
	}
	return c, nil
}

// centroid places k at the center of its table quadrant.
func (c *Classifier) centroid(k BiomeKind) (heat, moist float64) {
	for t := Cold; t <= Hot; t++ {
		for m := Dry; m <= Wet; m++ {
			if c.table[t][m] != k {
				continue
			}
			heat = c.params.HeatThreshold / 2
			if t == Hot {
				heat = (1 + c.params.HeatThreshold) / 2
			}
			moist = c.params.MoistureThreshold / 2
			if m == Wet {
				moist = (1 + c.params.MoistureThreshold) / 2
			}
			return heat, moist
		}
	}
	return 0.5, 0.5
}

// Params returns the parameters the classifier was built with.
func (c *Classifier) Params() Params { return c.params }

// GroundLevel is the lowest height HeightAt returns.
func (c *Classifier) GroundLevel() float64 { return c.params.GroundLevel }

// Biome returns the entity for k.
func (c *Classifier) Biome(k BiomeKind) *Biome {
	if !k.Valid() {
		return nil
	}
	return c.biomes[k]
}

// WeatherAt returns heat and moisture in [0,1] at (x,z).
func (c *Classifier) WeatherAt(x, z float64) (heat, moisture float64) {
	return c.heat.Weather(x, z), c.moisture.Weather(x, z)
}

// TemperatureOf buckets a heat value.
func (c *Classifier) TemperatureOf(heat float64) Temperature {
	if heat < c.params.HeatThreshold {
		return Cold
	}
	return Hot
}

// MoistureOf buckets a moisture value.
func (c *Classifier) MoistureOf(moisture float64) Moisture {
	if moisture < c.params.MoistureThreshold {
		return Dry
	}
	return Wet
}

// ClassifyWeather picks the biome for a point in weather space.
func (c *Classifier) ClassifyWeather(heat, moisture float64) BiomeKind {
	return c.table[c.TemperatureOf(heat)][c.MoistureOf(moisture)]
}

// Classify returns the dominant biome at (x,z).
func (c *Classifier) Classify(x, z float64) BiomeKind {
	return c.ClassifyWeather(c.WeatherAt(x, z))
}

// BlendWeights returns 1/max(d,eps)^3 for each biome anchor. The sum is
// always positive.
func (c *Classifier) BlendWeights(heat, moisture float64) Weights {
	var w Weights
	for i, b := range c.biomes {
		dh := heat - b.Heat
		dm := moisture - b.Moist
		d := math.Max(math.Sqrt(dh*dh+dm*dm), blendEpsilon)
		w[i] = 1 / (d * d * d)
	}
	return w
}

// HeightAt returns the blended surface height at (x,z).
func (c *Classifier) HeightAt(x, z float64) float64 {
	heat, moist := c.WeatherAt(x, z)
	return c.blendedHeight(x, z, c.BlendWeights(heat, moist))
}

// HeightAtTracked is HeightAt that also records the result in r.
func (c *Classifier) HeightAtTracked(x, z float64, r *HeightRange) float64 {
	h := c.HeightAt(x, z)
	if r != nil {
		r.Observe(h)
	}
	return h
}

func (c *Classifier) blendedHeight(x, z float64, w Weights) float64 {
	tectonic := c.tectonic.Evaluate(x, z)
	sum, total := 0.0, 0.0
	for i, b := range c.biomes {
		sum += w[i] * b.HeightAt(tectonic, x, z)
		total += w[i]
	}
	return math.Max(sum/total, c.params.GroundLevel)
}

// Sample evaluates weather, biome, blended height and blended color at (x,z).
func (c *Classifier) Sample(x, z float64) Sample {
	heat, moist := c.WeatherAt(x, z)
	w := c.BlendWeights(heat, moist)
	total := w.Sum()

	var color mgl32.Vec3
	for i, b := range c.biomes {
		color = color.Add(b.Kind.Color().Mul(float32(w[i] / total)))
	}

	return Sample{
		Heat:        heat,
		Moisture:    moist,
		Height:      c.blendedHeight(x, z, w),
		Kind:        c.ClassifyWeather(heat, moist),
		Temperature: c.TemperatureOf(heat),
		Humidity:    c.MoistureOf(moist),
		Color:       color,
	}
}
