package terrain

import (
	"fmt"
	"math"

	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Source selects the lattice noise that backs a NoiseField.
type Source string

const (
	SourcePerlin  Source = "perlin"
	SourceSimplex Source = "simplex"
	SourceValue   Source = "value"
)

// NoiseParams describes one fractal noise field.
type NoiseParams struct {
	Octaves    int     `yaml:"octaves"`
	Amplitude  float64 `yaml:"amplitude"`
	Gain       float64 `yaml:"gain"`
	Lacunarity float64 `yaml:"lacunarity"`
	Frequency  float64 `yaml:"frequency"`
	Seed       float64 `yaml:"seed"`
	Source     Source  `yaml:"source"`
}

// Validate reports the first unusable parameter.
func (p NoiseParams) Validate() error {
	switch {
	case p.Octaves < 1:
		return fmt.Errorf("%w: octaves must be at least 1, got %d", ErrInvalidParams, p.Octaves)
	case p.Frequency <= 0:
		return fmt.Errorf("%w: frequency must be positive, got %g", ErrInvalidParams, p.Frequency)
	case p.Lacunarity <= 0:
		return fmt.Errorf("%w: lacunarity must be positive, got %g", ErrInvalidParams, p.Lacunarity)
	case p.Amplitude < 0 || p.Gain < 0:
		return fmt.Errorf("%w: amplitude and gain must not be negative", ErrInvalidParams)
	}
	switch p.Source {
	case "", SourcePerlin, SourceSimplex, SourceValue:
		return nil
	default:
		return fmt.Errorf("%w: unknown noise source %q", ErrInvalidParams, p.Source)
	}
}

// sampler is a single octave of lattice noise with output roughly in [-1,1].
type sampler interface {
	sample(x, y, z float64) float64
}

type perlinSampler struct{ p *perlin.Perlin }

func (s perlinSampler) sample(x, y, z float64) float64 { return s.p.Noise3D(x, y, z) }

type simplexSampler struct{ n opensimplex.Noise }

func (s simplexSampler) sample(x, y, z float64) float64 { return s.n.Eval3(x, y, z) }

type valueSampler struct{ seed int64 }

func (s valueSampler) sample(x, y, z float64) float64 {
	return valueNoise3D(x, y, z, s.seed)*2 - 1
}

// NoiseField is a deterministic fractal noise evaluator. It holds no mutable
// state and is safe for concurrent use.
type NoiseField struct {
	params NoiseParams
	src    sampler
	scale  float64
}

// NewNoiseField validates p and builds the backing lattice.
func NewNoiseField(p NoiseParams) (*NoiseField, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Source == "" {
		p.Source = SourcePerlin
	}

	latticeSeed := int64(hash2(int64(math.Float64bits(p.Seed)), 0, 0x5EED))
	var src sampler
	switch p.Source {
	case SourceSimplex:
		src = simplexSampler{n: opensimplex.New(latticeSeed)}
	case SourceValue:
		src = valueSampler{seed: latticeSeed}
	default:
		src = perlinSampler{p: perlin.NewPerlin(2, 2, 1, latticeSeed)}
	}

	scale := 0.0
	amp := p.Amplitude
	for range p.Octaves {
		scale += amp
		amp *= p.Gain
	}
	return &NoiseField{params: p, src: src, scale: scale}, nil
}

// MustNoiseField is NewNoiseField for parameters known to be valid.
func MustNoiseField(p NoiseParams) *NoiseField {
	f, err := NewNoiseField(p)
	if err != nil {
		panic(err)
	}
	return f
}

// Params returns the parameters the field was built from.
func (f *NoiseField) Params() NoiseParams { return f.params }

// Evaluate sums all octaves at (x,z). The result lies in [-Scale(), Scale()].
func (f *NoiseField) Evaluate(x, z float64) float64 {
	sum := 0.0
	amp := f.params.Amplitude
	freq := f.params.Frequency
	for range f.params.Octaves {
		sum += amp * f.src.sample((x+1)*freq, (z+1)*freq, f.params.Seed)
		freq *= f.params.Lacunarity
		amp *= f.params.Gain
	}
	return sum
}

// Scale is the sum of the per-octave amplitudes.
func (f *NoiseField) Scale() float64 { return f.scale }

// Weather remaps Evaluate from [-Scale(), Scale()] into [0,1].
func (f *NoiseField) Weather(x, z float64) float64 {
	if f.scale == 0 {
		return 0.5
	}
	v := (f.Evaluate(x, z)/f.scale + 1) * 0.5
	return clamp(v, 0, 1)
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hash2 is a SplitMix64 style integer hash, stable across runs.
func hash2(x, z, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func hash3(x, y, z, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// unitHash maps a hash into [0,1].
func unitHash(h uint64) float64 {
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise3D(x, y, z float64, seed int64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	fx, fy, fz := fade(x-x0), fade(y-y0), fade(z-z0)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	corner := func(dx, dy, dz int64) float64 {
		return unitHash(hash3(ix+dx, iy+dy, iz+dz, seed))
	}

	i00 := lerp(corner(0, 0, 0), corner(1, 0, 0), fx)
	i10 := lerp(corner(0, 1, 0), corner(1, 1, 0), fx)
	i01 := lerp(corner(0, 0, 1), corner(1, 0, 1), fx)
	i11 := lerp(corner(0, 1, 1), corner(1, 1, 1), fx)

	return lerp(lerp(i00, i10, fy), lerp(i01, i11, fy), fz) // [0,1]
}
