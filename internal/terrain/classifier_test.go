package terrain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t testing.TB) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultParams())
	require.NoError(t, err)
	return c
}

func TestClassifyWeatherTable(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		heat, moist float64
		want        BiomeKind
	}{
		{0.8, 0.2, Desert},
		{0.2, 0.8, Ice},
		{0.2, 0.2, Tundra},
		{0.8, 0.8, Woodland},
		// threshold values belong to the upper bucket
		{0.5, 0.5, Woodland},
		{0.49, 0.5, Ice},
		{0.5, 0.49, Desert},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.ClassifyWeather(tt.heat, tt.moist), "heat=%v moisture=%v", tt.heat, tt.moist)
	}
}

func TestClassifyWeatherIsTotal(t *testing.T) {
	c := newTestClassifier(t)
	for h := 0.0; h <= 1.0; h += 0.01 {
		for m := 0.0; m <= 1.0; m += 0.01 {
			k := c.ClassifyWeather(h, m)
			require.True(t, k.Valid(), "heat=%v moisture=%v gave %v", h, m, k)
		}
	}
}

func TestBlendWeightsPositive(t *testing.T) {
	c := newTestClassifier(t)
	for h := 0.0; h <= 1.0; h += 0.05 {
		for m := 0.0; m <= 1.0; m += 0.05 {
			w := c.BlendWeights(h, m)
			require.Greater(t, w.Sum(), 0.0)
			for _, v := range w {
				require.False(t, math.IsInf(v, 0) || math.IsNaN(v))
			}
		}
	}
}

func TestBlendWeightsAtAnchorAreFinite(t *testing.T) {
	c := newTestClassifier(t)
	for _, k := range BiomeKinds {
		b := c.Biome(k)
		w := c.BlendWeights(b.Heat, b.Moist)

		assert.InDelta(t, 1e12, w[k], 1, "anchor of %s is clamped by epsilon", k)
		for _, other := range BiomeKinds {
			if other != k {
				assert.Less(t, w[other], w[k])
			}
		}
	}
}

func TestAnchorsAtQuadrantCentroids(t *testing.T) {
	p := DefaultParams()
	p.HeatThreshold = 0.4
	p.MoistureThreshold = 0.6
	c, err := NewClassifier(p)
	require.NoError(t, err)

	cases := map[BiomeKind][2]float64{
		Tundra:   {0.2, 0.3},
		Ice:      {0.2, 0.8},
		Desert:   {0.7, 0.3},
		Woodland: {0.7, 0.8},
	}
	for k, want := range cases {
		h, m := c.Biome(k).Anchor()
		assert.InDelta(t, want[0], h, 1e-12, "%s heat", k)
		assert.InDelta(t, want[1], m, 1e-12, "%s moisture", k)
		assert.Equal(t, k, c.ClassifyWeather(h, m), "anchor of %s must classify as itself", k)
	}
}

func TestAnchorOverride(t *testing.T) {
	p := DefaultParams()
	bp := p.Biomes[Desert]
	bp.Anchor = &[2]float64{0.9, 0.1}
	p.Biomes[Desert] = bp

	c, err := NewClassifier(p)
	require.NoError(t, err)
	h, m := c.Biome(Desert).Anchor()
	assert.Equal(t, 0.9, h)
	assert.Equal(t, 0.1, m)
}

func TestBlendedHeightFollowsDominantBiome(t *testing.T) {
	c := newTestClassifier(t)
	const x, z = 17.5, -42.25
	tectonic := c.tectonic.Evaluate(x, z)

	for _, k := range BiomeKinds {
		b := c.Biome(k)
		want := math.Max(b.HeightAt(tectonic, x, z), c.GroundLevel())
		got := c.blendedHeight(x, z, c.BlendWeights(b.Heat, b.Moist))
		assert.InDelta(t, want, got, 1e-6, "blend at the %s anchor", k)
	}
}

func TestHeightNeverBelowGround(t *testing.T) {
	p := DefaultParams()
	p.GroundLevel = 0.5
	c, err := NewClassifier(p)
	require.NoError(t, err)

	for x := -300.0; x < 300; x += 7.3 {
		for z := -300.0; z < 300; z += 9.1 {
			require.GreaterOrEqual(t, c.HeightAt(x, z), 0.5)
		}
	}
}

func TestHeightAtTracked(t *testing.T) {
	c := newTestClassifier(t)
	r := NewHeightRange()
	require.True(t, r.Empty())

	var lo, hi = math.Inf(1), math.Inf(-1)
	for i := 0; i < 50; i++ {
		x, z := float64(i)*4.1, float64(i)*-2.7
		h := c.HeightAtTracked(x, z, r)
		assert.Equal(t, c.HeightAt(x, z), h)
		lo, hi = math.Min(lo, h), math.Max(hi, h)
	}
	assert.Equal(t, 50, r.Count)
	assert.Equal(t, lo, r.Min)
	assert.Equal(t, hi, r.Max)

	// nil range is allowed
	assert.NotPanics(t, func() { c.HeightAtTracked(1, 2, nil) })
}

func TestSampleConsistent(t *testing.T) {
	c := newTestClassifier(t)
	for i := 0; i < 40; i++ {
		x, z := float64(i)*11.3-200, float64(i)*7.7-150
		s := c.Sample(x, z)

		heat, moist := c.WeatherAt(x, z)
		assert.Equal(t, heat, s.Heat)
		assert.Equal(t, moist, s.Moisture)
		assert.Equal(t, c.Classify(x, z), s.Kind)
		assert.InDelta(t, c.HeightAt(x, z), s.Height, 1e-12)
		assert.Equal(t, c.TemperatureOf(heat), s.Temperature)
		assert.Equal(t, c.MoistureOf(moist), s.Humidity)
		for j := 0; j < 3; j++ {
			assert.GreaterOrEqual(t, s.Color[j], float32(0))
			assert.LessOrEqual(t, s.Color[j], float32(1.0001))
		}
	}
}

func TestNewClassifierRejectsInvalidParams(t *testing.T) {
	tests := map[string]func(p *Params){
		"zero heat threshold":   func(p *Params) { p.HeatThreshold = 0 },
		"moisture threshold 1":  func(p *Params) { p.MoistureThreshold = 1 },
		"bad tectonic octaves":  func(p *Params) { p.Tectonic.Octaves = 0 },
		"missing biome":         func(p *Params) { delete(p.Biomes, Tundra) },
		"anchor outside square": func(p *Params) { bp := p.Biomes[Ice]; bp.Anchor = &[2]float64{1.5, 0}; p.Biomes[Ice] = bp },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			_, err := NewClassifier(p)
			require.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestParseBiomeKind(t *testing.T) {
	for _, k := range BiomeKinds {
		got, ok := ParseBiomeKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseBiomeKind("swamp")
	assert.False(t, ok)
}

func BenchmarkClassifierSample(b *testing.B) {
	c := newTestClassifier(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Sample(float64(i&511), float64(i>>9&511))
	}
}
