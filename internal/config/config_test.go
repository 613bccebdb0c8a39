package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"procterrain/internal/terrain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.ClassifierParams()
	require.NoError(t, err)
	assert.Len(t, p.Biomes, terrain.BiomeCount)
	_, err = terrain.NewClassifier(p)
	require.NoError(t, err)

	opts := cfg.GridOptions()
	assert.Equal(t, 9, opts.Size)
	assert.Equal(t, 32.0, opts.Chunk.Width())
	assert.Equal(t, 25*time.Millisecond, cfg.SlowFrame())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terrain.yaml")
	doc := `
grid:
  size: 5
chunk:
  vertices_per_side: 33
  spacing: 1
lod:
  distances: [2, 4, 6]
terrain:
  heat_threshold: 0.4
  heat:
    octaves: 3
    amplitude: 1
    gain: 0.5
    lacunarity: 2
    frequency: 0.02
    seed: 4.2
    source: value
viewer:
  color_mode: heat
  fov: 0
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Grid.Size)
	assert.Equal(t, 33, cfg.Chunk.VerticesPerSide)
	assert.Equal(t, -8.0, cfg.Chunk.SkirtDepth, "untouched keys keep their defaults")
	assert.Equal(t, []float64{2, 4, 6}, cfg.LOD.Distances)
	assert.Equal(t, 0.4, cfg.Terrain.HeatThreshold)
	assert.Equal(t, terrain.SourceValue, cfg.Terrain.Heat.Source)
	assert.Equal(t, "heat", cfg.Viewer.ColorMode)
	assert.Equal(t, float32(60), cfg.Viewer.FOV, "invalid fov falls back")
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "terrain.example.yaml"))
	require.NoError(t, err)

	p, err := cfg.ClassifierParams()
	require.NoError(t, err)
	require.NotNil(t, p.Biomes[terrain.Desert].Anchor)
	assert.Equal(t, [2]float64{0.9, 0.1}, *p.Biomes[terrain.Desert].Anchor)
	assert.Equal(t, Default().Terrain.Biomes["ice"], cfg.Terrain.Biomes["ice"], "unlisted biomes keep defaults")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: [1, 2"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestValidateRejectsInvalidConfigurations(t *testing.T) {
	tests := map[string]func(c *Config){
		"zero grid size":       func(c *Config) { c.Grid.Size = 0 },
		"negative workers":     func(c *Config) { c.Stream.Workers = -1 },
		"one vertex per side":  func(c *Config) { c.Chunk.VerticesPerSide = 1 },
		"zero spacing":         func(c *Config) { c.Chunk.Spacing = 0 },
		"unknown biome":        func(c *Config) { c.Terrain.Biomes["swamp"] = c.Terrain.Biomes["ice"] },
		"missing biome":        func(c *Config) { delete(c.Terrain.Biomes, "desert") },
		"bad threshold":        func(c *Config) { c.Terrain.MoistureThreshold = 1.2 },
		"bad heat octaves":     func(c *Config) { c.Terrain.Heat.Octaves = 0 },
		"descending distances": func(c *Config) { c.LOD.Distances = []float64{3, 2} },
		"negative distance":    func(c *Config) { c.LOD.Distances = []float64{-1} },
		"unknown color mode":   func(c *Config) { c.Viewer.ColorMode = "sepia" },
		"bad slow frame":       func(c *Config) { c.Viewer.SlowFrame = "soon" },
		"no vegetation step":   func(c *Config) { c.Terrain.VegetationSpacing = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestColorModeRoundTrip(t *testing.T) {
	for m := ColorBlend; m < colorModeCount; m++ {
		got, ok := ParseColorMode(m.String())
		require.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := ParseColorMode("sepia")
	assert.False(t, ok)
	assert.Equal(t, "unknown", ColorMode(99).String())
}

func TestRenderToggles(t *testing.T) {
	ApplyViewer(Default().Viewer, Default().LOD)
	defer ApplyViewer(Default().Viewer, Default().LOD)

	assert.True(t, GetCulling())
	assert.False(t, ToggleCulling())
	assert.False(t, GetCulling())

	assert.True(t, GetLOD())
	assert.False(t, ToggleLOD())

	assert.False(t, GetBoundingBoxes())
	assert.True(t, ToggleBoundingBoxes())

	assert.True(t, GetVegetation())
	assert.False(t, ToggleVegetation())

	assert.False(t, GetWireframe())
	assert.True(t, ToggleWireframe())
	ToggleWireframe()

	SetColorMode(ColorNormals)
	assert.Equal(t, ColorNormals, GetColorMode())
	SetColorMode(ColorMode(42))
	assert.Equal(t, ColorNormals, GetColorMode(), "unknown modes are ignored")
}

func TestSetFPSLimitClamps(t *testing.T) {
	defer SetFPSLimit(120)
	tests := []struct{ in, want int }{
		{-5, 0},
		{0, 0},
		{5, 15},
		{60, 60},
		{5000, 1000},
	}
	for _, tt := range tests {
		SetFPSLimit(tt.in)
		assert.Equal(t, tt.want, GetFPSLimit(), "SetFPSLimit(%d)", tt.in)
	}
}
