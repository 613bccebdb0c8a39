package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"procterrain/internal/terrain"
	"procterrain/internal/world"

	"gopkg.in/yaml.v3"
)

// Config is the YAML document read by the binaries.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Chunk   ChunkConfig   `yaml:"chunk"`
	Terrain TerrainConfig `yaml:"terrain"`
	Stream  StreamConfig  `yaml:"stream"`
	LOD     LODConfig     `yaml:"lod"`
	Viewer  ViewerConfig  `yaml:"viewer"`
}

type GridConfig struct {
	Size int `yaml:"size"`
}

type ChunkConfig struct {
	VerticesPerSide int     `yaml:"vertices_per_side"`
	Spacing         float64 `yaml:"spacing"`
	SkirtDepth      float64 `yaml:"skirt_depth"`
	MaxLOD          int     `yaml:"max_lod"`
}

type TerrainConfig struct {
	Heat              terrain.NoiseParams            `yaml:"heat"`
	Moisture          terrain.NoiseParams            `yaml:"moisture"`
	Tectonic          terrain.NoiseParams            `yaml:"tectonic"`
	HeatThreshold     float64                        `yaml:"heat_threshold"`
	MoistureThreshold float64                        `yaml:"moisture_threshold"`
	GroundLevel       float64                        `yaml:"ground_level"`
	Biomes            map[string]terrain.BiomeParams `yaml:"biomes"`
	VegetationSpacing float64                        `yaml:"vegetation_spacing"`
}

type StreamConfig struct {
	Workers int `yaml:"workers"`
}

type LODConfig struct {
	Enabled   bool      `yaml:"enabled"`
	Distances []float64 `yaml:"distances"`
}

type ViewerConfig struct {
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	Title            string  `yaml:"title"`
	FOV              float32 `yaml:"fov"`
	MoveSpeed        float32 `yaml:"move_speed"`
	MouseSensitivity float32 `yaml:"mouse_sensitivity"`
	FPSLimit         int     `yaml:"fps_limit"`
	Culling          bool    `yaml:"culling"`
	BoundingBoxes    bool    `yaml:"bounding_boxes"`
	Vegetation       bool    `yaml:"vegetation"`
	ColorMode        string  `yaml:"color_mode"`
	SlowFrame        string  `yaml:"slow_frame"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := terrain.DefaultParams()
	biomes := make(map[string]terrain.BiomeParams, len(p.Biomes))
	for k, bp := range p.Biomes {
		biomes[k.String()] = bp
	}

	return &Config{
		Grid: GridConfig{Size: 9},
		Chunk: ChunkConfig{
			VerticesPerSide: 65,
			Spacing:         0.5,
			SkirtDepth:      -8,
			MaxLOD:          16,
		},
		Terrain: TerrainConfig{
			Heat:              p.Heat,
			Moisture:          p.Moisture,
			Tectonic:          p.Tectonic,
			HeatThreshold:     p.HeatThreshold,
			MoistureThreshold: p.MoistureThreshold,
			GroundLevel:       p.GroundLevel,
			Biomes:            biomes,
			VegetationSpacing: 2,
		},
		Stream: StreamConfig{Workers: 0},
		LOD: LODConfig{
			Enabled:   true,
			Distances: append([]float64(nil), world.DefaultLODDistances...),
		},
		Viewer: ViewerConfig{
			Width:            1280,
			Height:           720,
			Title:            "terrainview",
			FOV:              60,
			MoveSpeed:        12,
			MouseSensitivity: 0.1,
			FPSLimit:         120,
			Culling:          true,
			BoundingBoxes:    false,
			Vegetation:       true,
			ColorMode:        ColorBlend.String(),
			SlowFrame:        "25ms",
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section. Missing viewer values fall back to defaults.
func (c *Config) Validate() error {
	if c.Grid.Size <= 0 {
		return errors.New("grid.size must be positive")
	}
	if c.Stream.Workers < 0 {
		return errors.New("stream.workers cannot be negative")
	}
	if err := c.ChunkOptions().Validate(); err != nil {
		return err
	}
	if _, err := c.ClassifierParams(); err != nil {
		return err
	}
	if c.Terrain.VegetationSpacing <= 0 {
		return errors.New("terrain.vegetation_spacing must be positive")
	}
	for i, d := range c.LOD.Distances {
		if d <= 0 {
			return fmt.Errorf("lod.distances[%d] must be positive", i)
		}
		if i > 0 && d <= c.LOD.Distances[i-1] {
			return fmt.Errorf("lod.distances[%d] must be greater than lod.distances[%d]", i, i-1)
		}
	}

	def := Default().Viewer
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		c.Viewer.Width, c.Viewer.Height = def.Width, def.Height
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180 {
		c.Viewer.FOV = def.FOV
	}
	if c.Viewer.Title == "" {
		c.Viewer.Title = def.Title
	}
	if c.Viewer.ColorMode == "" {
		c.Viewer.ColorMode = def.ColorMode
	}
	if _, ok := ParseColorMode(c.Viewer.ColorMode); !ok {
		return fmt.Errorf("viewer.color_mode %q is not a known mode", c.Viewer.ColorMode)
	}
	if c.Viewer.SlowFrame == "" {
		c.Viewer.SlowFrame = def.SlowFrame
	}
	if _, err := time.ParseDuration(c.Viewer.SlowFrame); err != nil {
		return fmt.Errorf("viewer.slow_frame invalid: %w", err)
	}
	return nil
}

// ClassifierParams converts the terrain section.
func (c *Config) ClassifierParams() (terrain.Params, error) {
	t := c.Terrain
	p := terrain.Params{
		Heat:              t.Heat,
		Moisture:          t.Moisture,
		Tectonic:          t.Tectonic,
		HeatThreshold:     t.HeatThreshold,
		MoistureThreshold: t.MoistureThreshold,
		GroundLevel:       t.GroundLevel,
		Biomes:            make(map[terrain.BiomeKind]terrain.BiomeParams, len(t.Biomes)),
	}
	for name, bp := range t.Biomes {
		k, ok := terrain.ParseBiomeKind(name)
		if !ok {
			return terrain.Params{}, fmt.Errorf("terrain.biomes: unknown biome %q", name)
		}
		p.Biomes[k] = bp
	}
	if err := p.Validate(); err != nil {
		return terrain.Params{}, fmt.Errorf("terrain: %w", err)
	}
	return p, nil
}

// ChunkOptions converts the chunk section.
func (c *Config) ChunkOptions() world.ChunkOptions {
	return world.ChunkOptions{
		VerticesPerSide: c.Chunk.VerticesPerSide,
		Spacing:         c.Chunk.Spacing,
		SkirtDepth:      c.Chunk.SkirtDepth,
		MaxLOD:          c.Chunk.MaxLOD,
	}
}

// GridOptions converts the grid, chunk, stream and lod sections. Hooks and
// logger are left for the caller.
func (c *Config) GridOptions() world.GridOptions {
	return world.GridOptions{
		Size:         c.Grid.Size,
		Chunk:        c.ChunkOptions(),
		Workers:      c.Stream.Workers,
		LODDistances: append([]float64(nil), c.LOD.Distances...),
	}
}

// SlowFrame is the frame time above which the viewer logs a profile.
func (c *Config) SlowFrame() time.Duration {
	d, err := time.ParseDuration(c.Viewer.SlowFrame)
	if err != nil {
		return 25 * time.Millisecond
	}
	return d
}
