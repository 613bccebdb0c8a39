// Command biomemap writes a top-down PNG of the terrain classifier.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"procterrain/internal/config"
	"procterrain/internal/preview"
	"procterrain/internal/profiling"
	"procterrain/internal/terrain"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config (defaults when empty)")
		out        = flag.String("out", "biomes.png", "output PNG path")
		layerName  = flag.String("layer", "biome", "biome, heat, moisture, height or blend")
		width      = flag.Int("width", 512, "samples per row")
		height     = flag.Int("height", 512, "samples per column")
		step       = flag.Float64("step", 1, "world units between samples")
		centerX    = flag.Float64("x", 0, "world x of the map center")
		centerZ    = flag.Float64("z", 0, "world z of the map center")
		upscale    = flag.Int("upscale", 1, "integer upscale factor")
		legend     = flag.Bool("legend", true, "draw a legend")
		workers    = flag.Int("workers", 0, "parallel row bands, 0 for unbounded")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	layer, ok := preview.ParseLayer(*layerName)
	if !ok {
		fmt.Fprintln(os.Stderr, "unknown -layer:", *layerName)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log, *configPath, *out, preview.Options{
		Layer:   layer,
		CenterX: *centerX,
		CenterZ: *centerZ,
		Width:   *width,
		Height:  *height,
		Step:    *step,
		Upscale: *upscale,
		Legend:  *legend,
		Workers: *workers,
	}); err != nil {
		log.Error("biomemap failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, configPath, out string, o preview.Options) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	params, err := cfg.ClassifierParams()
	if err != nil {
		return err
	}
	c, err := terrain.NewClassifier(params)
	if err != nil {
		return err
	}

	start := time.Now()
	img, err := preview.Render(ctx, c, o)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	log.Info("map written",
		"path", out,
		"layer", o.Layer,
		"size", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()),
		"took", time.Since(start).Round(time.Millisecond),
		"profile", profiling.TopN(3))
	return nil
}
