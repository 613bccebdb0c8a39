// Command terrainview flies a camera over the streamed terrain grid.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"runtime"
	"time"

	"procterrain/internal/config"
	"procterrain/internal/viewer"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config (defaults when empty)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := glfw.Init(); err != nil {
		log.Error("init glfw", "err", err)
		os.Exit(1)
	}

	window, err := setupWindow(cfg.Viewer)
	if err != nil {
		glfw.Terminate()
		log.Error("create window", "err", err)
		os.Exit(1)
	}

	app, err := viewer.NewApp(context.Background(), window, cfg, log)
	if err != nil {
		glfw.Terminate()
		log.Error("start viewer", "err", err)
		os.Exit(1)
	}

	// On SIGINT the closer goroutine asks the render loop to stop and waits
	// for it to release the GL resources on this thread.
	loopDone, done := make(chan struct{}), make(chan struct{})
	closer.Bind(func() {
		select {
		case <-loopDone:
		default:
			window.SetShouldClose(true)
		}
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			log.Warn("render loop did not stop in time")
		}
	})

	app.Run()
	close(loopDone)

	app.Close()
	glfw.Terminate()
	close(done)
	log.Info("viewer closed")
	closer.Close()
}

func setupWindow(v config.ViewerConfig) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(v.Width, v.Height, v.Title, nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	// Initialize OpenGL bindings
	if err := gl.Init(); err != nil {
		window.Destroy()
		return nil, err
	}

	// Disable V-Sync; the viewer uses its own FPS limiter
	glfw.SwapInterval(0)
	return window, nil
}
