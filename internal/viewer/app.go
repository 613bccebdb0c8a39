// Package viewer is the interactive fly-through window over a streamed terrain grid.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"procterrain/internal/config"
	"procterrain/internal/culling"
	"procterrain/internal/input"
	"procterrain/internal/profiling"
	"procterrain/internal/render"
	"procterrain/internal/terrain"
	"procterrain/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	cameraClearance = 2
	statsInterval   = 5 * time.Second
)

var (
	boxColor       = mgl32.Vec3{1, 1, 0}
	straddleColor  = mgl32.Vec3{1, 0.3, 0}
	currentBoxTint = mgl32.Vec3{0, 1, 1}
)

// App owns the window, the grid and the renderers. All methods run on the
// goroutine that owns the GL context.
type App struct {
	window *glfw.Window
	input  *input.InputManager
	log    *slog.Logger

	grid       *world.Grid
	baker      *render.Baker
	vegetation *terrain.VegetationBatch

	terrain *render.TerrainRenderer
	boxes   *render.BoxRenderer
	plants  *render.PlantRenderer

	camera     *Camera
	fpsLimiter *FPSLimiter
	slowFrame  time.Duration

	lastTime  time.Time
	lastStats time.Time
	frames    int
	closed    bool
}

// NewApp builds the grid around the origin and the GL resources. The
// window's context must be current and gl.Init must have run.
func NewApp(ctx context.Context, window *glfw.Window, cfg *config.Config, log *slog.Logger) (*App, error) {
	params, err := cfg.ClassifierParams()
	if err != nil {
		return nil, err
	}
	classifier, err := terrain.NewClassifier(params)
	if err != nil {
		return nil, err
	}
	config.ApplyViewer(cfg.Viewer, cfg.LOD)

	a := &App{
		window:     window,
		input:      input.NewInputManager(),
		log:        log,
		baker:      render.NewBaker(),
		vegetation: terrain.NewVegetationBatch(classifier, cfg.Terrain.VegetationSpacing),
		fpsLimiter: NewFPSLimiter(),
		slowFrame:  cfg.SlowFrame(),
	}

	if a.terrain, err = render.NewTerrainRenderer(); err != nil {
		return nil, err
	}
	if a.boxes, err = render.NewBoxRenderer(); err != nil {
		a.Close()
		return nil, err
	}
	if a.plants, err = render.NewPlantRenderer(); err != nil {
		a.Close()
		return nil, err
	}

	opts := cfg.GridOptions()
	opts.Logger = log
	opts.OnBaked = func(f terrain.Footprint) { a.vegetation.Populate(f) }
	opts.OnEvicted = func(f terrain.Footprint) { a.vegetation.Remove(f) }

	start := time.Now()
	if a.grid, err = world.NewGrid(ctx, opts, classifier, a.baker); err != nil {
		a.Close()
		return nil, fmt.Errorf("build terrain grid: %w", err)
	}
	log.Info("terrain ready",
		"chunks", a.grid.Size()*a.grid.Size(),
		"meshes", a.baker.Live(),
		"plants", a.vegetation.Len(),
		"took", time.Since(start).Round(time.Millisecond))

	width, height := window.GetSize()
	a.camera = NewCamera(width, height, cfg.Viewer.FOV, cfg.Viewer.MoveSpeed, float64(cfg.Viewer.MouseSensitivity))
	center := a.grid.Current().Center()
	a.camera.Position = a.grid.PointOnTerrain(float64(center.X()), float64(center.Z()))
	a.camera.KeepAbove(a.camera.Position.Y(), cameraClearance*4)

	a.installCallbacks()

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0.55, 0.7, 0.9, 1)

	a.lastTime = time.Now()
	a.lastStats = a.lastTime
	return a, nil
}

func (a *App) installCallbacks() {
	a.input.Install(a.window)
	a.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if w.GetInputMode(glfw.CursorMode) == glfw.CursorDisabled {
			a.camera.HandleMouseMovement(xpos, ypos)
		}
	})
	a.window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
		a.camera.Resize(w.GetSize())
	})
	a.window.SetFocusCallback(func(w *glfw.Window, focused bool) {
		if !focused {
			w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})
	a.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
}

// Run drives frames until the window closes.
func (a *App) Run() {
	for !a.window.ShouldClose() {
		a.tick()
	}
}

func (a *App) tick() {
	profiling.ResetFrame()
	startTick := time.Now()
	dt := startTick.Sub(a.lastTime).Seconds()
	a.lastTime = startTick

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	a.handleActions()
	a.updateCamera(dt)

	func() { defer profiling.Track("viewer.stream")(); a.grid.Update(a.camera.Position) }()

	a.render()

	func() { defer profiling.Track("glfw.SwapBuffers")(); a.window.SwapBuffers() }()
	a.input.PostUpdate()

	// Check if frame took too long
	if d := time.Since(startTick); d > a.slowFrame {
		a.log.Warn("slow frame", "took", d.Round(time.Microsecond), "top", profiling.TopN(5))
	}
	a.logStats()

	a.fpsLimiter.Wait()
}

func (a *App) handleActions() {
	im := a.input
	if im.JustPressed(input.ActionQuit) {
		a.window.SetShouldClose(true)
	}
	if im.JustPressed(input.ActionReleaseCursor) {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	if im.JustPressed(input.ActionCaptureCursor) {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		a.camera.ResetMouse()
	}

	toggles := []struct {
		action input.Action
		name   string
		toggle func() bool
	}{
		{input.ActionToggleCulling, "culling", config.ToggleCulling},
		{input.ActionToggleLOD, "lod", config.ToggleLOD},
		{input.ActionToggleBoxes, "bounding_boxes", config.ToggleBoundingBoxes},
		{input.ActionToggleVegetation, "vegetation", config.ToggleVegetation},
		{input.ActionToggleWireframe, "wireframe", config.ToggleWireframe},
	}
	for _, t := range toggles {
		if im.JustPressed(t.action) {
			a.log.Info("render toggle", t.name, t.toggle())
		}
	}

	for i, act := range input.ColorActions {
		if im.JustPressed(act) {
			config.SetColorMode(config.ColorMode(i))
			a.log.Info("color mode", "mode", config.GetColorMode())
		}
	}
}

func (a *App) updateCamera(dt float64) {
	im := a.input
	a.camera.Move(dt,
		im.Axis(input.ActionMoveForward, input.ActionMoveBackward),
		im.Axis(input.ActionMoveRight, input.ActionMoveLeft),
		im.Axis(input.ActionMoveUp, input.ActionMoveDown),
		im.IsActive(input.ActionBoost))

	p := a.camera.Position
	ground := a.grid.PointOnTerrain(float64(p.X()), float64(p.Z()))
	a.camera.KeepAbove(ground.Y(), cameraClearance)
}

func (a *App) render() {
	defer profiling.Track("render.Frame")()

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	view := a.camera.ViewMatrix()
	proj := a.camera.ProjectionMatrix()

	if config.GetCulling() {
		a.grid.Cull(a.camera.Planes())
	} else {
		a.grid.SetAllVisible(true)
	}

	items := a.grid.DrawList(a.camera.Position, config.GetLOD())
	a.terrain.Draw(render.Frame{
		View:      view,
		Proj:      proj,
		Items:     items,
		ColorMode: config.GetColorMode(),
		Wireframe: config.GetWireframe(),
	})

	if config.GetVegetation() {
		a.plants.Draw(a.vegetation, view, proj)
	}

	if config.GetBoundingBoxes() {
		a.drawBoxes(items, view, proj)
	}
	a.frames++
}

func (a *App) drawBoxes(items []world.DrawItem, view, proj mgl32.Mat4) {
	var plain, straddling, current []culling.Box
	cur := a.grid.Current()
	for _, it := range items {
		switch {
		case it.Chunk == cur:
			current = append(current, it.Chunk.Bounds())
		case it.Chunk.Straddling():
			straddling = append(straddling, it.Chunk.Bounds())
		default:
			plain = append(plain, it.Chunk.Bounds())
		}
	}
	a.boxes.Draw(plain, view, proj, boxColor)
	a.boxes.Draw(straddling, view, proj, straddleColor)
	a.boxes.Draw(current, view, proj, currentBoxTint)
}

func (a *App) logStats() {
	if time.Since(a.lastStats) < statsInterval {
		return
	}
	s := a.grid.Stats()
	elapsed := time.Since(a.lastStats).Seconds()
	a.log.Info("frame stats",
		"fps", int(float64(a.frames)/elapsed),
		"waves", s.Waves,
		"integrated", s.Integrated,
		"skipped_crossings", s.SkippedCrossings,
		"queued_jobs", s.Queued,
		"bake_failures", s.BakeFailures,
		"visible", s.Culling.Visible,
		"culled", s.Culling.Culled,
		"straddling", s.Culling.Straddling,
		"meshes", a.baker.Live(),
		"plants", a.vegetation.Len())
	a.frames = 0
	a.lastStats = time.Now()
}

// Close releases the grid and every GL object. Safe to call more than once.
func (a *App) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.grid != nil {
		a.grid.Close()
	}
	if a.plants != nil {
		a.plants.Delete()
	}
	if a.boxes != nil {
		a.boxes.Delete()
	}
	if a.terrain != nil {
		a.terrain.Delete()
	}
}
