package config

import "sync"

// ColorMode selects which vertex color the terrain shader uses.
type ColorMode int

const (
	ColorBlend ColorMode = iota
	ColorBiome
	ColorHeat
	ColorMoisture
	ColorNormals
	ColorLOD

	colorModeCount
)

var colorModeNames = [colorModeCount]string{"blend", "biome", "heat", "moisture", "normals", "lod"}

func (m ColorMode) String() string {
	if m < 0 || m >= colorModeCount {
		return "unknown"
	}
	return colorModeNames[m]
}

// ParseColorMode is the inverse of String.
func ParseColorMode(s string) (ColorMode, bool) {
	for i, name := range colorModeNames {
		if name == s {
			return ColorMode(i), true
		}
	}
	return ColorBlend, false
}

// RenderSettings holds the toggles the viewer flips at runtime
type RenderSettings struct {
	mu            sync.RWMutex
	culling       bool
	lod           bool
	boundingBoxes bool
	vegetation    bool
	wireframe     bool
	colorMode     ColorMode
	fpsLimit      int
}

var globalRenderSettings = &RenderSettings{
	culling:    true,
	lod:        true,
	vegetation: true,
	fpsLimit:   120,
}

// ApplyViewer copies the viewer section into the runtime settings.
func ApplyViewer(v ViewerConfig, lod LODConfig) {
	mode, _ := ParseColorMode(v.ColorMode)
	globalRenderSettings.mu.Lock()
	globalRenderSettings.culling = v.Culling
	globalRenderSettings.lod = lod.Enabled
	globalRenderSettings.boundingBoxes = v.BoundingBoxes
	globalRenderSettings.vegetation = v.Vegetation
	globalRenderSettings.colorMode = mode
	globalRenderSettings.mu.Unlock()
	SetFPSLimit(v.FPSLimit)
}

// GetCulling returns whether frustum culling is on
func GetCulling() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.culling
}

// ToggleCulling flips frustum culling and returns the new state
func ToggleCulling() bool {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.culling = !globalRenderSettings.culling
	return globalRenderSettings.culling
}

// GetLOD returns whether distance LOD is on
func GetLOD() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.lod
}

// ToggleLOD flips distance LOD and returns the new state
func ToggleLOD() bool {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.lod = !globalRenderSettings.lod
	return globalRenderSettings.lod
}

// GetBoundingBoxes returns whether chunk boxes are drawn
func GetBoundingBoxes() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.boundingBoxes
}

// ToggleBoundingBoxes flips chunk box drawing and returns the new state
func ToggleBoundingBoxes() bool {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.boundingBoxes = !globalRenderSettings.boundingBoxes
	return globalRenderSettings.boundingBoxes
}

// GetVegetation returns whether plants are drawn
func GetVegetation() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.vegetation
}

// ToggleVegetation flips plant drawing and returns the new state
func ToggleVegetation() bool {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.vegetation = !globalRenderSettings.vegetation
	return globalRenderSettings.vegetation
}

// GetWireframe returns whether terrain is drawn as lines
func GetWireframe() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.wireframe
}

// ToggleWireframe flips line drawing and returns the new state
func ToggleWireframe() bool {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.wireframe = !globalRenderSettings.wireframe
	return globalRenderSettings.wireframe
}

// GetColorMode returns the active terrain color mode
func GetColorMode() ColorMode {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.colorMode
}

// SetColorMode sets the terrain color mode, ignoring unknown modes
func SetColorMode(m ColorMode) {
	if m < 0 || m >= colorModeCount {
		return
	}
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.colorMode = m
}

// GetFPSLimit returns the frame cap, 0 for uncapped
func GetFPSLimit() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.fpsLimit
}

// SetFPSLimit sets the frame cap
func SetFPSLimit(fps int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()

	// Clamp to reasonable values; 0 disables the cap
	if fps < 0 {
		fps = 0
	}
	if fps > 0 && fps < 15 {
		fps = 15
	}
	if fps > 1000 {
		fps = 1000
	}

	globalRenderSettings.fpsLimit = fps
}
