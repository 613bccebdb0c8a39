package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BiomeKind tags a biome. The set is closed.
type BiomeKind int

const (
	Ice BiomeKind = iota
	Tundra
	Woodland
	Desert

	BiomeCount = 4
)

// BiomeKinds lists every kind in table order.
var BiomeKinds = [BiomeCount]BiomeKind{Ice, Tundra, Woodland, Desert}

func (k BiomeKind) String() string {
	switch k {
	case Ice:
		return "ice"
	case Tundra:
		return "tundra"
	case Woodland:
		return "woodland"
	case Desert:
		return "desert"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the four known kinds.
func (k BiomeKind) Valid() bool {
	return k >= Ice && k <= Desert
}

// ParseBiomeKind is the inverse of String.
func ParseBiomeKind(s string) (BiomeKind, bool) {
	for _, k := range BiomeKinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Color is the diagnostic color used when drawing by biome.
func (k BiomeKind) Color() mgl32.Vec3 {
	switch k {
	case Ice:
		return mgl32.Vec3{0.3, 1.0, 1.0}
	case Tundra:
		return mgl32.Vec3{0.3, 1.0, 0.7}
	case Woodland:
		return mgl32.Vec3{0.15, 0.5, 0.08}
	case Desert:
		return mgl32.Vec3{1.0, 0.7, 0.1}
	default:
		return mgl32.Vec3{1, 0, 1}
	}
}

// Temperature is the heat bucket of the classification table.
type Temperature int

const (
	Cold Temperature = iota
	Hot
)

func (t Temperature) String() string {
	if t == Cold {
		return "cold"
	}
	return "hot"
}

func (t Temperature) Color() mgl32.Vec3 {
	if t == Cold {
		return mgl32.Vec3{0, 0.5, 1}
	}
	return mgl32.Vec3{1, 0.1, 0}
}

// Moisture is the humidity bucket of the classification table.
type Moisture int

const (
	Dry Moisture = iota
	Wet
)

func (m Moisture) String() string {
	if m == Dry {
		return "dry"
	}
	return "wet"
}

func (m Moisture) Color() mgl32.Vec3 {
	if m == Dry {
		return mgl32.Vec3{0.2, 1, 0.2}
	}
	return mgl32.Vec3{0, 0.5, 1}
}

// Biome is one entry of the classifier's biome list. Its height field is
// added on top of the shared tectonic field.
type Biome struct {
	Kind   BiomeKind
	Heat   float64 // anchor in weather space
	Moist  float64
	Offset float64
	field  *NoiseField
}

// Anchor returns the biome's position in (heat, moisture) space.
func (b *Biome) Anchor() (heat, moisture float64) { return b.Heat, b.Moist }

// HeightAt is the biome's own surface at (x,z) given the shared tectonic value.
func (b *Biome) HeightAt(tectonic, x, z float64) float64 {
	return tectonic + b.Offset + b.field.Evaluate(x, z)
}
