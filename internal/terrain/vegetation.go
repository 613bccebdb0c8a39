package terrain

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Footprint is the world-space x/z rectangle covered by one chunk.
type Footprint struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// Contains reports whether (x,z) lies inside the half-open rectangle.
func (f Footprint) Contains(x, z float64) bool {
	return x >= f.MinX && x < f.MaxX && z >= f.MinZ && z < f.MaxZ
}

// PlantKind identifies a vegetation model.
type PlantKind int

const (
	Spruce PlantKind = iota
	Cactus
	Shrub
)

func (k PlantKind) String() string {
	switch k {
	case Spruce:
		return "spruce"
	case Cactus:
		return "cactus"
	case Shrub:
		return "shrub"
	default:
		return "unknown"
	}
}

// Plant is one placed vegetation instance.
type Plant struct {
	Kind     PlantKind
	Position mgl32.Vec3
	Model    mgl32.Mat4
}

// plantRule is what grows in a biome and how densely.
type plantRule struct {
	kind    PlantKind
	density float64
	scale   float32
}

var plantRules = [BiomeCount]*plantRule{
	Woodland: {kind: Spruce, density: 0.35, scale: 1.0},
	Desert:   {kind: Cactus, density: 0.08, scale: 0.6},
	Tundra:   {kind: Shrub, density: 0.05, scale: 0.4},
}

const vegetationSeed = 0x7EE5

// VegetationBatch keeps the instance transforms of every chunk currently in
// the world. Populate and Remove match the grid's bake and eviction hooks.
type VegetationBatch struct {
	classifier *Classifier
	spacing    float64

	mu      sync.RWMutex
	byChunk map[Footprint][]Plant
	total   int
}

// NewVegetationBatch places candidates on a world-aligned lattice of the given spacing.
func NewVegetationBatch(c *Classifier, spacing float64) *VegetationBatch {
	if spacing <= 0 {
		spacing = 1
	}
	return &VegetationBatch{
		classifier: c,
		spacing:    spacing,
		byChunk:    make(map[Footprint][]Plant),
	}
}

// Populate places vegetation inside f. Populating the same footprint twice
// replaces the earlier placement. It returns the number of plants placed.
func (b *VegetationBatch) Populate(f Footprint) int {
	plants := b.place(f)

	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.byChunk[f]; ok {
		b.total -= len(old)
	}
	b.byChunk[f] = plants
	b.total += len(plants)
	return len(plants)
}

// Remove drops every plant placed for f and returns how many there were.
func (b *VegetationBatch) Remove(f Footprint) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := b.byChunk[f]
	if !ok {
		return 0
	}
	delete(b.byChunk, f)
	b.total -= len(old)
	return len(old)
}

// Len is the number of plants across all chunks.
func (b *VegetationBatch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Chunks is the number of populated footprints.
func (b *VegetationBatch) Chunks() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byChunk)
}

// Plants returns a copy of the plants placed for f.
func (b *VegetationBatch) Plants(f Footprint) []Plant {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Plant(nil), b.byChunk[f]...)
}

// Models collects the model matrices of one plant kind for instanced drawing.
func (b *VegetationBatch) Models(kind PlantKind) []mgl32.Mat4 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []mgl32.Mat4
	for _, plants := range b.byChunk {
		for _, p := range plants {
			if p.Kind == kind {
				out = append(out, p.Model)
			}
		}
	}
	return out
}

func (b *VegetationBatch) place(f Footprint) []Plant {
	var plants []Plant
	s := b.spacing
	ground := b.classifier.GroundLevel()

	// jitter can carry a point from the cell before the edge into f
	for gx := int64(math.Ceil(f.MinX/s)) - 1; float64(gx)*s < f.MaxX; gx++ {
		for gz := int64(math.Ceil(f.MinZ/s)) - 1; float64(gz)*s < f.MaxZ; gz++ {
			h := hash2(gx, gz, vegetationSeed)
			jitter := hash2(gx, gz, vegetationSeed+1)

			x := (float64(gx) + unitHash(jitter)*0.8) * s
			z := (float64(gz) + unitHash(jitter>>32)*0.8) * s
			if !f.Contains(x, z) {
				continue
			}

			kind := b.classifier.Classify(x, z)
			rule := plantRules[kind]
			if rule == nil || unitHash(h) >= rule.density {
				continue
			}

			y := b.classifier.HeightAt(x, z)
			if y <= ground {
				continue
			}

			pos := mgl32.Vec3{float32(x), float32(y), float32(z)}
			angle := float32(unitHash(h>>32) * 2 * math.Pi)
			scale := rule.scale * float32(0.8+0.4*unitHash(hash2(gx, gz, vegetationSeed+2)))
			model := mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).
				Mul4(mgl32.HomogRotate3DY(angle)).
				Mul4(mgl32.Scale3D(scale, scale, scale))

			plants = append(plants, Plant{Kind: rule.kind, Position: pos, Model: model})
		}
	}
	return plants
}
