package world

import (
	"fmt"

	"procterrain/internal/culling"
	"procterrain/internal/profiling"
	"procterrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLODLevels bounds the LOD chain: factors 1, 2, 4, 8 and 16.
const MaxLODLevels = 5

// DefaultLODDistances are the distance thresholds, in chunk widths, for
// factors 1, 2, 4 and 8. Anything further uses 16.
var DefaultLODDistances = []float64{1.5, 2.5, 3.5, 5}

// Direction is the result of a movement check.
type Direction int

const (
	Inside Direction = iota
	Up
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Inside:
		return "inside"
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// offset is the unit step in chunk widths along x and z.
func (d Direction) offset() (dx, dz float64, ok bool) {
	switch d {
	case Up:
		return 0, -1, true
	case Down:
		return 0, 1, true
	case Left:
		return -1, 0, true
	case Right:
		return 1, 0, true
	default:
		return 0, 0, false
	}
}

// ChunkOptions is the chunk geometry shared by every cell of a grid.
type ChunkOptions struct {
	VerticesPerSide int     // interior vertices per side at LOD 1
	Spacing         float64 // vertex spacing at LOD 1
	SkirtDepth      float64
	MaxLOD          int
}

// Width is the world-space width of one chunk.
func (o ChunkOptions) Width() float64 {
	return float64(o.VerticesPerSide-1) * o.Spacing
}

func (o ChunkOptions) Validate() error {
	switch {
	case o.VerticesPerSide < 2:
		return fmt.Errorf("%w: chunk.vertices_per_side must be at least 2, got %d", ErrInvalidGrid, o.VerticesPerSide)
	case o.Spacing <= 0:
		return fmt.Errorf("%w: chunk.spacing must be positive, got %g", ErrInvalidGrid, o.Spacing)
	case o.MaxLOD < 1:
		return fmt.Errorf("%w: chunk.max_lod must be at least 1, got %d", ErrInvalidGrid, o.MaxLOD)
	}
	return nil
}

// levelSpec describes the level at factor lod, or reports false once the
// chain has ended.
func (o ChunkOptions) levelSpec(lod int, originX, originZ float64) (MeshSpec, bool) {
	span := o.VerticesPerSide - 1
	if lod > o.MaxLOD || lod > span || span%lod != 0 {
		return MeshSpec{}, false
	}
	return MeshSpec{
		Interior:   span/lod + 1,
		LOD:        lod,
		OriginX:    originX,
		OriginZ:    originZ,
		Stride:     o.Spacing * float64(lod),
		SkirtDepth: o.SkirtDepth,
	}, true
}

// Chunk is one cell of the grid and all of its LOD levels.
type Chunk struct {
	ID               int
	OriginX, OriginZ float64

	width      float64
	levels     [MaxLODLevels]*Mesh
	visible    bool
	straddling bool
}

// BuildChunk builds the whole LOD chain for the cell at (originX, originZ).
// It is safe to call from worker goroutines.
func BuildChunk(opts ChunkOptions, originX, originZ float64, id int, c *terrain.Classifier) *Chunk {
	defer profiling.Track("world.BuildChunk")()

	ch := &Chunk{
		ID:      id,
		OriginX: originX,
		OriginZ: originZ,
		width:   opts.Width(),
		visible: true,
	}
	lod := 1
	for i := range ch.levels {
		spec, ok := opts.levelSpec(lod, originX, originZ)
		if !ok {
			break
		}
		ch.levels[i] = BuildMesh(spec, c)
		lod *= 2
	}
	return ch
}

// Levels returns the built levels, finest first.
func (ch *Chunk) Levels() []*Mesh {
	out := make([]*Mesh, 0, MaxLODLevels)
	for _, m := range ch.levels {
		if m == nil {
			break
		}
		out = append(out, m)
	}
	return out
}

// Finest returns the LOD 1 mesh.
func (ch *Chunk) Finest() *Mesh { return ch.levels[0] }

// Level returns the mesh for factor lod, or the coarsest level not above it.
// Requests past the end of the chain get the coarsest level.
func (ch *Chunk) Level(lod int) *Mesh {
	best := ch.levels[0]
	for _, m := range ch.levels {
		if m != nil && m.LOD <= lod {
			best = m
		}
	}
	return best
}

// Width is the chunk's world-space width.
func (ch *Chunk) Width() float64 { return ch.width }

// Bounds is the finest level's bounding box.
func (ch *Chunk) Bounds() culling.Box { return ch.levels[0].Box }

// Center is the middle of the bounding box.
func (ch *Chunk) Center() mgl32.Vec3 { return ch.Bounds().Center() }

// Footprint is the x/z rectangle the chunk covers.
func (ch *Chunk) Footprint() terrain.Footprint {
	return terrain.Footprint{
		MinX: ch.OriginX, MaxX: ch.OriginX + ch.width,
		MinZ: ch.OriginZ, MaxZ: ch.OriginZ + ch.width,
	}
}

func (ch *Chunk) Visible() bool { return ch.visible }

func (ch *Chunk) SetVisible(v bool) { ch.visible = v }

func (ch *Chunk) Straddling() bool { return ch.straddling }

func (ch *Chunk) SetStraddling(s bool) { ch.straddling = s }

// CheckMovement reports which edge of the chunk p has crossed, if any.
func (ch *Chunk) CheckMovement(p mgl32.Vec3) Direction {
	m := ch.levels[0]
	first := m.Vertices[0].Position
	last := m.Vertices[len(m.Vertices)-1].Position

	switch {
	case p.Z() < first.Z():
		return Up
	case p.Z() > last.Z():
		return Down
	case p.X() < first.X():
		return Left
	case p.X() > last.X():
		return Right
	default:
		return Inside
	}
}

// bake hands every level to b. A failed level keeps a nil handle.
func (ch *Chunk) bake(b Baker) (failed int, err error) {
	for _, m := range ch.levels {
		if m == nil {
			break
		}
		h, bakeErr := b.Bake(m)
		if bakeErr != nil {
			failed++
			err = fmt.Errorf("bake chunk %d lod %d: %w", ch.ID, m.LOD, bakeErr)
			continue
		}
		m.handle = h
	}
	return failed, err
}

// release frees every baked handle.
func (ch *Chunk) release() {
	for _, m := range ch.levels {
		if m != nil && m.handle != nil {
			m.handle.Release()
			m.handle = nil
		}
	}
}

// SelectLOD picks a LOD factor from the distance between observer and
// center, measured in chunk widths. thresholds must be ascending; the first
// bound is exclusive and the rest inclusive.
func SelectLOD(observer, center mgl32.Vec3, width float64, thresholds []float64) int {
	d := float64(observer.Sub(center).Len()) / width
	lod := 1
	for i, t := range thresholds {
		if d < t || (i > 0 && d == t) {
			return lod
		}
		lod *= 2
	}
	return lod
}
