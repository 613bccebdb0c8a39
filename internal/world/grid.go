package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"procterrain/internal/culling"
	"procterrain/internal/profiling"
	"procterrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidGrid is returned for unusable grid or chunk options.
var ErrInvalidGrid = errors.New("world: invalid grid options")

// GridOptions configures a Grid.
type GridOptions struct {
	Size  int // chunks per side; even values are bumped to the next odd
	Chunk ChunkOptions

	Workers      int       // build goroutines, 0 for one per CPU
	LODDistances []float64 // nil for DefaultLODDistances

	// OnBaked runs once for every chunk that enters the grid, after baking.
	OnBaked func(terrain.Footprint)
	// OnEvicted runs once for every chunk that leaves the grid.
	OnEvicted func(terrain.Footprint)

	Logger *slog.Logger
}

// GridStats counts streaming activity since the grid was created.
type GridStats struct {
	Waves            int
	Integrated       int
	Evicted          int
	SkippedCrossings int
	BakeFailures     int
	Queued           int // build jobs waiting for a worker
	Culling          culling.Stats
}

// DrawItem is one mesh the renderer should draw this frame.
type DrawItem struct {
	Chunk *Chunk
	Mesh  *Mesh
}

// Grid keeps a square of chunks centered on the observer and streams new
// rows or columns in as the observer crosses chunk edges. Update, Settle,
// Cull, DrawList and Close must be called from one goroutine, the one that
// owns the Baker.
type Grid struct {
	size         int
	width        float64
	opts         GridOptions
	lodDistances []float64

	classifier *terrain.Classifier
	baker      Baker
	log        *slog.Logger
	pool       *WorkerPool

	mu       sync.Mutex
	chunks   []*Chunk // row-major, index == Chunk.ID
	current  *Chunk
	moves    []Direction
	inflight Direction
	drained  int
	wave     int
	closed   bool
	stats    GridStats
}

// NewGrid builds and bakes the initial grid around the origin and starts the
// build workers.
func NewGrid(ctx context.Context, opts GridOptions, c *terrain.Classifier, baker Baker) (*Grid, error) {
	if c == nil || baker == nil {
		return nil, fmt.Errorf("%w: classifier and baker are required", ErrInvalidGrid)
	}
	if err := opts.Chunk.Validate(); err != nil {
		return nil, err
	}
	lodDistances := opts.LODDistances
	if lodDistances == nil {
		lodDistances = DefaultLODDistances
	}
	for i, d := range lodDistances {
		if d <= 0 || (i > 0 && d <= lodDistances[i-1]) {
			return nil, fmt.Errorf("%w: lod distances must be positive and ascending, got %v", ErrInvalidGrid, lodDistances)
		}
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	size := opts.Size
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	if size != opts.Size {
		log.Warn("grid size adjusted to an odd count", "requested", opts.Size, "size", size)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = max(runtime.NumCPU(), 1)
	}

	g := &Grid{
		size:         size,
		width:        opts.Chunk.Width(),
		opts:         opts,
		lodDistances: lodDistances,
		classifier:   c,
		baker:        baker,
		log:          log,
		chunks:       make([]*Chunk, size*size),
		drained:      size,
	}

	if err := g.fill(ctx, workers); err != nil {
		return nil, err
	}
	for _, ch := range g.chunks {
		g.bake(ch)
		if opts.OnBaked != nil {
			opts.OnBaked(ch.Footprint())
		}
	}
	g.current = g.chunks[size*size/2]

	g.pool = NewWorkerPool(workers, size, func(job BuildJob) *Chunk {
		return BuildChunk(g.opts.Chunk, job.OriginX, job.OriginZ, -1, g.classifier)
	})

	log.Info("terrain grid ready",
		"size", size,
		"chunk_width", g.width,
		"workers", workers,
		"levels", len(g.current.Levels()))
	return g, nil
}

// fill builds every initial chunk in parallel. The center chunk covers the
// origin.
func (g *Grid) fill(ctx context.Context, workers int) error {
	defer profiling.Track("world.Grid.fill")()

	start := -g.width * float64(g.size) / 2
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for id := range g.chunks {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			row, col := id/g.size, id%g.size
			x := start + float64(col)*g.width
			z := start + float64(row)*g.width
			g.chunks[id] = BuildChunk(g.opts.Chunk, x, z, id, g.classifier)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("initial grid fill: %w", err)
	}
	return nil
}

// Update runs one frame of streaming: detect a crossing, start a wave if
// none is in flight, and integrate whatever the workers have finished.
// It does nothing once the grid is closed.
func (g *Grid) Update(observer mgl32.Vec3) {
	defer profiling.Track("world.Grid.Update")()

	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()
	if closed {
		return
	}

	g.detect(observer)
	g.startWave()
	for {
		select {
		case res := <-g.pool.Results():
			g.integrate(res)
		default:
			return
		}
	}
}

// Settle blocks until no moves are queued and the last wave is integrated.
func (g *Grid) Settle(ctx context.Context) error {
	for {
		g.startWave()
		if g.idle() {
			return nil
		}
		select {
		case res := <-g.pool.Results():
			g.integrate(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *Grid) idle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed || (g.drained == g.size && len(g.moves) == 0)
}

// detect moves current to the neighbor the observer walked into and queues
// the direction.
func (g *Grid) detect(observer mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// lanes are half shifted; ids across lanes are not comparable yet
	if g.drained > 0 && g.drained < g.size {
		return
	}

	dir := g.current.CheckMovement(observer)
	if dir == Inside {
		return
	}
	next, ok := g.neighbor(g.current.ID, dir)
	if !ok {
		g.stats.SkippedCrossings++
		g.log.Debug("crossing outside the grid ignored", "current", g.current.ID, "direction", dir)
		return
	}

	pending := make([]Direction, 0, len(g.moves)+2)
	if g.drained == 0 {
		pending = append(pending, g.inflight)
	}
	pending = append(append(pending, g.moves...), dir)
	if !g.survives(next, pending) {
		g.stats.SkippedCrossings++
		g.log.Debug("crossing deferred until queued waves land", "current", g.current.ID, "direction", dir)
		return
	}

	g.current = g.chunks[next]
	g.moves = append(g.moves, dir)
}

// survives reports whether the chunk in slot stays inside the grid while
// the given waves are applied in order.
func (g *Grid) survives(slot int, waves []Direction) bool {
	row, col := slot/g.size, slot%g.size
	for _, d := range waves {
		switch d {
		case Up:
			row++
		case Down:
			row--
		case Left:
			col++
		case Right:
			col--
		}
		if row < 0 || row >= g.size || col < 0 || col >= g.size {
			return false
		}
	}
	return true
}

// neighbor returns the slot next to id in direction dir.
func (g *Grid) neighbor(id int, dir Direction) (int, bool) {
	n := g.size
	switch dir {
	case Up:
		return id - n, id-n >= 0
	case Down:
		return id + n, id+n < n*n
	case Left:
		return id - 1, id%n > 0
	case Right:
		return id + 1, id%n < n-1
	default:
		return 0, false
	}
}

// startWave submits one job per lane once the previous wave has drained.
func (g *Grid) startWave() {
	g.mu.Lock()
	if g.closed || g.drained != g.size || len(g.moves) == 0 {
		g.mu.Unlock()
		return
	}
	dir := g.moves[0]
	g.moves = g.moves[1:]

	dx, dz, ok := dir.offset()
	if !ok {
		g.mu.Unlock()
		g.log.Warn("dropping move with invalid direction", "direction", dir)
		return
	}

	g.drained = 0
	g.inflight = dir
	g.wave++
	g.stats.Waves++
	jobs := make([]BuildJob, g.size)
	for lane := range jobs {
		lead := g.chunks[g.leadingSlot(dir, lane)]
		jobs[lane] = BuildJob{
			Wave:    g.wave,
			Dir:     dir,
			Lane:    lane,
			OriginX: lead.OriginX + dx*g.width,
			OriginZ: lead.OriginZ + dz*g.width,
		}
	}
	wave := g.wave
	g.mu.Unlock()

	g.log.Debug("streaming wave", "wave", wave, "direction", dir, "jobs", len(jobs))
	for _, job := range jobs {
		g.pool.SubmitJobBlocking(job)
	}
}

// leadingSlot is the slot of lane that faces the direction of travel.
func (g *Grid) leadingSlot(dir Direction, lane int) int {
	n := g.size
	switch dir {
	case Up:
		return lane
	case Down:
		return lane + n*(n-1)
	case Left:
		return lane * n
	default:
		return lane*n + n - 1
	}
}

// integrate bakes a finished chunk and shifts it into its lane. Results from
// any wave are integrated.
func (g *Grid) integrate(res BuildResult) {
	defer profiling.Track("world.Grid.integrate")()

	ch := res.Chunk
	g.bake(ch)

	g.mu.Lock()
	evicted := g.shiftLane(res.Job.Dir, res.Job.Lane, ch)
	g.drained++
	g.stats.Integrated++
	if evicted != nil {
		g.stats.Evicted++
	}
	g.mu.Unlock()

	if evicted == nil {
		ch.release()
		return
	}
	evicted.release()
	if g.opts.OnEvicted != nil {
		g.opts.OnEvicted(evicted.Footprint())
	}
	if g.opts.OnBaked != nil {
		g.opts.OnBaked(ch.Footprint())
	}
}

// shiftLane moves every chunk of lane one slot away from the leading edge,
// puts ch in the leading slot and returns the chunk pushed out the back.
// Callers hold g.mu.
func (g *Grid) shiftLane(dir Direction, lane int, ch *Chunk) *Chunk {
	n := g.size
	var slot func(i int) int // i counts from the leading edge
	switch dir {
	case Up:
		slot = func(i int) int { return lane + n*i }
	case Down:
		slot = func(i int) int { return lane + n*(n-1-i) }
	case Left:
		slot = func(i int) int { return lane*n + i }
	case Right:
		slot = func(i int) int { return lane*n + n - 1 - i }
	default:
		g.log.Warn("result with invalid direction", "direction", dir, "lane", lane)
		return nil
	}
	if lane < 0 || lane >= n {
		g.log.Warn("result for unknown lane", "direction", dir, "lane", lane)
		return nil
	}

	evicted := g.chunks[slot(n-1)]
	for i := n - 1; i > 0; i-- {
		moved := g.chunks[slot(i-1)]
		moved.ID = slot(i)
		g.chunks[slot(i)] = moved
	}
	ch.ID = slot(0)
	g.chunks[slot(0)] = ch
	return evicted
}

func (g *Grid) bake(ch *Chunk) {
	failed, err := ch.bake(g.baker)
	if err != nil {
		g.mu.Lock()
		g.stats.BakeFailures += failed
		g.mu.Unlock()
		g.log.Warn("chunk bake failed", "chunk", ch.ID, "levels", failed, "err", err)
	}
}

// Cull flags every chunk against the planes.
func (g *Grid) Cull(planes []culling.Plane) culling.Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := culling.Cull(g.chunks, planes)
	g.stats.Culling = s
	return s
}

// SetAllVisible marks every chunk visible or hidden, bypassing culling.
func (g *Grid) SetAllVisible(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range g.chunks {
		ch.SetVisible(v)
		ch.SetStraddling(false)
	}
}

// DrawList returns the meshes to draw. With useLOD each visible chunk picks
// its level by distance to the observer, otherwise the finest level is used.
// Meshes without a baked handle are skipped.
func (g *Grid) DrawList(observer mgl32.Vec3, useLOD bool) []DrawItem {
	defer profiling.Track("world.Grid.DrawList")()

	g.mu.Lock()
	defer g.mu.Unlock()
	items := make([]DrawItem, 0, len(g.chunks))
	for _, ch := range g.chunks {
		if !ch.Visible() {
			continue
		}
		lod := 1
		if useLOD {
			lod = SelectLOD(observer, ch.Center(), g.width, g.lodDistances)
		}
		m := ch.Level(lod)
		if m == nil || m.Handle() == nil {
			continue
		}
		items = append(items, DrawItem{Chunk: ch, Mesh: m})
	}
	return items
}

// PointOnTerrain returns the surface point at (x,z).
func (g *Grid) PointOnTerrain(x, z float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(x), float32(g.classifier.HeightAt(x, z)), float32(z)}
}

// Chunks returns a snapshot of the slot array.
func (g *Grid) Chunks() []*Chunk {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Chunk(nil), g.chunks...)
}

// Current returns the chunk the observer is in.
func (g *Grid) Current() *Chunk {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Size is the number of chunks per side.
func (g *Grid) Size() int { return g.size }

// ChunkWidth is the world-space width of one chunk.
func (g *Grid) ChunkWidth() float64 { return g.width }

// Classifier returns the classifier the grid samples.
func (g *Grid) Classifier() *terrain.Classifier { return g.classifier }

func (g *Grid) Stats() GridStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.stats
	s.Queued = g.pool.QueueLength()
	return s
}

// Close stops the workers and releases every baked handle. It is safe to
// call more than once.
func (g *Grid) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	g.pool.Shutdown()

	chunks := g.Chunks()
	for _, ch := range chunks {
		ch.release()
		if g.opts.OnEvicted != nil {
			g.opts.OnEvicted(ch.Footprint())
		}
	}
	stats := g.Stats()
	g.log.Info("terrain grid closed", "waves", stats.Waves, "integrated", stats.Integrated)
}
