package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU profiler. Worker goroutines and the main loop both report
// into the same frame totals.

type entry struct {
	total time.Duration
	calls int
}

var (
	mu    sync.Mutex
	frame = make(map[string]*entry)
)

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("world.Grid.Update")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		e := frame[name]
		if e == nil {
			e = &entry{}
			frame[name] = e
		}
		e.total += d
		e.calls++
		mu.Unlock()
	}
}

// ResetFrame clears the current totals. Call at the start of each frame.
func ResetFrame() {
	mu.Lock()
	clear(frame)
	mu.Unlock()
}

// Stat is the accumulated time and call count of one name.
type Stat struct {
	Name  string
	Total time.Duration
	Calls int
}

// Snapshot returns the current totals sorted by descending time.
func Snapshot() []Stat {
	mu.Lock()
	out := make([]Stat, 0, len(frame))
	for k, e := range frame {
		out = append(out, Stat{Name: k, Total: e.total, Calls: e.calls})
	}
	mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n most expensive names of the frame.
// Example: "world.Grid.integrate:4.2ms(3), culling.Cull:0.1ms(1)"
func TopN(n int) string {
	stats := Snapshot()
	if n > len(stats) {
		n = len(stats)
	}
	parts := make([]string, 0, n)
	for _, s := range stats[:n] {
		ms := float64(s.Total.Microseconds()) / 1000
		parts = append(parts, fmt.Sprintf("%s:%.1fms(%d)", s.Name, ms, s.Calls))
	}
	return strings.Join(parts, ", ")
}
