package core

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// Profiler records CPU wall time per named scope (one scope per pass) and
// free-form counters. Scopes keep their first-seen order for display.
type Profiler struct {
	Scopes map[string]time.Duration
	Totals map[string]time.Duration
	Counts map[string]int
	Order  []string
	Frames int

	starts map[string]time.Time
	now    func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes: make(map[string]time.Duration),
		Totals: make(map[string]time.Duration),
		Counts: make(map[string]int),
		starts: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.starts[name] = p.now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) time.Duration {
	start, ok := p.starts[name]
	if !ok {
		return 0
	}
	d := p.now().Sub(start)
	p.Scopes[name] = d
	p.Totals[name] += d
	delete(p.starts, name)
	return d
}

// Scope times fn under name.
func (p *Profiler) Scope(name string, fn func() error) error {
	p.BeginScope(name)
	defer p.EndScope(name)
	return fn()
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *Profiler) EndFrame() { p.Frames++ }

// Reset clears the last-frame timings but keeps totals and order.
func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

func (p *Profiler) Average(name string) time.Duration {
	if p.Frames == 0 {
		return 0
	}
	return p.Totals[name] / time.Duration(p.Frames)
}

// Timings returns a copy of the last frame's scope durations.
func (p *Profiler) Timings() map[string]time.Duration {
	out := make(map[string]time.Duration, len(p.Scopes))
	for k, v := range p.Scopes {
		out[k] = v
	}
	return out
}

func (p *Profiler) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frames %d\n", p.Frames)
	for _, name := range p.Order {
		fmt.Fprintf(&sb, "  %-10s %7.2f ms (avg %.2f ms)\n", name,
			float64(p.Scopes[name].Microseconds())/1000, float64(p.Average(name).Microseconds())/1000)
	}
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-10s %d\n", k, p.Counts[k])
	}
	return sb.String()
}

// FrameStats summarizes the most recent frame of a backend.
type FrameStats struct {
	Backend  string
	Frame    uint64
	Counts   [len(ShapeKinds)]int
	Capacity [len(ShapeKinds)]uint32
	Grows    int
	Timings  map[string]time.Duration
}

func (s FrameStats) String() string {
	return fmt.Sprintf("%s frame %d: %d cubes (cap %d), %d spheres (cap %d), %d grows",
		s.Backend, s.Frame,
		s.Counts[ShapeCube], s.Capacity[ShapeCube],
		s.Counts[ShapeSphere], s.Capacity[ShapeSphere], s.Grows)
}
