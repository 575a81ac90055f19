package profiling

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Stopper ends a timed operation.
type Stopper interface {
	Stop()
}

// stat aggregates every observation under one name.
type stat struct {
	count int
	total time.Duration
	max   time.Duration
}

// Recorder collects handling durations by name, e.g. one name per event
// kind. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	started time.Time
	stats   map[string]*stat
}

var defaultRecorder = &Recorder{}

// Enable turns on the global recorder.
func Enable() {
	defaultRecorder.Enable()
}

// Start begins timing name on the global recorder. It is a no-op until
// Enable is called.
func Start(name string) Stopper {
	return defaultRecorder.Start(name)
}

// Summarize writes the global recorder's table to w.
func Summarize(w io.Writer) {
	defaultRecorder.Summarize(w)
}

// Enable starts recording.
func (r *Recorder) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enabled {
		return
	}
	r.enabled = true
	r.started = time.Now()
	r.stats = make(map[string]*stat)
}

// Start begins timing name.
func (r *Recorder) Start(name string) Stopper {
	r.mu.Lock()
	enabled := r.enabled
	r.mu.Unlock()
	if !enabled {
		return noopStopper{}
	}
	return &timer{recorder: r, name: name, start: time.Now()}
}

// Observe records one duration for name.
func (r *Recorder) Observe(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}
	s, ok := r.stats[name]
	if !ok {
		s = &stat{}
		r.stats[name] = s
	}
	s.count++
	s.total += d
	s.max = max(s.max, d)
}

// Count returns how many durations were recorded for name.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stats[name]; ok {
		return s.count
	}
	return 0
}

// Summarize prints one line per name, slowest total first.
func (r *Recorder) Summarize(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}

	names := make([]string, 0, len(r.stats))
	for name := range r.stats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := r.stats[names[i]], r.stats[names[j]]
		if a.total != b.total {
			return a.total > b.total
		}
		return names[i] < names[j]
	})

	fmt.Fprintf(w, "\n--- Timing Profile (%v) ---\n", time.Since(r.started).Round(time.Millisecond))
	for _, name := range names {
		s := r.stats[name]
		avg := s.total / time.Duration(s.count)
		fmt.Fprintf(w, "- %s: %d× avg %v max %v\n", name, s.count,
			avg.Round(time.Microsecond*100), s.max.Round(time.Microsecond*100))
	}
	fmt.Fprintln(w, "--------------------")
}

type timer struct {
	recorder *Recorder
	name     string
	start    time.Time
}

func (t *timer) Stop() {
	t.recorder.Observe(t.name, time.Since(t.start))
}

// noopStopper is used when the recorder is disabled.
type noopStopper struct{}

func (noopStopper) Stop() {}
