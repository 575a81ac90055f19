package engine

import "time"

// debouncePrune is how long a key is remembered after it was last seen.
const debouncePrune = 60 * time.Second

// Debouncer drops an event when another with the same key was accepted
// less than Window ago. A zero Window accepts everything.
type Debouncer struct {
	Window time.Duration

	now       func() time.Time
	lastSeen  map[string]time.Time
	lastPrune time.Time
}

// NewDebouncer returns a debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		Window:   window,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

// Accept reports whether the event with key should be handled.
func (d *Debouncer) Accept(key string) bool {
	if d == nil || d.Window <= 0 {
		return true
	}
	now := d.now()
	d.prune(now)

	if last, ok := d.lastSeen[key]; ok && now.Sub(last) < d.Window {
		return false
	}
	d.lastSeen[key] = now
	return true
}

// Clear forgets every key.
func (d *Debouncer) Clear() {
	if d == nil {
		return
	}
	d.lastSeen = make(map[string]time.Time)
}

func (d *Debouncer) prune(now time.Time) {
	if now.Sub(d.lastPrune) < debouncePrune {
		return
	}
	d.lastPrune = now
	for k, seen := range d.lastSeen {
		if now.Sub(seen) > debouncePrune {
			delete(d.lastSeen, k)
		}
	}
}
