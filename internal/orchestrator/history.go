package orchestrator

// DefaultHistorySize bounds a FocusHistory built with a non-positive size.
const DefaultHistorySize = 20

// FocusHistory is the bounded list of recently focused windows of one
// workspace, most recent first, with a cursor for walking backwards.
type FocusHistory struct {
	max     int
	entries []int64
	cursor  int
}

// NewFocusHistory returns an empty history keeping at most max entries.
func NewFocusHistory(max int) *FocusHistory {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &FocusHistory{max: max}
}

// Push records a focus. A window already in the history moves to the
// front. The cursor resets to the front.
func (h *FocusHistory) Push(id int64) {
	if len(h.entries) > 0 && h.entries[0] == id {
		return
	}
	h.drop(id)
	h.entries = append([]int64{id}, h.entries...)
	if len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
	h.cursor = 0
}

// Previous steps the cursor one entry back and returns that window. It
// returns false at the end of the history.
func (h *FocusHistory) Previous() (int64, bool) {
	target := h.cursor + 1
	if target >= len(h.entries) {
		return 0, false
	}
	h.cursor = target
	return h.entries[target], true
}

// Current returns the entry under the cursor.
func (h *FocusHistory) Current() (int64, bool) {
	if len(h.entries) == 0 {
		return 0, false
	}
	return h.entries[h.cursor], true
}

// Remove forgets a window, keeping the cursor in range.
func (h *FocusHistory) Remove(id int64) {
	if !h.drop(id) {
		return
	}
	if h.cursor >= len(h.entries) {
		h.cursor = max(0, len(h.entries)-1)
	}
}

func (h *FocusHistory) ResetNavigation() {
	h.cursor = 0
}

func (h *FocusHistory) Clear() {
	h.entries = nil
	h.cursor = 0
}

func (h *FocusHistory) Len() int {
	return len(h.entries)
}

func (h *FocusHistory) Contains(id int64) bool {
	for _, e := range h.entries {
		if e == id {
			return true
		}
	}
	return false
}

// Entries returns a copy of the history, most recent first.
func (h *FocusHistory) Entries() []int64 {
	return append([]int64{}, h.entries...)
}

func (h *FocusHistory) drop(id int64) bool {
	for i, e := range h.entries {
		if e == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}
