package domain

import "sync"

const DefaultHistorySize = 10

// History keeps the most recent commands, newest first.
type History struct {
	mu       sync.RWMutex
	capacity int
	entries  []Command
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		capacity: capacity,
		entries:  make([]Command, 0, capacity),
	}
}

// Add prepends cmd, dropping the oldest entry once the capacity is exceeded.
func (h *History) Add(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	keep := len(h.entries)
	if keep >= h.capacity {
		keep = h.capacity - 1
	}
	next := make([]Command, 0, h.capacity)
	next = append(next, cmd)
	next = append(next, h.entries[:keep]...)
	h.entries = next
}

func (h *History) List() []Command {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]Command, len(h.entries))
	copy(result, h.entries)
	return result
}

// Latest returns the newest command, if any.
func (h *History) Latest() (Command, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return Command{}, false
	}
	return h.entries[0], true
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
