package session

import (
	"slices"
	"sync"
	"time"
)

// Memory is one browser session's window of recently interacted categories.
// Eviction is strictly FIFO by insertion order: a category appearing twice
// still loses its oldest entry first. The window lives only in process
// memory and is never reconciled with the durable store.
type Memory struct {
	mu       sync.Mutex
	window   []string
	size     int
	lastSeen time.Time
}

func newMemory(size int) *Memory {
	return &Memory{
		size:     size,
		lastSeen: time.Now(),
	}
}

// Push appends a category and truncates the window to the most recent
// size entries.
func (m *Memory) Push(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSeen = time.Now()

	m.window = append(m.window, category)
	if len(m.window) > m.size {
		m.window = m.window[len(m.window)-m.size:]
	}
}

// Recent returns the window contents, oldest first.
func (m *Memory) Recent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSeen = time.Now()

	return slices.Clone(m.window)
}

func (m *Memory) idleSince(cutoff time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastSeen.Before(cutoff)
}
