package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	idleTimeout   = 30 * time.Minute
	sweepInterval = 5 * time.Minute
)

// Registry owns every live session window, keyed by the opaque ID issued
// in the session cookie. Idle sessions are swept in the background; their
// state is deliberately lost.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Memory
	window   int
	cancel   context.CancelFunc
	log      *slog.Logger
}

func NewRegistry(window int, log *slog.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Registry{
		sessions: make(map[string]*Memory),
		window:   window,
		cancel:   cancel,
		log:      log,
	}

	go r.sweepLoop(ctx)

	return r
}

// NewSession creates an empty window and returns its ID.
func (r *Registry) NewSession() string {
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = newMemory(r.window)
	r.mu.Unlock()

	return id
}

// Get returns the window for the given session ID, creating a fresh one if
// the ID is unknown (expired cookie or swept session).
func (r *Registry) Get(id string) *Memory {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.sessions[id]
	if !ok {
		m = newMemory(r.window)
		r.sessions[id] = m
	}

	return m
}

func (r *Registry) Stop() {
	r.cancel()
}

func (r *Registry) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Registry) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-idleTimeout)

	r.mu.Lock()
	var swept int
	for id, m := range r.sessions {
		if m.idleSince(cutoff) {
			delete(r.sessions, id)
			swept++
		}
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	if swept > 0 {
		r.log.DebugContext(ctx, "Idle sessions are swept",
			"swept", swept,
			"remaining", remaining)
	}
}
