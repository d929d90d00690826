package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Factory builds a machine for a user. Wiring (sink, audio player,
// config) is closed over by the caller.
type Factory func(userID string) *Machine

// Registry holds the live machine for each user. A user has at most one
// machine; machines are created lazily on first start and disposed by
// the TTL sweeper or an explicit teardown.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*Machine
	factory  Factory
}

// NewRegistry creates a registry using the given factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		machines: make(map[string]*Machine),
		factory:  factory,
	}
}

// Get returns the user's machine, or nil if none exists.
func (r *Registry) Get(userID string) *Machine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.machines[userID]
}

// GetOrCreate returns the user's machine, creating one if needed.
func (r *Registry) GetOrCreate(userID string) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.machines[userID]; ok {
		return m
	}
	m := r.factory(userID)
	r.machines[userID] = m
	slog.Info("Simulation machine created", "user_id", userID)
	return m
}

// Dispose tears down and removes the user's machine. Returns false if
// the user had none.
func (r *Registry) Dispose(userID string) bool {
	r.mu.Lock()
	m, ok := r.machines[userID]
	if ok {
		delete(r.machines, userID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	m.Dispose()
	return true
}

// DisposeAll tears down every machine. Used on server shutdown.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	machines := r.machines
	r.machines = make(map[string]*Machine)
	r.mu.Unlock()

	for _, m := range machines {
		m.Dispose()
	}
}

// Len returns the number of live machines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.machines)
}

// Sweep disposes machines idle longer than maxIdle and returns how many
// were removed. onDispose, if set, is called for each removed user.
func (r *Registry) Sweep(maxIdle time.Duration, onDispose func(userID string)) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*Machine
	for userID, m := range r.machines {
		if m.LastActivity().Before(cutoff) {
			stale = append(stale, m)
			delete(r.machines, userID)
		}
	}
	r.mu.Unlock()

	for _, m := range stale {
		m.Dispose()
		if onDispose != nil {
			onDispose(m.UserID())
		}
	}
	return len(stale)
}
