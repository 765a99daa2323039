package config

import "sync"

type listener struct {
	id uint64
	fn func(Settings)
}

// Runtime holds the live administrative settings. The engine and
// coordinator read it; admin surfaces update it at runtime. Listeners
// fire synchronously after each update so the coordinator can refresh
// shields when the kill switch or default policy changes.
type Runtime struct {
	mu        sync.RWMutex
	settings  Settings
	listeners []listener
	nextID    uint64
}

// NewRuntime wraps the given settings.
func NewRuntime(s Settings) *Runtime {
	return &Runtime{settings: s}
}

// Current returns a copy of the live settings.
func (r *Runtime) Current() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// Update applies a mutation atomically and notifies listeners with the
// resulting settings.
func (r *Runtime) Update(mutate func(*Settings)) {
	r.mu.Lock()
	mutate(&r.settings)
	updated := r.settings
	ls := make([]listener, len(r.listeners))
	copy(ls, r.listeners)
	r.mu.Unlock()

	for _, l := range ls {
		l.fn(updated)
	}
}

// SetEnabled flips the global kill switch.
func (r *Runtime) SetEnabled(enabled bool) {
	r.Update(func(s *Settings) { s.Enabled = enabled })
}

// SetDefaultPolicy replaces the configured default policy.
func (r *Runtime) SetDefaultPolicy(p PolicySettings) {
	r.Update(func(s *Settings) { s.DefaultPolicy = p })
}

// OnChange registers a listener and returns its deregistration func.
func (r *Runtime) OnChange(fn func(Settings)) (remove func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, listener{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		for i, l := range r.listeners {
			if l.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
	}
}
