package transcoder

import (
	"sync"

	"media-dashboard/internal/logging"
	"media-dashboard/internal/metrics"
)

// Stopper is the part of a session the registry needs for forced cleanup.
type Stopper interface {
	Stop()
}

// Registry maps a logical path to the single active transcoding session for
// that path. At most one session may be live per key: registering a new
// session force-stops any existing one under the same lock, so supersession
// is atomic even with concurrent requests for the same key.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Stopper
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Stopper)}
}

// Get returns the active session for key, if any.
func (r *Registry) Get(key string) (Stopper, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Register installs s as the active session for key, force-stopping any
// session it supersedes.
func (r *Registry) Register(key string, s Stopper) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[key]; ok {
		logging.Info("Superseding active transcoding session for: %s", key)
		old.Stop()
	}
	r.sessions[key] = s
	metrics.ActiveTranscoders.Set(float64(len(r.sessions)))
}

// ForceStop kills and removes the session for key. Stopping a key with no
// session is a no-op.
func (r *Registry) ForceStop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		s.Stop()
		delete(r.sessions, key)
		metrics.ActiveTranscoders.Set(float64(len(r.sessions)))
	}
}

// Release stops s and removes it from the registry, but only deregisters the
// key if s is still the current session — a superseding session registered
// for the same key must not be knocked out by its predecessor's cleanup.
func (r *Registry) Release(key string, s Stopper) {
	s.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[key]; ok && current == s {
		delete(r.sessions, key)
		metrics.ActiveTranscoders.Set(float64(len(r.sessions)))
	}
}

// StopAll force-stops every registered session. Called on shutdown so no
// encoder process outlives the server.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, s := range r.sessions {
		logging.Info("Killing transcoding session for: %s", key)
		s.Stop()
		delete(r.sessions, key)
	}
	metrics.ActiveTranscoders.Set(0)
}

// ActiveCount returns the number of live sessions.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
