// Package session tracks the "current model" of each MCP session. The store
// itself is stateless between calls; tools fall back to this pointer when a
// request omits model_id.
package session

import (
	"sync"
)

// Registry maps MCP session ids to their current model.
type Registry struct {
	mu      sync.Mutex
	current map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{current: make(map[string]string)}
}

// Set makes modelID the current model of a session.
func (r *Registry) Set(sessionID, modelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current[sessionID] = modelID
}

// Current returns the session's current model, if one is set.
func (r *Registry) Current(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.current[sessionID]
	return id, ok
}

// Clear resets one session.
func (r *Registry) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.current, sessionID)
}

// Forget clears every session whose current model is modelID, used when the
// model is deleted.
func (r *Registry) Forget(modelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, id := range r.current {
		if id == modelID {
			delete(r.current, sid)
		}
	}
}
