package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/eva-wellness/eva/internal/model"
)

// Registry holds the server-side sessions, one per client.
// Sessions live for the process lifetime.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Create creates a new session owned by owner. An empty owner means the
// session is reachable by anyone who knows its ID.
func (r *Registry) Create(owner string) *Session {
	sess := NewSession(uuid.Must(uuid.NewV7()).String(), owner)

	r.mu.Lock()
	r.sessions[sess.ID()] = sess
	r.mu.Unlock()

	return sess
}

// Get returns the session with the given ID if owner may access it.
func (r *Registry) Get(id, owner string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || (sess.Owner() != "" && sess.Owner() != owner) {
		return nil, fmt.Errorf("session %q: %w", id, model.ErrNotFound)
	}
	return sess, nil
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
