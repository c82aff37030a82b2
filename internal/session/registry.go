// Package session keeps the single live proposal session of each
// authenticated identity in memory.
package session

import (
	"errors"
	"sync"

	"github.com/hongminglow/valentine-be/internal/flow"
)

// ErrSessionNotFound reports that the identity has no live session, or that
// the session ID belongs to a session that has been replaced or ended.
var ErrSessionNotFound = errors.New("session not found")

// Registry maps usernames to their current session. Calls for the same
// registry are serialised, so triggers for one session never interleave.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*flow.Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*flow.Session)}
}

// Start makes s the live session for username, replacing any previous one.
func (r *Registry) Start(username string, s *flow.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[username] = s
}

// Do runs fn against the live session of username if its ID is sessionID.
func (r *Registry) Do(username, sessionID string, fn func(*flow.Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[username]
	if !ok || s.ID != sessionID {
		return ErrSessionNotFound
	}
	return fn(s)
}

// End discards the session of username if its ID is sessionID.
func (r *Registry) End(username, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[username]
	if !ok || s.ID != sessionID {
		return ErrSessionNotFound
	}
	delete(r.sessions, username)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
