package terminal

import "sync"

// Registry tracks the open terminal session per tenant. Opening a new
// terminal for a tenant closes the previous one, so leaked listeners
// cannot accumulate across repeated opens.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Put registers the session for its tenant, closing any prior session.
func (r *Registry) Put(tenantID string, s *Session) {
	r.mu.Lock()
	prev := r.sessions[tenantID]
	r.sessions[tenantID] = s
	r.mu.Unlock()

	if prev != nil && prev != s {
		prev.Close()
	}
}

// Remove drops the session for a tenant if it is still the registered
// one, and closes it.
func (r *Registry) Remove(tenantID string, s *Session) {
	r.mu.Lock()
	if r.sessions[tenantID] == s {
		delete(r.sessions, tenantID)
	}
	r.mu.Unlock()
	s.Close()
}

// CloseAll tears down every open session. Called on server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
