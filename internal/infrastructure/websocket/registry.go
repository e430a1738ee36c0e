package websocket

import (
	"log/slog"
	"sync"
)

// Registry tracks the live sessions so the server can report how many
// clients are connected and close them all on shutdown. Simulations stay
// private to their session; the registry never routes events between them.
type Registry struct {
	sessions map[*Session]bool

	// Channel for registering sessions
	register chan *Session

	// Channel for unregistering sessions
	unregister chan *Session

	logger *slog.Logger
	mu     sync.RWMutex
}

// NewRegistry creates a new Registry instance
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		logger:     logger,
	}
}

// Run starts the registry's main event loop.
// This should be called in a goroutine.
func (r *Registry) Run() {
	for {
		select {
		case session := <-r.register:
			r.add(session)

		case session := <-r.unregister:
			r.remove(session)
		}
	}
}

func (r *Registry) add(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session] = true

	r.logger.Debug("session registered",
		"session_id", session.id,
		"total_sessions", len(r.sessions))
}

func (r *Registry) remove(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session]; !ok {
		return
	}
	delete(r.sessions, session)

	r.logger.Debug("session unregistered",
		"session_id", session.id,
		"total_sessions", len(r.sessions))
}

// Count returns the number of connected sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes the connections of all registered sessions. Each session
// unregisters itself as its protocol loop winds down.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	for _, session := range sessions {
		session.Close()
	}
}
