package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sudoCommit/alumnium/internal/logging"
	"github.com/sudoCommit/alumnium/pkg/types"
)

// Manager is the in-memory registry of sessions. Sessions live for the
// duration of the process only.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
}

// NewManager creates an empty registry. The options apply to every session
// it creates.
func NewManager(opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Create constructs a session under a fresh UUID and returns the ID.
func (m *Manager) Create(ctx context.Context, model types.Model, platform types.Platform, tools []types.ToolSchema, plannerEnabled bool) (string, error) {
	id := uuid.NewString()

	s, err := New(ctx, id, model, platform, tools, plannerEnabled, m.opts)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	return id, nil
}

// Get returns the session or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Delete removes a session, reporting whether it existed. In-flight
// requests holding the session pointer finish against their snapshot.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	logging.Component("sessions").Info().Str("session_id", id).Msg("deleted session")
	return true
}

// List returns all active session IDs.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// TotalStats aggregates token usage across all sessions.
func (m *Manager) TotalStats() types.SessionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats types.SessionStats
	for _, s := range m.sessions {
		sessionStats := s.Stats()
		stats.Total.Add(sessionStats.Total)
		stats.Cache.Add(sessionStats.Cache)
	}
	return stats
}
