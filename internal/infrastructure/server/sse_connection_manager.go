package server

import (
	"sync"
)

// sseConnectionManager tracks the open SSE sessions by ID.
type sseConnectionManager struct {
	mu       sync.RWMutex
	sessions map[string]*sseSession
}

// newSSEConnectionManager creates a new connection manager for SSE sessions.
func newSSEConnectionManager() *sseConnectionManager {
	return &sseConnectionManager{
		sessions: make(map[string]*sseSession),
	}
}

// AddSession adds a session to the connection manager.
func (m *sseConnectionManager) AddSession(session *sseSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID()] = session
}

// RemoveSession removes a session from the connection manager.
func (m *sseConnectionManager) RemoveSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// GetSession retrieves a session by its ID.
func (m *sseConnectionManager) GetSession(sessionID string) (*sseSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// CloseAll closes all active sessions.
func (m *sseConnectionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, session := range m.sessions {
		_ = session.Close()
	}
	m.sessions = make(map[string]*sseSession)
}

// Count returns the number of active sessions.
func (m *sseConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
