// Package session manages in-memory user sessions and their temp assets.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkozyrev/matcorner/internal/domain"
	"github.com/dkozyrev/matcorner/internal/metrics"
)

// Manager owns all active sessions. Sessions are held in memory only; ending
// a session (explicitly or via TTL) removes its temp directory with every
// uploaded asset and extracted segment.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	tempDir  string
}

// NewManager creates a session manager writing session assets under tempDir.
func NewManager(tempDir string) *Manager {
	return &Manager{
		sessions: make(map[string]*domain.Session),
		tempDir:  tempDir,
	}
}

// Create starts a new session and provisions its temp directory.
func (m *Manager) Create() (*domain.Session, error) {
	s := domain.NewSession(uuid.NewString())

	if err := os.MkdirAll(m.Dir(s.ID), 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()

	slog.Info("session created", "session_id", s.ID)
	return s, nil
}

// Get returns the session for an ID, or nil if it does not exist.
func (m *Manager) Get(id string) *domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Delete ends a session and removes its temp assets, reporting whether the
// session existed. Asset removal failure is a disk-usage leak, not a
// correctness problem, so it is logged and the session is dropped regardless.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	metrics.ActiveSessions.Dec()
	if err := os.RemoveAll(m.Dir(id)); err != nil {
		slog.Warn("failed to remove session assets", "session_id", id, "error", err)
	}
	slog.Info("session ended", "session_id", id)
	return true
}

// Dir returns the temp directory that holds a session's assets.
func (m *Manager) Dir(id string) string {
	return filepath.Join(m.tempDir, id)
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// expired returns the IDs of sessions inactive for longer than ttl.
func (m *Manager) expired(ttl time.Duration) []string {
	cutoff := time.Now().Add(-ttl)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

const ttlSweepInterval = 5 * time.Minute

// StartTTLWorker runs a background goroutine that periodically sweeps for
// inactive sessions and removes them along with their temp assets.
func (m *Manager) StartTTLWorker(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttlSweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("session TTL worker started", "interval", ttlSweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				m.sweep(ttl)
			case <-ctx.Done():
				slog.Info("session TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (m *Manager) sweep(ttl time.Duration) {
	expired := m.expired(ttl)
	if len(expired) == 0 {
		return
	}

	slog.Info("TTL worker found expired sessions", "count", len(expired))
	for _, id := range expired {
		m.Delete(id)
	}
}
