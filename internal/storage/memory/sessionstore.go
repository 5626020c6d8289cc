// Package memory provides an in-memory SessionStore for the devserver and
// for tests. It enforces the same per-player uniqueness and TTL semantics as
// the PostgreSQL store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mgriffith/spindial/internal/game/engine"
)

// SessionStore keeps combat sessions in process memory.
// All methods are safe for concurrent use.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Session // session id → session
	byPlayer map[string]string          // player id → session id
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*engine.Session),
		byPlayer: make(map[string]string),
		now:      time.Now,
	}
}

// WithClock replaces the store's time source. Intended for tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

// Create stores a copy of the session. The per-player index is the
// uniqueness check: a player with a live, unexpired session cannot start
// another one.
//
// Postcondition: Returns engine.ErrActiveSessionExists on conflict.
func (s *SessionStore) Create(_ context.Context, sess *engine.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byPlayer[sess.PlayerID]; ok {
		if existing, live := s.sessions[existingID]; live && !s.expired(existing) {
			return engine.ErrActiveSessionExists
		}
		// Expired leftover: evict before inserting.
		delete(s.sessions, existingID)
		delete(s.byPlayer, sess.PlayerID)
	}

	cp := cloneSession(sess)
	s.sessions[sess.ID] = cp
	s.byPlayer[sess.PlayerID] = sess.ID
	return nil
}

// Get returns a copy of the session, or engine.ErrSessionNotFound when the
// session is missing or expired. Expired sessions are evicted lazily on
// read, so an expired and a deleted session are indistinguishable.
func (s *SessionStore) Get(_ context.Context, sessionID string) (*engine.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, engine.ErrSessionNotFound
	}
	if s.expired(sess) {
		s.evictLocked(sess)
		return nil, engine.ErrSessionNotFound
	}
	return cloneSession(sess), nil
}

// AppendTurn appends one log entry to the stored session.
func (s *SessionStore) AppendTurn(_ context.Context, sessionID string, entry engine.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess) {
		return engine.ErrSessionNotFound
	}
	sess.Log = append(sess.Log, entry)
	return nil
}

// Delete removes the session and its player index entry.
//
// Postcondition: Returns engine.ErrSessionNotFound if absent.
func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return engine.ErrSessionNotFound
	}
	s.evictLocked(sess)
	return nil
}

// Len returns the number of live sessions. Intended for tests and metrics.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(sess *engine.Session) bool {
	return !sess.ExpiresAt.After(s.now())
}

func (s *SessionStore) evictLocked(sess *engine.Session) {
	delete(s.sessions, sess.ID)
	if s.byPlayer[sess.PlayerID] == sess.ID {
		delete(s.byPlayer, sess.PlayerID)
	}
}

// cloneSession returns a deep copy so callers can never mutate stored state
// without going through AppendTurn.
func cloneSession(sess *engine.Session) *engine.Session {
	cp := *sess
	cp.Log = append([]engine.LogEntry(nil), sess.Log...)
	cp.Equipment = append([]engine.EquippedItem(nil), sess.Equipment...)
	cp.PoolIDs = append([]string(nil), sess.PoolIDs...)
	cp.EnemyStats.PersonalityTraits = append([]string(nil), sess.EnemyStats.PersonalityTraits...)
	return &cp
}
