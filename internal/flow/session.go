// Package flow implements the multi-step submission forms: per-user
// conversation sessions, field validators, and the step engine that walks a
// user from /start to a pending application.
package flow

import (
	"sync"
	"time"

	"github.com/vestnik-bot/vestnik/pkg/message"
)

// Session is one user's progress through a form. A user has at most one
// active session; starting a new form replaces it.
type Session struct {
	UserID       int64
	Username     string
	Chat         message.Chat
	Form         string
	Step         int
	Values       map[string]string
	PhotoID      string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// SessionStore manages form session lifecycle.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Put stores the session, replacing any existing one for the user.
	Put(sess *Session)

	// Get returns the session for the user, or nil if none exists.
	Get(userID int64) *Session

	// Touch updates the session's LastActiveAt timestamp.
	Touch(userID int64)

	// Delete removes the user's session.
	Delete(userID int64)

	// Prune removes sessions idle longer than maxIdle and returns the
	// number of sessions pruned.
	Prune(maxIdle time.Duration) int

	// Len returns the number of active sessions.
	Len() int
}

// InMemorySessionStore is a concurrency-safe, in-memory SessionStore.
// The `now` function is injectable for deterministic testing.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// Compile-time interface guard.
var _ SessionStore = (*InMemorySessionStore)(nil)

// NewInMemorySessionStore creates a ready-to-use in-memory session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Put stores the session, replacing any existing one for the user.
func (s *InMemorySessionStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.LastActiveAt = now
	s.sessions[sess.UserID] = sess
}

// Get returns the session for the user, or nil if none exists.
func (s *InMemorySessionStore) Get(userID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

// Touch updates the session's LastActiveAt timestamp to the current time.
// It is a no-op if the session does not exist.
func (s *InMemorySessionStore) Touch(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok {
		sess.LastActiveAt = s.now()
	}
}

// Delete removes the user's session. It is a no-op if none exists.
func (s *InMemorySessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Prune removes sessions whose idle time exceeds maxIdle and returns the
// number pruned. Intended to be called periodically by a scheduler job.
func (s *InMemorySessionStore) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pruned := 0
	for userID, sess := range s.sessions {
		if now.Sub(sess.LastActiveAt) > maxIdle {
			delete(s.sessions, userID)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of active sessions.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
