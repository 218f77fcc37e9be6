package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore keeps opaque session tokens in memory with a TTL. A single
// local instance owns all sessions; nothing is persisted.
type SessionStore struct {
	mu           sync.Mutex
	ttl          time.Duration
	sessions     map[string]session
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type session struct {
	userID    int64
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	s := &SessionStore{
		ttl:         ttl,
		sessions:    make(map[string]session),
		stopCleanup: make(chan struct{}),
	}
	go s.startCleanup()
	return s
}

// Create issues a new token for the user.
func (s *SessionStore) Create(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{userID: userID, expiresAt: time.Now().Add(s.ttl)}
	return token
}

// Resolve maps a token to its user id; expired tokens are dropped on sight.
func (s *SessionStore) Resolve(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return 0, false
	}
	return sess.userID, true
}

// Revoke deletes a token (logout).
func (s *SessionStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// startCleanup runs periodic cleanup to remove expired sessions
func (s *SessionStore) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *SessionStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for token, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Stop shuts down the cleanup goroutine.
func (s *SessionStore) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.stopCleanup)
	})
}
