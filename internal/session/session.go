// Package session implements server-side sessions identified by a signed
// cookie. Session data lives in a Store (Redis in production); the cookie only
// carries the session id prefixed by its HMAC-SHA256 digest.
package session

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`

	changed    bool
	destroyed  bool
	regenerate bool
}

func New() *Session {
	return &Session{
		ID:     uuid.NewString(),
		Values: map[string]string{},
	}
}

func (s *Session) Get(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	if s.Values == nil {
		s.Values = map[string]string{}
	}
	if old, ok := s.Values[key]; ok && old == value {
		return
	}
	s.Values[key] = value
	s.changed = true
}

func (s *Session) Remove(key string) {
	if _, ok := s.Values[key]; !ok {
		return
	}
	delete(s.Values, key)
	s.changed = true
}

// Login binds the session to a user and asks for a fresh id so a session
// fixed before authentication cannot be reused after it.
func (s *Session) Login(userID string) {
	s.UserID = userID
	s.changed = true
	s.regenerate = true
}

func (s *Session) Destroy() {
	s.destroyed = true
}

func (s *Session) Regenerate() {
	s.regenerate = true
}

func (s *Session) Changed() bool {
	return s.changed
}

func (s *Session) IsDestroyed() bool {
	return s.destroyed
}

func (s *Session) ShouldRegenerate() bool {
	return s.regenerate
}

func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) expireIn(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

func (s *Session) regenerateID() {
	s.ID = uuid.NewString()
	s.regenerate = false
}
