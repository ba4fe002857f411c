package util

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"
)

const SessionCookieName = "session_token"

type session struct {
	userID  string
	expires time.Time
}

// SessionStore holds active login sessions in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session // token -> session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore returns a store whose sessions live for ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// GenerateSessionToken creates a cryptographically secure random session token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Create starts a session for userID and returns its token and expiry.
func (s *SessionStore) Create(userID string) (string, time.Time, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expires := s.now().Add(s.ttl)

	s.mu.Lock()
	s.sessions[token] = session{userID: userID, expires: expires}
	s.mu.Unlock()
	return token, expires, nil
}

// UserID returns the user of token, or "" when the session is unknown or
// expired. Expired sessions are dropped.
func (s *SessionStore) UserID(token string) string {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return ""
	}
	if !s.now().Before(sess.expires) {
		s.Delete(token)
		return ""
	}
	return sess.userID
}

// Delete removes a session.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// UserIDFromRequest reads the session cookie of r. A missing cookie is not
// an error; it yields "".
func (s *SessionStore) UserIDFromRequest(r *http.Request) (string, string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", "", nil
		}
		return "", "", err
	}
	return s.UserID(cookie.Value), cookie.Value, nil
}

// SetCookie writes the session cookie.
func SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
