package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-social-network/middleware"
	"events-social-network/util"
)

func whoami(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.UserID(r.Context())
	w.Write([]byte(id))
}

func request(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: util.SessionCookieName, Value: token})
	}
	return r
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	sessions := util.NewSessionStore(time.Hour)
	registered := map[string]bool{"alice": true}
	exists := func(_ context.Context, id string) bool { return registered[id] }
	h := middleware.AuthMiddleware(sessions, exists)(http.HandlerFunc(whoami))

	alice, _, err := sessions.Create("alice")
	require.NoError(t, err)
	ghost, _, err := sessions.Create("ghost")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(alice))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())

	for name, token := range map[string]string{"no cookie": "", "unknown": "nope", "deleted user": ghost} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(token))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
	assert.Empty(t, sessions.UserID(ghost), "sessions of deleted users are dropped")
}
