package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"events-social-network/util"
)

// UserIDKey is the key used to store the UserID in the request context.
type UserIDKeyType string

const UserIDKey UserIDKeyType = "userID"

// UserExists reports whether a session's user is still registered.
type UserExists func(ctx context.Context, userID string) bool

// AuthMiddleware checks for a valid session and puts its user id into the
// request context. Requests without one get 401.
func AuthMiddleware(sessions *util.SessionStore, exists UserExists) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, token, err := sessions.UserIDFromRequest(r)
			if err != nil {
				logrus.WithError(err).Warn("reading session cookie")
				http.Error(w, "Server error processing authentication", http.StatusInternalServerError)
				return
			}

			if userID != "" && exists != nil && !exists(r.Context(), userID) {
				sessions.Delete(token)
				userID = ""
			}
			if userID == "" {
				logrus.WithFields(logrus.Fields{"remote": r.RemoteAddr, "path": r.URL.Path}).Debug("unauthorized request")
				http.Error(w, "Unauthorized: You must be logged in.", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id stored by AuthMiddleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}
