package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"events-social-network/database"
	"events-social-network/membership"
	"events-social-network/middleware"
	"events-social-network/util"
)

// Server holds the dependencies shared by every handler.
type Server struct {
	store      *database.Store
	sessions   *util.SessionStore
	classifier *membership.Classifier
	dispatcher *membership.Dispatcher
	hub        *Hub
	log        logrus.FieldLogger
	loc        *time.Location
	now        func() time.Time

	tabsMu sync.Mutex
	tabs   map[string]*membership.TabSession // user id -> requests tab visit
}

// NewServer wires handlers to store. Event dates are read in loc.
func NewServer(store *database.Store, sessions *util.SessionStore, loc *time.Location, log logrus.FieldLogger) *Server {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		store:      store,
		sessions:   sessions,
		classifier: membership.NewClassifier(log),
		dispatcher: membership.NewDispatcher(store, log),
		hub:        NewHub(log),
		log:        log,
		loc:        loc,
		now:        time.Now,
		tabs:       make(map[string]*membership.TabSession),
	}
}

// WithClock replaces the clock used for temporal decisions.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	auth := middleware.AuthMiddleware(s.sessions, s.userExists)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.Handle("/ws", protected(s.WebSocketHandler))

	// Auth handlers
	mux.HandleFunc("POST /register", s.RegisterHandler)
	mux.HandleFunc("POST /login", s.LoginHandler)
	mux.HandleFunc("POST /logout", s.LogoutHandler)
	mux.Handle("GET /whoami", protected(s.WhoAmIHandler))

	// Friends
	mux.Handle("POST /users/{userID}/friend-request", protected(s.SendFriendRequestHandler))
	mux.Handle("GET /friends", protected(s.ListFriendsHandler))
	mux.Handle("GET /users/available-for-invite", protected(s.GetAvailableUsersHandler))
	mux.Handle("GET /users/{userID}", protected(s.GetUserProfileHandler))

	// Events
	mux.Handle("POST /events", protected(s.CreateEventHandler))
	mux.Handle("GET /events", protected(s.ListEventsHandler))
	mux.Handle("GET /events/{eventID}", protected(s.GetEventHandler))
	mux.Handle("PATCH /events/{eventID}", protected(s.UpdateEventHandler))
	mux.Handle("POST /events/{eventID}/cancel", protected(s.CancelEventHandler))
	mux.Handle("POST /events/{eventID}/join", protected(s.JoinEventHandler))
	mux.Handle("POST /events/{eventID}/invite", protected(s.InviteToEventHandler))
	mux.Handle("GET /events/{eventID}/participants", protected(s.EventParticipantsHandler))
	mux.Handle("GET /events/{eventID}/calendar.ics", protected(s.EventCalendarHandler))

	// Requests
	mux.Handle("GET /requests/incoming", protected(s.IncomingRequestsHandler))
	mux.Handle("GET /requests/outgoing", protected(s.OutgoingRequestsHandler))
	mux.Handle("POST /requests/{requestID}/accept", protected(s.respondHandler(membership.VerbAccept)))
	mux.Handle("POST /requests/{requestID}/decline", protected(s.respondHandler(membership.VerbDecline)))
	mux.Handle("GET /invites/{requestID}/preview", protected(s.InvitePreviewHandler))
	mux.Handle("GET /invites/{requestID}/preview.ics", protected(s.InvitePreviewCalendarHandler))
	mux.Handle("POST /invites/{requestID}/confirm", protected(s.ConfirmInviteHandler))
	mux.Handle("DELETE /invites/{requestID}/preview", protected(s.CancelPreviewHandler))

	// Inbox & notifications
	mux.Handle("GET /inbox", protected(s.InboxHandler))
	mux.Handle("POST /inbox/requests-tab/enter", protected(s.EnterRequestsTabHandler))
	mux.Handle("POST /inbox/requests-tab/leave", protected(s.LeaveRequestsTabHandler))
	mux.Handle("GET /notifications", protected(s.GetNotificationsHandler))
	mux.Handle("GET /notifications/unread-count", protected(s.GetUnreadCountHandler))
	mux.Handle("PATCH /notifications/{notificationID}/read", protected(s.MarkNotificationAsReadHandler))
	mux.Handle("POST /notifications/mark-all-read", protected(s.MarkAllNotificationsAsReadHandler))
	mux.Handle("DELETE /notifications/{notificationID}", protected(s.DeleteNotificationHandler))

	return mux
}

func (s *Server) userExists(ctx context.Context, userID string) bool {
	_, err := s.store.GetUser(ctx, userID)
	return err == nil
}

// currentUser returns the authenticated user id or writes 401.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

// clock returns now in the configured zone.
func (s *Server) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Server) snapshot(ctx context.Context, userID string) (membership.Snapshot, error) {
	return membership.LoadSnapshot(ctx, s.store, userID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps store and dispatcher errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, membership.ErrRequestNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrAlreadyResolved), errors.Is(err, database.ErrDuplicate),
		errors.Is(err, membership.ErrNoPreview), errors.Is(err, membership.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, membership.ErrNotActionable), errors.Is(err, membership.ErrNotInvite):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error(msg)
	}
	http.Error(w, msg+": "+err.Error(), status)
}
