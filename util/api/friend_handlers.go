package api

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"events-social-network/database"
	"events-social-network/models"
)

// SendFriendRequestHandler sends a friend request to another user.
// POST /users/{userID}/friend-request
func (s *Server) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}
	targetUserID := r.PathValue("userID")

	if targetUserID == currentUserID {
		http.Error(w, "Cannot send a friend request to yourself", http.StatusBadRequest)
		return
	}
	if _, err := s.store.GetUser(r.Context(), targetUserID); err != nil {
		s.writeError(w, err, "Target user not found")
		return
	}

	fr, err := s.store.CreateFriendRequest(r.Context(), currentUserID, targetUserID)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			http.Error(w, "Already friends or a request is pending", http.StatusConflict)
			return
		}
		s.writeError(w, err, "Failed to send friend request")
		return
	}

	s.notify(r.Context(), targetUserID, models.NotifyFriendRequest, models.NotificationPayload{ActorID: currentUserID})
	s.log.WithFields(logrus.Fields{"from": currentUserID, "to": targetUserID, "request_id": fr.ID}).Info("friend request sent")

	writeJSON(w, http.StatusCreated, fr)
}

// ListFriendsHandler lists the authenticated user's friends.
// GET /friends
func (s *Server) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}

	friends, err := s.store.FriendsOf(r.Context(), currentUserID)
	if err != nil {
		s.writeError(w, err, "Failed to list friends")
		return
	}

	out := make([]models.UserResponse, 0, len(friends))
	for _, f := range friends {
		out = append(out, f.ToResponse())
	}
	writeJSON(w, http.StatusOK, out)
}
