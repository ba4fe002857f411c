package api

import (
	"net/http"

	"events-social-network/membership"
	"events-social-network/models"
)

// GET /users/available-for-invite?event_id= - friends the caller can still
// invite to one of their events
func (s *Server) GetAvailableUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		http.Error(w, "event_id is required", http.StatusBadRequest)
		return
	}

	snap, err := s.snapshot(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to load users")
		return
	}
	e, ok := snap.FindEvent(eventID)
	if !ok {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	if e.OrganizerID != userID {
		http.Error(w, "Only the organizer can invite", http.StatusForbidden)
		return
	}

	now := s.clock()
	users := []models.UserResponse{}
	for _, id := range snap.FriendsOf(userID) {
		if membership.IsMember(snap, e, id, now) || membership.ResolvedStatus(snap, e.ID, id) == models.StatusPending {
			continue
		}
		if u, ok := snap.User(id); ok {
			users = append(users, u.ToResponse())
		}
	}
	writeJSON(w, http.StatusOK, users)
}

// Friendship is the caller's relation to another user.
type Friendship string

const (
	FriendshipNone     Friendship = "none"
	FriendshipFriends  Friendship = "friends"
	FriendshipSent     Friendship = "request_sent"
	FriendshipReceived Friendship = "request_received"
	FriendshipSelf     Friendship = "self"
)

// UserProfile is a public user with the caller's relation to them.
type UserProfile struct {
	models.UserResponse
	Friendship      Friendship `json:"friendship"`
	// FriendRequestID is set while a request is pending.
	FriendRequestID string     `json:"friend_request_id,omitempty"`
}

// GET /users/{userID} - public profile with friendship state
func (s *Server) GetUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	targetID := r.PathValue("userID")
	if targetID == "me" {
		targetID = userID
	}

	user, err := s.store.GetUser(r.Context(), targetID)
	if err != nil {
		s.writeError(w, err, "User not found")
		return
	}

	profile := UserProfile{UserResponse: user.ToResponse(), Friendship: FriendshipNone}
	if targetID == userID {
		profile.Friendship = FriendshipSelf
		writeJSON(w, http.StatusOK, profile)
		return
	}

	requests, err := s.store.ListFriendRequests(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to load friendship")
		return
	}
	for _, fr := range requests {
		if !fr.Involves(userID, targetID) {
			continue
		}
		switch fr.Status {
		case models.StatusAccepted:
			profile.Friendship = FriendshipFriends
			profile.FriendRequestID = ""
		case models.StatusPending:
			if profile.Friendship == FriendshipFriends {
				continue
			}
			profile.FriendRequestID = fr.ID
			profile.Friendship = FriendshipReceived
			if fr.FromUserID == userID {
				profile.Friendship = FriendshipSent
			}
		}
	}
	writeJSON(w, http.StatusOK, profile)
}
