package api

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"events-social-network/calendar"
	"events-social-network/membership"
	"events-social-network/models"
)

// RequestsResponse is a classified view with the users it references.
type RequestsResponse struct {
	membership.View
	Users map[string]models.UserResponse `json:"users"`
}

func requestsResponse(snap membership.Snapshot, view membership.View) RequestsResponse {
	users := make(map[string]models.UserResponse, len(view.Included))
	for _, req := range view.Included {
		if u, ok := snap.User(req.UserID); ok {
			users[u.ID] = u.ToResponse()
		}
	}
	return RequestsResponse{View: view, Users: users}
}

// IncomingRequestsHandler lists requests waiting for the caller's decision.
// GET /requests/incoming
func (s *Server) IncomingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, err := s.snapshot(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to load requests")
		return
	}
	writeJSON(w, http.StatusOK, requestsResponse(snap, s.classifier.Incoming(snap, userID, s.clock())))
}

// OutgoingRequestsHandler lists requests the caller sent.
// GET /requests/outgoing
func (s *Server) OutgoingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, err := s.snapshot(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to load requests")
		return
	}
	writeJSON(w, http.StatusOK, requestsResponse(snap, s.classifier.Outgoing(snap, userID, s.clock())))
}

// incoming loads a snapshot and the caller's incoming view.
func (s *Server) incoming(r *http.Request, userID string) (membership.Snapshot, []membership.ClassifiedRequest, time.Time, error) {
	snap, err := s.snapshot(r.Context(), userID)
	if err != nil {
		return membership.Snapshot{}, nil, time.Time{}, err
	}
	now := s.clock()
	return snap, s.classifier.Incoming(snap, userID, now).Included, now, nil
}

// eventFull reports whether req points at an event with no room left.
func eventFull(snap membership.Snapshot, req membership.ClassifiedRequest) bool {
	if req.Kind != membership.KindEvent {
		return false
	}
	e, ok := snap.FindEvent(req.EventID())
	return ok && membership.IsFull(snap, e)
}

// eventOver reports whether req points at an event that has already started.
// Such invites stay listed but can no longer be accepted.
func eventOver(snap membership.Snapshot, req membership.ClassifiedRequest, now time.Time) bool {
	if req.Kind != membership.KindEvent {
		return false
	}
	e, ok := snap.FindEvent(req.EventID())
	return ok && membership.IsPast(e, now)
}

// respondHandler accepts or declines an incoming request.
// POST /requests/{requestID}/accept
// POST /requests/{requestID}/decline
func (s *Server) respondHandler(verb membership.Verb) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		requestID := r.PathValue("requestID")

		snap, incoming, now, err := s.incoming(r, userID)
		if err != nil {
			s.writeError(w, err, "Failed to load requests")
			return
		}
		req, found := membership.Find(incoming, requestID)
		if found && verb == membership.VerbAccept && req.IsInvite() && eventOver(snap, req, now) {
			http.Error(w, "Event is over", http.StatusConflict)
			return
		}
		if found && verb == membership.VerbAccept && !req.IsInvite() && eventFull(snap, req) {
			http.Error(w, "Event is full", http.StatusConflict)
			return
		}

		outcome, err := s.dispatcher.Dispatch(r.Context(), userID, incoming, requestID, verb)
		if err != nil {
			s.writeError(w, err, "Failed to "+string(verb)+" request")
			return
		}

		if outcome.Resolved && outcome.Status == models.StatusAccepted {
			switch req.Kind {
			case membership.KindFriend:
				s.notify(r.Context(), req.UserID, models.NotifyFriendAccepted, models.NotificationPayload{ActorID: userID})
			case membership.KindEvent:
				e, _ := snap.FindEvent(req.EventID())
				s.notify(r.Context(), req.UserID, models.NotifyParticipantJoined, models.NotificationPayload{
					ActorID: userID,
					EventID: req.EventID(),
					Message: "Your request to join " + e.Title + " was accepted",
				})
			}
		}
		s.pushInbox(userID)

		writeJSON(w, http.StatusOK, outcome)
	}
}

// InvitePreview is what an invitee sees before confirming.
type InvitePreview struct {
	Invite    membership.ClassifiedRequest `json:"invite"`
	State     membership.InviteState       `json:"state"`
	Event     EventView                    `json:"event"`
	Organizer models.UserResponse          `json:"organizer"`
}

// loadInvite finds an invite in the caller's incoming view, writing an error
// when it is not there.
func (s *Server) loadInvite(w http.ResponseWriter, r *http.Request, userID string) (membership.Snapshot, membership.ClassifiedRequest, models.Event, bool) {
	snap, incoming, _, err := s.incoming(r, userID)
	if err != nil {
		s.writeError(w, err, "Failed to load invite")
		return membership.Snapshot{}, membership.ClassifiedRequest{}, models.Event{}, false
	}
	req, ok := membership.Find(incoming, r.PathValue("requestID"))
	if !ok {
		http.Error(w, "Invite not found", http.StatusNotFound)
		return membership.Snapshot{}, membership.ClassifiedRequest{}, models.Event{}, false
	}
	if !req.IsInvite() {
		http.Error(w, "Request is not an invite", http.StatusBadRequest)
		return membership.Snapshot{}, membership.ClassifiedRequest{}, models.Event{}, false
	}
	e, ok := snap.FindEvent(req.EventID())
	if !ok {
		http.Error(w, "Event not found", http.StatusNotFound)
		return membership.Snapshot{}, membership.ClassifiedRequest{}, models.Event{}, false
	}
	return snap, req, e, true
}

// InvitePreviewHandler shows the event behind an invite.
// GET /invites/{requestID}/preview
func (s *Server) InvitePreviewHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, req, e, ok := s.loadInvite(w, r, userID)
	if !ok {
		return
	}
	organizer, _ := snap.User(e.OrganizerID)

	writeJSON(w, http.StatusOK, InvitePreview{
		Invite:    req,
		State:     s.dispatcher.State(req.ID),
		Event:     eventView(snap, e, userID, s.clock()),
		Organizer: organizer.ToResponse(),
	})
}

// InvitePreviewCalendarHandler downloads the invite as an iCalendar request.
// GET /invites/{requestID}/preview.ics
func (s *Server) InvitePreviewCalendarHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, req, e, ok := s.loadInvite(w, r, userID)
	if !ok {
		return
	}
	organizer, _ := snap.User(e.OrganizerID)
	invitee, _ := snap.User(userID)

	s.writeCalendar(w, calendar.Invite{Event: e, Organizer: organizer, Invitee: &invitee, InviteID: req.ID})
}

// ConfirmInviteHandler completes an invite whose preview is open.
// POST /invites/{requestID}/confirm
func (s *Server) ConfirmInviteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	inviteID := r.PathValue("requestID")

	snap, incoming, now, err := s.incoming(r, userID)
	if err != nil {
		s.writeError(w, err, "Failed to load invite")
		return
	}
	req, found := membership.Find(incoming, inviteID)
	if found && eventOver(snap, req, now) {
		http.Error(w, "Event is over", http.StatusConflict)
		return
	}
	if found && eventFull(snap, req) {
		http.Error(w, "Event is full", http.StatusConflict)
		return
	}

	outcome, err := s.dispatcher.Confirm(r.Context(), userID, incoming, inviteID)
	if err != nil {
		s.writeError(w, err, "Failed to confirm invite")
		return
	}

	s.notify(r.Context(), req.UserID, models.NotifyParticipantJoined, models.NotificationPayload{ActorID: userID, EventID: req.EventID()})
	s.pushInbox(userID)
	s.log.WithFields(logrus.Fields{"user_id": userID, "invite_id": inviteID}).Debug("invite confirmed over http")

	writeJSON(w, http.StatusOK, outcome)
}

// CancelPreviewHandler closes an open invite preview.
// DELETE /invites/{requestID}/preview
func (s *Server) CancelPreviewHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	inviteID := r.PathValue("requestID")

	if err := s.dispatcher.CancelPreview(userID, inviteID); err != nil {
		s.writeError(w, err, "Failed to cancel preview")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invite_id": inviteID, "state": string(s.dispatcher.State(inviteID))})
}
