package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"events-social-network/calendar"
	"events-social-network/membership"
	"events-social-network/models"
)

// EventView is an event as seen by the requesting user.
type EventView struct {
	models.Event
	Role             membership.Role      `json:"role"`
	Status           models.RequestStatus `json:"status,omitempty"`
	IsPast           bool                 `json:"is_past"`
	IsFull           bool                 `json:"is_full"`
	ParticipantCount int                  `json:"participant_count"`
	NextOccurrence   *time.Time           `json:"next_occurrence,omitempty"`
}

func eventView(snap membership.Snapshot, e models.Event, userID string, now time.Time) EventView {
	v := EventView{
		Event:            e,
		Role:             membership.RoleOf(snap, e, userID, now),
		Status:           membership.ResolvedStatus(snap, e.ID, userID),
		IsPast:           membership.IsPast(e, now),
		IsFull:           membership.IsFull(snap, e),
		ParticipantCount: membership.AcceptedParticipants(snap, e.ID).Len(),
	}
	if next, ok := membership.NextOccurrence(e, now); ok {
		v.NextOccurrence = &next
	}
	return v
}

// validateEvent checks the editable fields of req.
func (s *Server) validateEvent(req models.CreateEventRequest) string {
	if req.Title == "" || req.Date == "" {
		return "Title and date are required"
	}
	if _, err := membership.EventDateTime(models.Event{Date: req.Date, Time: req.Time}, s.loc); err != nil {
		return "Date must be YYYY-MM-DD and time HH:MM"
	}
	if req.IsRecurring {
		e := models.Event{IsRecurring: true, Recurrence: req.Recurrence}
		if e.RecurrenceKind() == "" {
			return "Recurring events need a recurrence of daily, weekly, monthly or custom"
		}
	}
	return ""
}

func applyEventRequest(e *models.Event, req models.CreateEventRequest) {
	e.Title = req.Title
	e.Description = req.Description
	e.Date = req.Date
	e.Time = req.Time
	e.MaxParticipants = req.MaxParticipants
	e.IsRecurring = req.IsRecurring
	e.Recurrence = req.Recurrence
	if !req.IsRecurring {
		e.Recurrence = nil
	}
	if req.ParticipantsList != nil {
		e.ParticipantsList = req.ParticipantsList
	}
}

// CreateEventHandler creates an event organized by the caller.
// POST /events
func (s *Server) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if msg := s.validateEvent(req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	e := models.Event{OrganizerID: userID}
	applyEventRequest(&e, req)
	e, err := s.store.CreateEvent(r.Context(), e)
	if err != nil {
		s.writeError(w, err, "Failed to create event")
		return
	}
	s.log.WithFields(logrus.Fields{"event_id": e.ID, "organizer_id": userID}).Info("event created")

	writeJSON(w, http.StatusCreated, e)
}

// ListEventsHandler lists events. ?upcoming=true keeps upcoming ones only.
// GET /events
func (s *Server) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, err := s.snapshot(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to load events")
		return
	}

	now := s.clock()
	upcomingOnly := r.URL.Query().Get("upcoming") == "true"
	views := make([]EventView, 0, len(snap.Events))
	for _, e := range snap.Events {
		if upcomingOnly && (e.Cancelled || !membership.IsUpcoming(e, now)) {
			continue
		}
		views = append(views, eventView(snap, e, userID, now))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetEventHandler returns one event with the caller's role.
// GET /events/{eventID}
func (s *Server) GetEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, e, ok := s.loadEvent(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, eventView(snap, e, userID, s.clock()))
}

// loadEvent loads a snapshot and the path's event, writing 404 when it is
// missing.
func (s *Server) loadEvent(w http.ResponseWriter, r *http.Request, userID string) (membership.Snapshot, models.Event, bool) {
	snap, err := s.snapshot(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to load event")
		return membership.Snapshot{}, models.Event{}, false
	}
	e, ok := snap.FindEvent(r.PathValue("eventID"))
	if !ok {
		http.Error(w, "Event not found", http.StatusNotFound)
		return membership.Snapshot{}, models.Event{}, false
	}
	return snap, e, true
}

// UpdateEventHandler edits an event and tells its participants.
// PATCH /events/{eventID}
func (s *Server) UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, e, ok := s.loadEvent(w, r, userID)
	if !ok {
		return
	}
	if e.OrganizerID != userID {
		http.Error(w, "Only the organizer can edit this event", http.StatusForbidden)
		return
	}
	if e.Cancelled {
		http.Error(w, "Event is cancelled", http.StatusConflict)
		return
	}

	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if msg := s.validateEvent(req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	applyEventRequest(&e, req)
	updated, err := s.store.UpdateEvent(r.Context(), e)
	if err != nil {
		s.writeError(w, err, "Failed to update event")
		return
	}

	s.notifyParticipants(r, snap, e, models.NotifyEventUpdated, e.Title+" was updated")
	writeJSON(w, http.StatusOK, updated)
}

// CancelEventHandler cancels an event and tells its participants.
// POST /events/{eventID}/cancel
func (s *Server) CancelEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, e, ok := s.loadEvent(w, r, userID)
	if !ok {
		return
	}
	if e.OrganizerID != userID {
		http.Error(w, "Only the organizer can cancel this event", http.StatusForbidden)
		return
	}
	if e.Cancelled {
		http.Error(w, "Event is already cancelled", http.StatusConflict)
		return
	}

	if err := s.store.CancelEvent(r.Context(), e.ID); err != nil {
		s.writeError(w, err, "Failed to cancel event")
		return
	}
	s.notifyParticipants(r, snap, e, models.NotifyEventCancelled, e.Title+" was cancelled")
	s.log.WithField("event_id", e.ID).Info("event cancelled")

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) notifyParticipants(r *http.Request, snap membership.Snapshot, e models.Event, typ models.NotificationType, msg string) {
	for _, id := range membership.AcceptedParticipants(snap, e.ID).Sorted() {
		if id == e.OrganizerID {
			continue
		}
		s.notify(r.Context(), id, typ, models.NotificationPayload{ActorID: e.OrganizerID, EventID: e.ID, Message: msg})
	}
}

// joinable checks that e can still gain members.
func (s *Server) joinable(w http.ResponseWriter, snap membership.Snapshot, e models.Event, now time.Time) bool {
	switch {
	case e.Cancelled:
		http.Error(w, "Event is cancelled", http.StatusConflict)
	case membership.IsPast(e, now):
		http.Error(w, "Event is over", http.StatusConflict)
	case membership.IsFull(snap, e):
		http.Error(w, "Event is full", http.StatusConflict)
	default:
		return true
	}
	return false
}

// JoinEventHandler asks to join an event. Business organizers accept
// joins automatically; personal organizers get a pending request.
// POST /events/{eventID}/join
func (s *Server) JoinEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, e, ok := s.loadEvent(w, r, userID)
	if !ok {
		return
	}
	now := s.clock()

	if e.OrganizerID == userID {
		http.Error(w, "You organize this event", http.StatusBadRequest)
		return
	}
	switch membership.ResolvedStatus(snap, e.ID, userID) {
	case models.StatusAccepted:
		http.Error(w, "Already a participant", http.StatusConflict)
		return
	case models.StatusPending:
		http.Error(w, "A request is already pending", http.StatusConflict)
		return
	}
	if !s.joinable(w, snap, e, now) {
		return
	}

	organizer, _ := snap.User(e.OrganizerID)
	req := models.EventRequest{EventID: e.ID, FromUserID: userID, Type: models.RequestJoin}
	if organizer.IsBusiness() {
		req.Status = models.StatusAccepted
	}
	req, err := s.store.CreateEventRequest(r.Context(), req)
	if err != nil {
		s.writeError(w, err, "Failed to join event")
		return
	}

	if req.Status == models.StatusAccepted {
		s.notify(r.Context(), e.OrganizerID, models.NotifyParticipantJoined,
			models.NotificationPayload{ActorID: userID, EventID: e.ID})
	} else {
		s.notify(r.Context(), e.OrganizerID, models.NotifyJoinRequest,
			models.NotificationPayload{ActorID: userID, EventID: e.ID})
	}
	s.log.WithFields(logrus.Fields{"event_id": e.ID, "user_id": userID, "status": req.Status}).Info("join requested")

	writeJSON(w, http.StatusCreated, req)
}

// InviteToEventHandler invites a friend of the organizer.
// POST /events/{eventID}/invite
func (s *Server) InviteToEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body models.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	snap, e, ok := s.loadEvent(w, r, userID)
	if !ok {
		return
	}
	now := s.clock()

	if e.OrganizerID != userID {
		http.Error(w, "Only the organizer can invite", http.StatusForbidden)
		return
	}
	if body.UserID == userID {
		http.Error(w, "Cannot invite yourself", http.StatusBadRequest)
		return
	}
	if !s.joinable(w, snap, e, now) {
		return
	}

	friend := false
	for _, id := range snap.FriendsOf(userID) {
		if id == body.UserID {
			friend = true
			break
		}
	}
	if !friend {
		http.Error(w, "You can only invite friends", http.StatusForbidden)
		return
	}
	if membership.IsMember(snap, e, body.UserID, now) {
		http.Error(w, "User is already a participant", http.StatusConflict)
		return
	}
	for _, er := range snap.EventRequests {
		if er.EventID == e.ID && er.Type == models.RequestInvite && er.ToUserID == body.UserID && er.Status == models.StatusPending {
			http.Error(w, "User already has a pending invite", http.StatusConflict)
			return
		}
	}

	invite, err := s.store.CreateEventRequest(r.Context(), models.EventRequest{
		EventID:    e.ID,
		FromUserID: userID,
		ToUserID:   body.UserID,
		Type:       models.RequestInvite,
	})
	if err != nil {
		s.writeError(w, err, "Failed to invite user")
		return
	}
	s.notify(r.Context(), body.UserID, models.NotifyEventInvite, models.NotificationPayload{ActorID: userID, EventID: e.ID})

	writeJSON(w, http.StatusCreated, invite)
}

// EventParticipantsHandler lists who takes part in an event.
// GET /events/{eventID}/participants
func (s *Server) EventParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, e, ok := s.loadEvent(w, r, userID)
	if !ok {
		return
	}
	now := s.clock()

	var ids []string
	if membership.IsPast(e, now) {
		if p, ok := snap.Profile(e.ID); ok {
			ids = p.Participants
		}
	} else {
		ids = membership.AcceptedParticipants(snap, e.ID).Sorted()
	}

	participants := make([]models.UserResponse, 0, len(ids))
	for _, id := range ids {
		if id == e.OrganizerID {
			continue
		}
		if u, ok := snap.User(id); ok {
			participants = append(participants, u.ToResponse())
		}
	}

	resp := map[string]any{
		"event_id":         e.ID,
		"participants":     participants,
		"max_participants": e.MaxParticipants,
		"is_full":          membership.IsFull(snap, e),
	}
	if organizer, ok := snap.User(e.OrganizerID); ok {
		resp["organizer"] = organizer.ToResponse()
	}
	writeJSON(w, http.StatusOK, resp)
}

// EventCalendarHandler downloads the event as an iCalendar file.
// GET /events/{eventID}/calendar.ics
func (s *Server) EventCalendarHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, e, ok := s.loadEvent(w, r, userID)
	if !ok {
		return
	}
	organizer, _ := snap.User(e.OrganizerID)
	s.writeCalendar(w, calendar.Invite{Event: e, Organizer: organizer})
}

func (s *Server) writeCalendar(w http.ResponseWriter, inv calendar.Invite) {
	doc, err := calendar.Render(inv, s.loc, s.now())
	if err != nil {
		s.writeError(w, err, "Failed to render calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.Event.ID+`.ics"`)
	w.Write([]byte(doc))
}
