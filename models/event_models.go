package models

import "time"

// RecurrenceKind selects how a recurring event repeats.
type RecurrenceKind string

const (
	RecurDaily   RecurrenceKind = "daily"
	RecurWeekly  RecurrenceKind = "weekly"
	RecurMonthly RecurrenceKind = "monthly"
	RecurCustom  RecurrenceKind = "custom"
)

// Recurrence describes a repeating event. Only the fields of the
// selected Kind are meaningful.
type Recurrence struct {
	Kind       RecurrenceKind `json:"kind"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"` // weekly
	DayOfMonth int            `json:"day_of_month,omitempty"` // monthly
	Dates      []string       `json:"dates,omitempty"`        // custom, YYYY-MM-DD
}

// ParticipantRef is the legacy id-based participant entry.
type ParticipantRef struct {
	UserID string `json:"user_id"`
}

type Event struct {
	ID              string `json:"id"`
	OrganizerID     string `json:"organizer_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Date            string `json:"date"` // YYYY-MM-DD
	Time            string `json:"time"` // HH:MM
	MaxParticipants int    `json:"max_participants"`

	// Legacy participant fields, only read through the participant resolver.
	ParticipantsData []ParticipantRef `json:"participants_data,omitempty"`
	ParticipantsList []string         `json:"participants_list,omitempty"`

	IsRecurring bool        `json:"is_recurring"`
	Recurrence  *Recurrence `json:"recurrence,omitempty"`

	Cancelled bool      `json:"cancelled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecurrenceKind returns the authoritative recurrence kind, or "" when the
// plain date/time is authoritative.
func (e Event) RecurrenceKind() RecurrenceKind {
	if !e.IsRecurring || e.Recurrence == nil {
		return ""
	}
	switch e.Recurrence.Kind {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurCustom:
		return e.Recurrence.Kind
	}
	return ""
}

// EventProfile is the participant snapshot taken once an event is past.
type EventProfile struct {
	EventID      string    `json:"event_id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// RequestType separates organizer invites from attendee join requests.
// The empty type is a legacy untyped join.
type RequestType string

const (
	RequestJoin   RequestType = "join"
	RequestInvite RequestType = "invite"
)

// IsJoin reports whether t is a join request, including legacy untyped rows.
func (t RequestType) IsJoin() bool {
	return t == RequestJoin || t == ""
}

// EventRequest represents a row in the event_requests table.
type EventRequest struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	FromUserID  string        `json:"from_user_id"`
	ToUserID    string        `json:"to_user_id,omitempty"` // invites only
	Type        RequestType   `json:"type"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

// ParticipantID is the user who becomes a member when the request is
// accepted: the invitee for invites, the requester otherwise.
func (r EventRequest) ParticipantID() string {
	if r.Type == RequestInvite {
		return r.ToUserID
	}
	return r.FromUserID
}

// CreateEventRequest is the body of POST /events and PATCH /events/{eventID}.
type CreateEventRequest struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Date             string      `json:"date"`
	Time             string      `json:"time"`
	MaxParticipants  int         `json:"max_participants"`
	IsRecurring      bool        `json:"is_recurring"`
	Recurrence       *Recurrence `json:"recurrence,omitempty"`
	ParticipantsList []string    `json:"participants_list,omitempty"`
}

// InviteRequest is the body of POST /events/{eventID}/invite.
type InviteRequest struct {
	UserID string `json:"user_id"`
}
