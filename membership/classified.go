package membership

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"events-social-network/models"
)

// Kind tags the variant of a ClassifiedRequest.
type Kind string

const (
	KindEvent  Kind = "event"
	KindFriend Kind = "friend"
)

// Direction says whether the request awaits the viewer's decision or was
// initiated by the viewer.
type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
)

// EventDetail is the event-variant payload of a ClassifiedRequest.
type EventDetail struct {
	EventID           string `json:"event_id"`
	IsInvite          bool   `json:"is_invite"`
	IsBusinessAccount bool   `json:"is_business_account"`
	// Actionable is false for notices such as an auto-accepted join on a
	// business event.
	Actionable bool `json:"actionable"`
}

// ClassifiedRequest is the derived unit shown in the inbox. Event is set iff
// Kind is KindEvent. Build values with NewFriendRequest or NewEventRequest.
type ClassifiedRequest struct {
	ID        string               `json:"id"`
	Kind      Kind                 `json:"type"`
	Direction Direction            `json:"direction"`
	UserID    string               `json:"user_id"` // the other party
	Status    models.RequestStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	Event     *EventDetail         `json:"event,omitempty"`
}

var errInvalidRequest = errors.New("invalid classified request")

// NewFriendRequest wraps a friend request seen from one side.
func NewFriendRequest(fr models.FriendRequest, dir Direction, counterpart string) (ClassifiedRequest, error) {
	if fr.ID == "" || counterpart == "" || !fr.Status.Valid() {
		return ClassifiedRequest{}, fmt.Errorf("%w: friend request %q", errInvalidRequest, fr.ID)
	}
	return ClassifiedRequest{
		ID:        fr.ID,
		Kind:      KindFriend,
		Direction: dir,
		UserID:    counterpart,
		Status:    fr.Status,
		CreatedAt: fr.CreatedAt,
	}, nil
}

// NewEventRequest wraps an event request seen from one side.
func NewEventRequest(er models.EventRequest, dir Direction, counterpart string, detail EventDetail) (ClassifiedRequest, error) {
	if er.ID == "" || er.EventID == "" || counterpart == "" || !er.Status.Valid() {
		return ClassifiedRequest{}, fmt.Errorf("%w: event request %q", errInvalidRequest, er.ID)
	}
	if detail.EventID != er.EventID || detail.IsInvite != (er.Type == models.RequestInvite) {
		return ClassifiedRequest{}, fmt.Errorf("%w: event request %q detail mismatch", errInvalidRequest, er.ID)
	}
	return ClassifiedRequest{
		ID:        er.ID,
		Kind:      KindEvent,
		Direction: dir,
		UserID:    counterpart,
		Status:    er.Status,
		CreatedAt: er.CreatedAt,
		Event:     &detail,
	}, nil
}

// IsInvite reports whether r is an event invite.
func (r ClassifiedRequest) IsInvite() bool {
	return r.Kind == KindEvent && r.Event != nil && r.Event.IsInvite
}

// EventID returns the referenced event, or "" for friend requests.
func (r ClassifiedRequest) EventID() string {
	if r.Event == nil {
		return ""
	}
	return r.Event.EventID
}

// Actionable reports whether the viewer can accept or decline r.
func (r ClassifiedRequest) Actionable() bool {
	if r.Direction != Incoming {
		return false
	}
	if r.Kind == KindEvent && r.Event != nil {
		return r.Event.Actionable
	}
	return r.Status == models.StatusPending
}

// SortByCreatedAt returns a copy of list ordered oldest first. Ties keep
// their classifier order.
func SortByCreatedAt(list []ClassifiedRequest) []ClassifiedRequest {
	out := append([]ClassifiedRequest(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Find returns the request with the given id.
func Find(list []ClassifiedRequest, id string) (ClassifiedRequest, bool) {
	for _, r := range list {
		if r.ID == id {
			return r, true
		}
	}
	return ClassifiedRequest{}, false
}
