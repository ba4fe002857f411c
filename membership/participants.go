package membership

import (
	"slices"
	"sort"
	"time"

	"events-social-network/models"
)

// UserSet is a deduplicated set of user ids.
type UserSet map[string]struct{}

func (s UserSet) add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

// Has reports whether id is in the set.
func (s UserSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of distinct users.
func (s UserSet) Len() int { return len(s) }

// Sorted returns the ids in ascending order.
func (s UserSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Role is a user's relationship to an event. Exactly one applies.
type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
	RoleNonMember Role = "non-member"
)

// AcceptedParticipants unions every source of participation for eventID:
// the event profile, accepted requests, participantsData and the legacy
// avatar-keyed participantsList.
func AcceptedParticipants(s Snapshot, eventID string) UserSet {
	set := UserSet{}

	if p, ok := s.Profile(eventID); ok {
		for _, id := range p.Participants {
			set.add(id)
		}
	}

	for _, r := range s.EventRequests {
		if r.EventID == eventID && r.Status == models.StatusAccepted {
			set.add(r.ParticipantID())
		}
	}

	if e, ok := s.FindEvent(eventID); ok {
		for _, id := range participantsDataIDs(e) {
			set.add(id)
		}
		for _, id := range participantsListIDs(e, s.Users) {
			set.add(id)
		}
	}

	return set
}

func participantsDataIDs(e models.Event) []string {
	ids := make([]string, 0, len(e.ParticipantsData))
	for _, p := range e.ParticipantsData {
		ids = append(ids, p.UserID)
	}
	return ids
}

// participantsListIDs maps avatar URLs back to user ids by exact match.
func participantsListIDs(e models.Event, users []models.User) []string {
	var ids []string
	for _, avatar := range e.ParticipantsList {
		if avatar == "" {
			continue
		}
		for _, u := range users {
			if u.Avatar == avatar {
				ids = append(ids, u.ID)
			}
		}
	}
	return ids
}

// RoleOf classifies userID relative to e.
//
// Once e is past, only its EventProfile counts: a user outside the profile,
// or any user when no profile exists, is a non-member. The organizer has no
// exemption from this.
func RoleOf(s Snapshot, e models.Event, userID string, now time.Time) Role {
	if userID == "" {
		return RoleNonMember
	}

	if IsPast(e, now) {
		p, ok := s.Profile(e.ID)
		if !ok || !slices.Contains(p.Participants, userID) {
			return RoleNonMember
		}
		if e.OrganizerID == userID {
			return RoleOrganizer
		}
		return RoleAttendee
	}

	if e.OrganizerID == userID {
		return RoleOrganizer
	}
	if AcceptedParticipants(s, e.ID).Has(userID) {
		return RoleAttendee
	}
	return RoleNonMember
}

// IsMember reports whether userID is the organizer or an attendee of e.
func IsMember(s Snapshot, e models.Event, userID string, now time.Time) bool {
	return RoleOf(s, e, userID, now) != RoleNonMember
}

// IsFull reports whether e has reached its capacity. A non-positive
// maxParticipants means unlimited.
func IsFull(s Snapshot, e models.Event) bool {
	if e.MaxParticipants <= 0 {
		return false
	}
	return AcceptedParticipants(s, e.ID).Len() >= e.MaxParticipants
}

// ResolvedStatus is userID's effective status on eventID: accepted when
// counted as a participant, otherwise pending or rejected from the user's
// requests, or "" when the user has no relation to the event.
func ResolvedStatus(s Snapshot, eventID, userID string) models.RequestStatus {
	if AcceptedParticipants(s, eventID).Has(userID) {
		return models.StatusAccepted
	}
	var status models.RequestStatus
	for _, r := range s.EventRequests {
		if r.EventID != eventID || r.ParticipantID() != userID {
			continue
		}
		switch r.Status {
		case models.StatusPending:
			return models.StatusPending
		case models.StatusRejected:
			status = models.StatusRejected
		}
	}
	return status
}
