package membership

import (
	"time"

	"github.com/sirupsen/logrus"

	"events-social-network/models"
)

// Reason explains why a candidate request was left out of a view.
type Reason string

const (
	ReasonDuplicate           Reason = "duplicate"
	ReasonUserMissing         Reason = "user_missing"
	ReasonEventMissing        Reason = "event_missing"
	ReasonEventCancelled      Reason = "event_cancelled"
	ReasonEventPast           Reason = "event_past"
	ReasonInviterNotOrganizer Reason = "inviter_not_organizer"
	ReasonNotFriends          Reason = "not_friends"
	ReasonPendingFriendship   Reason = "pending_friendship"
	ReasonOwnEvent            Reason = "own_event"
	ReasonAlreadyMember       Reason = "already_member"
	ReasonSelfRequest         Reason = "self_request"
	ReasonContradictoryPair   Reason = "contradictory_pair"
	ReasonStatusResolved      Reason = "status_resolved"
	ReasonInvalid             Reason = "invalid"
)

// warnReasons point at corrupted upstream data rather than normal filtering.
var warnReasons = map[Reason]bool{
	ReasonInviterNotOrganizer: true,
	ReasonContradictoryPair:   true,
	ReasonSelfRequest:         true,
	ReasonInvalid:             true,
}

// Exclusion records a candidate that was dropped from a view.
type Exclusion struct {
	RequestID string `json:"request_id"`
	Kind      Kind   `json:"type"`
	Reason    Reason `json:"reason"`
}

// View is one side of the inbox with its exclusions.
type View struct {
	Included []ClassifiedRequest `json:"included"`
	Excluded []Exclusion         `json:"excluded"`
}

// Classification holds both views for one viewer.
type Classification struct {
	Incoming View `json:"incoming"`
	Outgoing View `json:"outgoing"`
}

// Classifier builds incoming and outgoing views. It holds no state besides
// its logger; every call is a projection of the snapshot it is given.
type Classifier struct {
	log logrus.FieldLogger
}

// NewClassifier returns a Classifier logging exclusions to log. A nil log
// uses the logrus standard logger.
func NewClassifier(log logrus.FieldLogger) *Classifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Classifier{log: log.WithField("component", "classifier")}
}

// Classify computes both views for currentUserID.
func (c *Classifier) Classify(s Snapshot, currentUserID string, now time.Time) Classification {
	return Classification{
		Incoming: c.Incoming(s, currentUserID, now),
		Outgoing: c.Outgoing(s, currentUserID, now),
	}
}

type viewBuilder struct {
	log  logrus.FieldLogger
	view View
}

func (b *viewBuilder) include(r ClassifiedRequest) {
	b.view.Included = append(b.view.Included, r)
}

func (b *viewBuilder) exclude(id string, kind Kind, reason Reason) {
	b.view.Excluded = append(b.view.Excluded, Exclusion{RequestID: id, Kind: kind, Reason: reason})
	entry := b.log.WithFields(logrus.Fields{"request_id": id, "type": kind, "reason": reason})
	if warnReasons[reason] {
		entry.Warn("request excluded")
		return
	}
	entry.Debug("request excluded")
}

func (b *viewBuilder) result() View {
	if b.view.Included == nil {
		b.view.Included = []ClassifiedRequest{}
	}
	if b.view.Excluded == nil {
		b.view.Excluded = []Exclusion{}
	}
	return b.view
}

// Incoming lists the requests waiting for currentUserID's decision:
// friend requests, then invites, then join requests on events the user
// organizes.
func (c *Classifier) Incoming(s Snapshot, currentUserID string, now time.Time) View {
	b := &viewBuilder{log: c.log.WithFields(logrus.Fields{"user_id": currentUserID, "view": Incoming})}

	c.incomingFriendRequests(b, s, currentUserID)
	c.incomingInvites(b, s, currentUserID, now)
	c.incomingJoinRequests(b, s, currentUserID, now)

	return b.result()
}

func (c *Classifier) incomingFriendRequests(b *viewBuilder, s Snapshot, me string) {
	seen := make(map[string]bool)
	for _, fr := range s.FriendRequests {
		if fr.ToUserID != me || fr.Status != models.StatusPending {
			continue
		}
		switch {
		case fr.FromUserID == me:
			b.exclude(fr.ID, KindFriend, ReasonSelfRequest)
			continue
		case !s.hasUser(fr.FromUserID):
			b.exclude(fr.ID, KindFriend, ReasonUserMissing)
			continue
		case seen[fr.FromUserID]:
			b.exclude(fr.ID, KindFriend, ReasonDuplicate)
			continue
		}
		seen[fr.FromUserID] = true

		cr, err := NewFriendRequest(fr, Incoming, fr.FromUserID)
		if err != nil {
			b.exclude(fr.ID, KindFriend, ReasonInvalid)
			continue
		}
		b.include(cr)
	}
}

func (c *Classifier) incomingInvites(b *viewBuilder, s Snapshot, me string, now time.Time) {
	seen := make(map[string]bool)
	for _, er := range s.EventRequests {
		if er.Status != models.StatusPending || er.Type != models.RequestInvite || er.ToUserID != me {
			continue
		}

		ev, ok := s.FindEvent(er.EventID)
		if !ok {
			b.exclude(er.ID, KindEvent, ReasonEventMissing)
			continue
		}
		if reason, excluded := inviteExclusion(s, ev, er, me, now); excluded {
			b.exclude(er.ID, KindEvent, reason)
			continue
		}
		if seen[ev.ID] {
			b.exclude(er.ID, KindEvent, ReasonDuplicate)
			continue
		}
		seen[ev.ID] = true

		cr, err := NewEventRequest(er, Incoming, er.FromUserID, EventDetail{
			EventID:           ev.ID,
			IsInvite:          true,
			IsBusinessAccount: isBusiness(s, ev.OrganizerID),
			Actionable:        true,
		})
		if err != nil {
			b.exclude(er.ID, KindEvent, ReasonInvalid)
			continue
		}
		b.include(cr)
	}
}

// inviteExclusion applies the invite eligibility rules in order and returns
// the first one that fails.
func inviteExclusion(s Snapshot, ev models.Event, er models.EventRequest, me string, now time.Time) (Reason, bool) {
	switch {
	case ev.Cancelled:
		return ReasonEventCancelled, true
	case er.FromUserID != ev.OrganizerID:
		return ReasonInviterNotOrganizer, true
	case !s.areFriends(ev.OrganizerID, me):
		return ReasonNotFriends, true
	case s.pendingFriendRequestBetween(me, er.FromUserID):
		return ReasonPendingFriendship, true
	case ev.OrganizerID == me:
		return ReasonOwnEvent, true
	case IsMember(s, ev, me, now):
		return ReasonAlreadyMember, true
	}
	return "", false
}

func (c *Classifier) incomingJoinRequests(b *viewBuilder, s Snapshot, me string, now time.Time) {
	business := isBusiness(s, me)
	seen := make(map[string]bool)

	for _, er := range s.EventRequests {
		if !er.Type.IsJoin() {
			continue
		}
		ev, ok := s.FindEvent(er.EventID)
		if !ok || ev.OrganizerID != me {
			continue
		}
		visible := er.Status == models.StatusPending || (business && er.Status == models.StatusAccepted)
		if !visible {
			continue
		}

		switch {
		case ev.Cancelled:
			b.exclude(er.ID, KindEvent, ReasonEventCancelled)
			continue
		case !IsUpcoming(ev, now):
			b.exclude(er.ID, KindEvent, ReasonEventPast)
			continue
		case er.FromUserID == ev.OrganizerID:
			b.exclude(er.ID, KindEvent, ReasonSelfRequest)
			continue
		case !s.hasUser(er.FromUserID):
			b.exclude(er.ID, KindEvent, ReasonUserMissing)
			continue
		}
		key := ev.ID + "/" + er.FromUserID
		if seen[key] {
			b.exclude(er.ID, KindEvent, ReasonDuplicate)
			continue
		}
		seen[key] = true

		cr, err := NewEventRequest(er, Incoming, er.FromUserID, EventDetail{
			EventID:           ev.ID,
			IsBusinessAccount: business,
			Actionable:        er.Status == models.StatusPending,
		})
		if err != nil {
			b.exclude(er.ID, KindEvent, ReasonInvalid)
			continue
		}
		b.include(cr)
	}
}

// Outgoing lists the requests currentUserID initiated: friend requests,
// then invites sent and join requests made.
func (c *Classifier) Outgoing(s Snapshot, currentUserID string, now time.Time) View {
	b := &viewBuilder{log: c.log.WithFields(logrus.Fields{"user_id": currentUserID, "view": Outgoing})}

	c.outgoingFriendRequests(b, s, currentUserID)
	c.outgoingEventRequests(b, s, currentUserID, now)

	return b.result()
}

func (c *Classifier) outgoingFriendRequests(b *viewBuilder, s Snapshot, me string) {
	seen := make(map[string]bool)
	for _, fr := range s.FriendRequests {
		if fr.FromUserID != me || fr.Status == models.StatusRejected {
			continue
		}
		switch {
		case fr.ToUserID == me:
			b.exclude(fr.ID, KindFriend, ReasonSelfRequest)
			continue
		case !s.hasUser(fr.ToUserID):
			b.exclude(fr.ID, KindFriend, ReasonUserMissing)
			continue
		case fr.Status == models.StatusPending && hasPendingFrom(s, fr.ToUserID, me):
			// The incoming half stays actionable and resolves both.
			b.exclude(fr.ID, KindFriend, ReasonContradictoryPair)
			continue
		case seen[fr.ToUserID]:
			b.exclude(fr.ID, KindFriend, ReasonDuplicate)
			continue
		}
		seen[fr.ToUserID] = true

		cr, err := NewFriendRequest(fr, Outgoing, fr.ToUserID)
		if err != nil {
			b.exclude(fr.ID, KindFriend, ReasonInvalid)
			continue
		}
		b.include(cr)
	}
}

func hasPendingFrom(s Snapshot, from, to string) bool {
	for _, fr := range s.FriendRequests {
		if fr.FromUserID == from && fr.ToUserID == to && fr.Status == models.StatusPending {
			return true
		}
	}
	return false
}

func (c *Classifier) outgoingEventRequests(b *viewBuilder, s Snapshot, me string, now time.Time) {
	seenInvites := make(map[string]bool)
	seenJoins := make(map[string]bool)

	for _, er := range s.EventRequests {
		if er.FromUserID != me || er.Status == models.StatusRejected {
			continue
		}
		ev, ok := s.FindEvent(er.EventID)
		if !ok {
			b.exclude(er.ID, KindEvent, ReasonEventMissing)
			continue
		}

		if er.Type == models.RequestInvite {
			key := ev.ID + "/" + er.ToUserID
			switch {
			case !s.hasUser(er.ToUserID):
				b.exclude(er.ID, KindEvent, ReasonUserMissing)
				continue
			case seenInvites[key]:
				b.exclude(er.ID, KindEvent, ReasonDuplicate)
				continue
			}
			seenInvites[key] = true

			cr, err := NewEventRequest(er, Outgoing, er.ToUserID, EventDetail{
				EventID:           ev.ID,
				IsInvite:          true,
				IsBusinessAccount: isBusiness(s, ev.OrganizerID),
			})
			if err != nil {
				b.exclude(er.ID, KindEvent, ReasonInvalid)
				continue
			}
			b.include(cr)
			continue
		}

		if !er.Type.IsJoin() {
			b.exclude(er.ID, KindEvent, ReasonInvalid)
			continue
		}
		switch status := ResolvedStatus(s, ev.ID, me); {
		case ev.Cancelled:
			b.exclude(er.ID, KindEvent, ReasonEventCancelled)
			continue
		case !IsUpcoming(ev, now):
			b.exclude(er.ID, KindEvent, ReasonEventPast)
			continue
		case ev.OrganizerID == me:
			b.exclude(er.ID, KindEvent, ReasonOwnEvent)
			continue
		case status != models.StatusPending && status != models.StatusAccepted:
			b.exclude(er.ID, KindEvent, ReasonStatusResolved)
			continue
		case seenJoins[ev.ID]:
			b.exclude(er.ID, KindEvent, ReasonDuplicate)
			continue
		}
		seenJoins[ev.ID] = true

		cr, err := NewEventRequest(er, Outgoing, ev.OrganizerID, EventDetail{
			EventID:           ev.ID,
			IsBusinessAccount: isBusiness(s, ev.OrganizerID),
		})
		if err != nil {
			b.exclude(er.ID, KindEvent, ReasonInvalid)
			continue
		}
		b.include(cr)
	}
}

func isBusiness(s Snapshot, userID string) bool {
	u, ok := s.User(userID)
	return ok && u.IsBusiness()
}
