package membership_test

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-social-network/membership"
	"events-social-network/models"
)

func newClassifier() *membership.Classifier {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return membership.NewClassifier(log)
}

func TestIncoming_FriendRequests(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.FriendRequests = []models.FriendRequest{
		friendReq("f1", "dave", "alice", models.StatusPending, 1),
		friendReq("f2", "dave", "alice", models.StatusPending, 2),
		friendReq("f3", "bob", "alice", models.StatusRejected, 3),
		friendReq("f4", "carol", "alice", models.StatusAccepted, 4),
		friendReq("f5", "ghost", "alice", models.StatusPending, 5),
		friendReq("f6", "alice", "dave", models.StatusPending, 6),
	}

	view := newClassifier().Incoming(s, "alice", now)

	assert.Equal(t, []string{"f1"}, ids(view.Included))
	assert.Equal(t, membership.KindFriend, view.Included[0].Kind)
	assert.Equal(t, "dave", view.Included[0].UserID)
	assert.Equal(t, membership.ReasonDuplicate, reasonFor(view, "f2"))
	assert.Equal(t, membership.ReasonUserMissing, reasonFor(view, "f5"))
}

func TestIncoming_Invites(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(s *membership.Snapshot)
		invite models.EventRequest
		reason membership.Reason
	}{
		{
			name:   "valid invite from friend organizer",
			invite: inviteReq("i1", "party", "alice", "carol", models.StatusPending, 1),
		},
		{
			name:   "event no longer exists",
			invite: inviteReq("i1", "gone", "alice", "carol", models.StatusPending, 1),
			reason: membership.ReasonEventMissing,
		},
		{
			name:   "inviter is not the organizer",
			invite: inviteReq("i1", "party", "bob", "carol", models.StatusPending, 1),
			reason: membership.ReasonInviterNotOrganizer,
		},
		{
			name: "organizer is not a friend",
			mutate: func(s *membership.Snapshot) {
				s.Friends["alice"] = nil
			},
			invite: inviteReq("i1", "party", "alice", "carol", models.StatusPending, 1),
			reason: membership.ReasonNotFriends,
		},
		{
			name: "pending friend request between the two",
			mutate: func(s *membership.Snapshot) {
				s.FriendRequests = append(s.FriendRequests, friendReq("f1", "carol", "alice", models.StatusPending, 0))
			},
			invite: inviteReq("i1", "party", "alice", "carol", models.StatusPending, 1),
			reason: membership.ReasonPendingFriendship,
		},
		{
			name: "already a member",
			mutate: func(s *membership.Snapshot) {
				s.Events[0].ParticipantsData = []models.ParticipantRef{{UserID: "carol"}}
			},
			invite: inviteReq("i1", "party", "alice", "carol", models.StatusPending, 1),
			reason: membership.ReasonAlreadyMember,
		},
		{
			name: "event cancelled",
			mutate: func(s *membership.Snapshot) {
				s.Events[0].Cancelled = true
			},
			invite: inviteReq("i1", "party", "alice", "carol", models.StatusPending, 1),
			reason: membership.ReasonEventCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := baseSnapshot()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			s.EventRequests = append(s.EventRequests, tt.invite)

			view := newClassifier().Incoming(s, "carol", now)

			if tt.reason == "" {
				require.Equal(t, []string{"i1"}, ids(view.Included))
				got := view.Included[0]
				assert.True(t, got.IsInvite())
				assert.Equal(t, "party", got.EventID())
				assert.True(t, got.Actionable())
				return
			}
			assert.Empty(t, view.Included)
			assert.Equal(t, tt.reason, reasonFor(view, "i1"))
		})
	}
}

func TestIncoming_InviteBlockedUntilFriendshipResolves(t *testing.T) {
	t.Parallel()

	c := newClassifier()
	s := baseSnapshot()
	s.EventRequests = []models.EventRequest{inviteReq("i1", "party", "alice", "carol", models.StatusPending, 1)}
	s.FriendRequests = []models.FriendRequest{friendReq("f1", "alice", "carol", models.StatusPending, 0)}

	view := c.Incoming(s, "carol", now)
	assert.Equal(t, []string{"f1"}, ids(view.Included), "only the friend request is shown")
	assert.Equal(t, membership.ReasonPendingFriendship, reasonFor(view, "i1"))

	s.FriendRequests[0].Status = models.StatusAccepted
	assert.Equal(t, []string{"i1"}, ids(c.Incoming(s, "carol", now).Included))
}

func TestIncoming_JoinRequestsBusinessVsPersonal(t *testing.T) {
	t.Parallel()

	c := newClassifier()

	business := baseSnapshot()
	business.EventRequests = []models.EventRequest{joinReq("j1", "expo", "alice", models.StatusPending, 1)}
	view := c.Incoming(business, "bob", now)
	require.Equal(t, []string{"j1"}, ids(view.Included))
	assert.True(t, view.Included[0].Event.IsBusinessAccount)
	assert.True(t, view.Included[0].Actionable())

	business.EventRequests[0].Status = models.StatusAccepted
	view = c.Incoming(business, "bob", now)
	require.Equal(t, []string{"j1"}, ids(view.Included), "business organizers keep accepted joins as notices")
	assert.False(t, view.Included[0].Actionable())

	personal := baseSnapshot()
	personal.Users[1].AccountType = models.AccountPersonal
	personal.EventRequests = []models.EventRequest{joinReq("j1", "expo", "alice", models.StatusAccepted, 1)}
	assert.Empty(t, c.Incoming(personal, "bob", now).Included)
}

func TestIncoming_JoinRequestFilters(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.EventRequests = []models.EventRequest{
		joinReq("j1", "party", "carol", models.StatusPending, 1),
		{ID: "j2", EventID: "party", FromUserID: "dave", Status: models.StatusPending, CreatedAt: at(2)}, // legacy untyped
		joinReq("j3", "party", "alice", models.StatusPending, 3),
		joinReq("j4", "old", "carol", models.StatusPending, 4),
		joinReq("j5", "party", "carol", models.StatusPending, 5),
		joinReq("j6", "party", "bob", models.StatusRejected, 6),
		joinReq("j7", "expo", "carol", models.StatusPending, 7),
	}

	view := newClassifier().Incoming(s, "alice", now)

	assert.Equal(t, []string{"j1", "j2"}, ids(view.Included))
	assert.Equal(t, membership.ReasonSelfRequest, reasonFor(view, "j3"))
	assert.Equal(t, membership.ReasonEventPast, reasonFor(view, "j4"))
	assert.Equal(t, membership.ReasonDuplicate, reasonFor(view, "j5"))
	assert.Equal(t, membership.Reason(""), reasonFor(view, "j7"), "other organizers' events are not candidates")
}

func TestIncoming_OrderFriendsThenEvents(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.EventRequests = []models.EventRequest{
		joinReq("j1", "party", "carol", models.StatusPending, 1),
	}
	s.FriendRequests = []models.FriendRequest{
		friendReq("f1", "dave", "alice", models.StatusPending, 9),
	}

	view := newClassifier().Incoming(s, "alice", now)
	assert.Equal(t, []string{"f1", "j1"}, ids(view.Included))
	assert.Equal(t, []string{"j1", "f1"}, ids(membership.SortByCreatedAt(view.Included)))
}

func TestOutgoing_FriendRequests(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.FriendRequests = []models.FriendRequest{
		friendReq("f1", "alice", "dave", models.StatusPending, 1),
		friendReq("f2", "alice", "bob", models.StatusRejected, 2),
		friendReq("f3", "alice", "carol", models.StatusAccepted, 3),
		friendReq("f4", "alice", "bob", models.StatusPending, 4),
		friendReq("f5", "bob", "alice", models.StatusPending, 5),
	}

	out := newClassifier().Outgoing(s, "alice", now)
	assert.Equal(t, []string{"f1", "f3"}, ids(out.Included))
	assert.Equal(t, membership.ReasonContradictoryPair, reasonFor(out, "f4"))

	in := newClassifier().Incoming(s, "alice", now)
	assert.Equal(t, []string{"f5"}, ids(in.Included), "incoming half of the pair stays actionable")
}

func TestOutgoing_EventRequests(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.EventRequests = []models.EventRequest{
		inviteReq("i1", "party", "alice", "carol", models.StatusPending, 1),
		inviteReq("i2", "party", "alice", "dave", models.StatusAccepted, 2),
		inviteReq("i3", "party", "alice", "bob", models.StatusRejected, 3),
		joinReq("j1", "expo", "alice", models.StatusPending, 4),
		joinReq("j2", "old", "alice", models.StatusPending, 5),
		joinReq("j3", "party", "alice", models.StatusPending, 6),
		joinReq("j4", "gone", "alice", models.StatusPending, 7),
	}

	out := newClassifier().Outgoing(s, "alice", now)

	assert.Equal(t, []string{"i1", "i2", "j1"}, ids(out.Included))
	assert.Equal(t, membership.ReasonEventPast, reasonFor(out, "j2"))
	assert.Equal(t, membership.ReasonOwnEvent, reasonFor(out, "j3"))
	assert.Equal(t, membership.ReasonEventMissing, reasonFor(out, "j4"))

	join, _ := membership.Find(out.Included, "j1")
	assert.Equal(t, "bob", join.UserID)
	assert.True(t, join.Event.IsBusinessAccount)
	assert.False(t, join.Actionable(), "outgoing requests are never actionable")
}

func TestClassify_RejectedNeverVisible(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.FriendRequests = []models.FriendRequest{
		friendReq("f1", "dave", "carol", models.StatusRejected, 1),
		friendReq("f2", "carol", "dave", models.StatusRejected, 2),
	}
	s.EventRequests = []models.EventRequest{
		inviteReq("i1", "party", "alice", "carol", models.StatusRejected, 3),
		inviteReq("i2", "expo", "bob", "carol", models.StatusRejected, 4),
	}

	c := newClassifier()
	for _, user := range []string{"alice", "bob", "carol", "dave"} {
		got := c.Classify(s, user, now)
		for _, r := range append(got.Incoming.Included, got.Outgoing.Included...) {
			assert.NotEqual(t, models.StatusRejected, r.Status, "user %s saw rejected request %s", user, r.ID)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.FriendRequests = []models.FriendRequest{
		friendReq("f1", "dave", "alice", models.StatusPending, 1),
		friendReq("f2", "alice", "bob", models.StatusPending, 2),
	}
	s.EventRequests = []models.EventRequest{
		joinReq("j1", "party", "carol", models.StatusPending, 3),
		joinReq("j2", "expo", "alice", models.StatusAccepted, 4),
		inviteReq("i1", "party", "alice", "carol", models.StatusPending, 5),
	}

	c := newClassifier()
	assert.Equal(t, c.Classify(s, "alice", now), c.Classify(s, "alice", now))
}

func TestNewEventRequest_Validates(t *testing.T) {
	t.Parallel()

	inv := inviteReq("i1", "party", "alice", "carol", models.StatusPending, 1)

	_, err := membership.NewEventRequest(inv, membership.Incoming, "alice", membership.EventDetail{EventID: "party"})
	assert.Error(t, err, "invite flag must match the request type")

	_, err = membership.NewEventRequest(inv, membership.Incoming, "", membership.EventDetail{EventID: "party", IsInvite: true})
	assert.Error(t, err, "counterpart is required")

	bad := inv
	bad.Status = "maybe"
	_, err = membership.NewEventRequest(bad, membership.Incoming, "alice", membership.EventDetail{EventID: "party", IsInvite: true})
	assert.Error(t, err)

	_, err = membership.NewFriendRequest(models.FriendRequest{ID: "f1", Status: models.StatusPending}, membership.Incoming, "")
	assert.Error(t, err)
}
