package membership_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"events-social-network/membership"
	"events-social-network/models"
)

func TestAcceptedParticipants_UnionsAllSources(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.Events[0].ParticipantsData = []models.ParticipantRef{{UserID: "carol"}}
	s.Events[0].ParticipantsList = []string{"https://img.test/bob.png", "https://img.test/nobody.png", ""}
	s.EventRequests = []models.EventRequest{
		joinReq("r1", "party", "dave", models.StatusAccepted, 1),
		joinReq("r2", "party", "carol", models.StatusAccepted, 2),
		joinReq("r3", "party", "eve", models.StatusPending, 3),
		inviteReq("r4", "party", "alice", "frank", models.StatusAccepted, 4),
	}
	s.Profiles = []models.EventProfile{{EventID: "party", Participants: []string{"erin"}}}

	got := membership.AcceptedParticipants(s, "party")

	assert.Equal(t, []string{"bob", "carol", "dave", "erin", "frank"}, got.Sorted())
	assert.False(t, got.Has("eve"), "pending requests are not participants")
}

func TestAcceptedParticipants_OrderIndependent(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.EventRequests = []models.EventRequest{
		joinReq("r1", "party", "dave", models.StatusAccepted, 1),
		joinReq("r2", "party", "carol", models.StatusAccepted, 2),
	}
	first := membership.AcceptedParticipants(s, "party")

	reversed := s
	reversed.EventRequests = slices.Clone(s.EventRequests)
	slices.Reverse(reversed.EventRequests)

	assert.Equal(t, first, membership.AcceptedParticipants(reversed, "party"))
	assert.Equal(t, first, membership.AcceptedParticipants(s, "party"))
}

func TestRoleOf(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.EventRequests = []models.EventRequest{
		joinReq("r1", "party", "carol", models.StatusAccepted, 1),
		joinReq("r2", "party", "dave", models.StatusPending, 2),
		joinReq("r3", "old", "carol", models.StatusAccepted, 3),
	}
	party, _ := s.FindEvent("party")
	old, _ := s.FindEvent("old")

	tests := []struct {
		name  string
		event models.Event
		user  string
		want  membership.Role
	}{
		{"organizer", party, "alice", membership.RoleOrganizer},
		{"accepted attendee", party, "carol", membership.RoleAttendee},
		{"pending requester", party, "dave", membership.RoleNonMember},
		{"stranger", party, "bob", membership.RoleNonMember},
		{"empty user", party, "", membership.RoleNonMember},
		{"past event without profile drops former attendee", old, "carol", membership.RoleNonMember},
		{"past event without profile drops organizer", old, "alice", membership.RoleNonMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			role := membership.RoleOf(s, tt.event, tt.user, now)
			assert.Equal(t, tt.want, role)
			assert.Equal(t, role != membership.RoleNonMember, membership.IsMember(s, tt.event, tt.user, now))
		})
	}
}

func TestRoleOf_PastEventUsesProfileOnly(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.EventRequests = []models.EventRequest{
		joinReq("r1", "old", "dave", models.StatusAccepted, 1),
	}
	s.Profiles = []models.EventProfile{{EventID: "old", Participants: []string{"alice", "carol"}}}
	old, _ := s.FindEvent("old")

	assert.Equal(t, membership.RoleOrganizer, membership.RoleOf(s, old, "alice", now))
	assert.Equal(t, membership.RoleAttendee, membership.RoleOf(s, old, "carol", now))
	assert.Equal(t, membership.RoleNonMember, membership.RoleOf(s, old, "dave", now),
		"live rows must not add members to a profiled past event")
}

func TestIsFull(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	party, _ := s.FindEvent("party")
	s.EventRequests = []models.EventRequest{
		joinReq("r1", "party", "carol", models.StatusAccepted, 1),
		joinReq("r2", "party", "dave", models.StatusAccepted, 2),
	}
	assert.False(t, membership.IsFull(s, party))

	s.EventRequests = append(s.EventRequests, joinReq("r3", "party", "bob", models.StatusAccepted, 3))
	assert.True(t, membership.IsFull(s, party))

	party.MaxParticipants = 0
	assert.False(t, membership.IsFull(s, party), "zero capacity means unlimited")
}

func TestResolvedStatus(t *testing.T) {
	t.Parallel()

	s := baseSnapshot()
	s.EventRequests = []models.EventRequest{
		joinReq("r1", "party", "carol", models.StatusAccepted, 1),
		joinReq("r2", "party", "dave", models.StatusRejected, 2),
		joinReq("r3", "party", "dave", models.StatusPending, 3),
		joinReq("r4", "expo", "dave", models.StatusRejected, 4),
	}

	assert.Equal(t, models.StatusAccepted, membership.ResolvedStatus(s, "party", "carol"))
	assert.Equal(t, models.StatusPending, membership.ResolvedStatus(s, "party", "dave"))
	assert.Equal(t, models.StatusRejected, membership.ResolvedStatus(s, "expo", "dave"))
	assert.Equal(t, models.RequestStatus(""), membership.ResolvedStatus(s, "expo", "carol"))
}
