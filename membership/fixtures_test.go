package membership_test

import (
	"time"

	"events-social-network/membership"
	"events-social-network/models"
)

var (
	alice = models.User{ID: "alice", Username: "alice", AccountType: models.AccountPersonal, Avatar: "https://img.test/alice.png"}
	bob   = models.User{ID: "bob", Username: "bob", AccountType: models.AccountBusiness, Avatar: "https://img.test/bob.png"}
	carol = models.User{ID: "carol", Username: "carol", AccountType: models.AccountPersonal, Avatar: "https://img.test/carol.png"}
	dave  = models.User{ID: "dave", Username: "dave", AccountType: models.AccountPersonal}
)

var created = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return created.Add(time.Duration(minutes) * time.Minute)
}

func friendReq(id, from, to string, status models.RequestStatus, minute int) models.FriendRequest {
	return models.FriendRequest{ID: id, FromUserID: from, ToUserID: to, Status: status, CreatedAt: at(minute)}
}

func joinReq(id, eventID, from string, status models.RequestStatus, minute int) models.EventRequest {
	return models.EventRequest{ID: id, EventID: eventID, FromUserID: from, Type: models.RequestJoin, Status: status, CreatedAt: at(minute)}
}

func inviteReq(id, eventID, from, to string, status models.RequestStatus, minute int) models.EventRequest {
	return models.EventRequest{ID: id, EventID: eventID, FromUserID: from, ToUserID: to, Type: models.RequestInvite, Status: status, CreatedAt: at(minute)}
}

// baseSnapshot: alice organizes "party" (personal), bob organizes "expo"
// (business), alice also organized "old" which is past. alice and carol are
// friends, bob and carol are friends.
func baseSnapshot() membership.Snapshot {
	return membership.Snapshot{
		Users: []models.User{alice, bob, carol, dave},
		Events: []models.Event{
			{ID: "party", OrganizerID: "alice", Date: "2026-11-01", Time: "20:00", MaxParticipants: 3},
			{ID: "expo", OrganizerID: "bob", Date: "2026-11-05", Time: "10:00", MaxParticipants: 100},
			{ID: "old", OrganizerID: "alice", Date: "2026-01-01", Time: "20:00"},
		},
		Friends: map[string][]string{
			"alice": {"carol"},
			"bob":   {"carol"},
			"carol": {"alice", "bob"},
		},
	}
}

func ids(list []membership.ClassifiedRequest) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func reasonFor(view membership.View, id string) membership.Reason {
	for _, ex := range view.Excluded {
		if ex.RequestID == id {
			return ex.Reason
		}
	}
	return ""
}
