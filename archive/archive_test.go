package archive_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-social-network/archive"
	"events-social-network/database"
	"events-social-network/membership"
	"events-social-network/models"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestDue(t *testing.T) {
	t.Parallel()

	s := membership.Snapshot{
		Events: []models.Event{
			{ID: "past", OrganizerID: "alice", Date: "2026-10-01", Time: "20:00"},
			{ID: "future", OrganizerID: "alice", Date: "2026-11-01", Time: "20:00"},
			{ID: "profiled", OrganizerID: "alice", Date: "2026-09-01"},
			{ID: "cancelled", OrganizerID: "alice", Date: "2026-09-02", Cancelled: true},
			{ID: "weekly", OrganizerID: "bob", Date: "2020-01-01", IsRecurring: true,
				Recurrence: &models.Recurrence{Kind: models.RecurWeekly, DaysOfWeek: []time.Weekday{time.Monday}}},
			{ID: "custom", OrganizerID: "bob", Date: "2026-10-01", IsRecurring: true,
				Recurrence: &models.Recurrence{Kind: models.RecurCustom, Dates: []string{"2026-10-01", "2026-10-08"}}},
		},
		EventRequests: []models.EventRequest{
			{ID: "r1", EventID: "past", FromUserID: "dave", Type: models.RequestJoin, Status: models.StatusAccepted},
			{ID: "r2", EventID: "past", FromUserID: "alice", ToUserID: "carol", Type: models.RequestInvite, Status: models.StatusAccepted},
			{ID: "r3", EventID: "past", FromUserID: "erin", Type: models.RequestJoin, Status: models.StatusPending},
		},
		Profiles: []models.EventProfile{{EventID: "profiled", Participants: []string{"alice"}}},
	}

	due := archive.Due(s, now)

	require.Len(t, due, 2)
	assert.Equal(t, models.EventProfile{EventID: "past", Participants: []string{"alice", "carol", "dave"}}, due[0])
	assert.Equal(t, models.EventProfile{EventID: "custom", Participants: []string{"bob"}}, due[1])
}

func TestArchiver_Run(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := database.NewStore(db)

	e, err := store.CreateEvent(ctx, models.Event{OrganizerID: "alice", Title: "Past", Date: "2026-10-01", Time: "20:00"})
	require.NoError(t, err)
	_, err = store.CreateEventRequest(ctx, models.EventRequest{EventID: e.ID, FromUserID: "carol", Type: models.RequestJoin, Status: models.StatusAccepted})
	require.NoError(t, err)

	a := archive.New(store, time.UTC, quietLogger()).WithClock(func() time.Time { return now })

	n, err := a.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = a.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "profiles are written once")

	p, ok, err := store.EventProfile(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "carol"}, p.Participants)

	snap, err := membership.LoadSnapshot(ctx, store, "carol")
	require.NoError(t, err)
	assert.Equal(t, membership.RoleAttendee, membership.RoleOf(snap, e, "carol", now))
	assert.Equal(t, membership.RoleOrganizer, membership.RoleOf(snap, e, "alice", now))
}

func TestArchiver_Schedule(t *testing.T) {
	t.Parallel()

	a := archive.New(nil, time.UTC, quietLogger())

	c, err := a.Schedule("off")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = a.Schedule("not a schedule")
	assert.Error(t, err)

	c, err = a.Schedule("@every 1h")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Len(t, c.Entries(), 1)
	c.Stop()
}
