package calendar_test

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-social-network/calendar"
	"events-social-network/models"
)

var stamp = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

var (
	organizer = models.User{ID: "u-alice", Username: "alice", Name: "Alice", Email: "alice@example.test"}
	invitee   = models.User{ID: "u-carol", Username: "carol"}
)

func parse(t *testing.T, doc string) *ical.VEvent {
	t.Helper()

	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	return events[0]
}

func propValue(ev *ical.VEvent, p ical.ComponentProperty) string {
	prop := ev.GetProperty(p)
	if prop == nil {
		return ""
	}
	return prop.Value
}

func TestRender_Invite(t *testing.T) {
	t.Parallel()

	e := models.Event{ID: "party", Title: "Rooftop party", Description: "Bring snacks", Date: "2026-11-01", Time: "20:00"}
	doc, err := calendar.Render(calendar.Invite{Event: e, Organizer: organizer, Invitee: &invitee, InviteID: "i1"}, time.UTC, stamp)
	require.NoError(t, err)

	assert.Contains(t, doc, "METHOD:REQUEST")

	ev := parse(t, doc)
	assert.Equal(t, "i1.party@events-social-network", propValue(ev, ical.ComponentPropertyUniqueId))
	assert.Equal(t, "Rooftop party", propValue(ev, ical.ComponentPropertySummary))
	assert.Equal(t, "20261101T200000Z", propValue(ev, ical.ComponentPropertyDtStart))
	assert.Equal(t, "mailto:alice@example.test", propValue(ev, ical.ComponentPropertyOrganizer))
	assert.Equal(t, "CONFIRMED", propValue(ev, ical.ComponentPropertyStatus))
	assert.Contains(t, propValue(ev, ical.ComponentPropertyAttendee), "u-carol")
	assert.Empty(t, propValue(ev, ical.ComponentPropertyRrule))
}

func TestRender_WeeklyPublishesRule(t *testing.T) {
	t.Parallel()

	e := models.Event{
		ID: "yoga", Title: "Yoga", Date: "2026-10-05", Time: "07:30",
		IsRecurring: true,
		Recurrence:  &models.Recurrence{Kind: models.RecurWeekly, DaysOfWeek: []time.Weekday{time.Monday}},
	}
	doc, err := calendar.Render(calendar.Invite{Event: e, Organizer: organizer}, time.UTC, stamp)
	require.NoError(t, err)

	assert.Contains(t, doc, "METHOD:PUBLISH")
	ev := parse(t, doc)
	rule := propValue(ev, ical.ComponentPropertyRrule)
	assert.Contains(t, rule, "FREQ=WEEKLY")
	assert.Contains(t, rule, "BYDAY=MO")
}

func TestRender_CustomDatesAndCancelled(t *testing.T) {
	t.Parallel()

	e := models.Event{
		ID: "tour", Title: "Tour", Date: "2026-10-20", Time: "19:00", Cancelled: true,
		IsRecurring: true,
		Recurrence:  &models.Recurrence{Kind: models.RecurCustom, Dates: []string{"2026-10-20", "2026-10-27", "bogus"}},
	}
	doc, err := calendar.Render(calendar.Invite{Event: e, Organizer: organizer}, time.UTC, stamp)
	require.NoError(t, err)

	ev := parse(t, doc)
	assert.Equal(t, "CANCELLED", propValue(ev, ical.ComponentPropertyStatus))
	assert.Contains(t, doc, "RDATE:20261027T190000Z")
	assert.Equal(t, 1, strings.Count(doc, "RDATE"), "the first date is DTSTART and bad dates are skipped")
}

func TestRender_InvalidDate(t *testing.T) {
	t.Parallel()

	_, err := calendar.Render(calendar.Invite{Event: models.Event{ID: "x", Date: "soon"}}, time.UTC, stamp)
	assert.Error(t, err)
}
