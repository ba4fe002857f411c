// Package calendar renders events as iCalendar documents for invite
// previews and calendar downloads.
package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"events-social-network/membership"
	"events-social-network/models"
)

const productID = "-//events-social-network//invite preview//EN"

// defaultDuration is used as DTEND since events carry no end time.
const defaultDuration = 2 * time.Hour

// Invite is what a preview calendar describes: the event, who organizes it
// and, for invites, who is being invited.
type Invite struct {
	Event     models.Event
	Organizer models.User
	Invitee   *models.User
	// InviteID, when set, is used to derive a stable UID per invite.
	InviteID string
}

// Render builds a VCALENDAR with a single VEVENT for inv. Event times are
// interpreted in loc.
func Render(inv Invite, loc *time.Location, stamp time.Time) (string, error) {
	e := inv.Event
	start, err := membership.EventDateTime(e, loc)
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	if inv.Invitee != nil {
		cal.SetMethod(ical.MethodRequest)
	} else {
		cal.SetMethod(ical.MethodPublish)
	}

	uid := e.ID + "@events-social-network"
	if inv.InviteID != "" {
		uid = inv.InviteID + "." + uid
	}
	vevent := cal.AddEvent(uid)
	vevent.SetDtStampTime(stamp)
	if !e.CreatedAt.IsZero() {
		vevent.SetCreatedTime(e.CreatedAt)
		vevent.SetModifiedAt(e.UpdatedAt)
	}
	vevent.SetStartAt(start)
	vevent.SetEndAt(start.Add(defaultDuration))
	vevent.SetSummary(e.Title)
	if e.Description != "" {
		vevent.SetDescription(e.Description)
	}
	vevent.SetOrganizer(userAddress(inv.Organizer), ical.WithCN(displayName(inv.Organizer)))
	if inv.Invitee != nil {
		vevent.AddAttendee(userAddress(*inv.Invitee),
			ical.WithCN(displayName(*inv.Invitee)),
			ical.ParticipationStatusNeedsAction,
			ical.WithRSVP(true),
		)
	}
	if e.Cancelled {
		vevent.SetStatus(ical.ObjectStatusCancelled)
	} else {
		vevent.SetStatus(ical.ObjectStatusConfirmed)
	}

	if rule, ok := membership.RecurrenceRule(e); ok {
		vevent.AddRrule(rule)
	}
	if e.RecurrenceKind() == models.RecurCustom {
		for _, d := range e.Recurrence.Dates {
			occ, err := membership.EventDateTime(models.Event{ID: e.ID, Date: d, Time: e.Time}, loc)
			if err != nil || occ.Equal(start) {
				continue
			}
			vevent.AddProperty(ical.ComponentPropertyRdate, occ.UTC().Format("20060102T150405Z"))
		}
	}

	return cal.Serialize(), nil
}

func userAddress(u models.User) string {
	if u.Email != "" {
		return "mailto:" + u.Email
	}
	return fmt.Sprintf("urn:uuid:%s", u.ID)
}

func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
