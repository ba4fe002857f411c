package membership

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"events-social-network/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// EventDateTime combines the event's date and HH:MM time into an instant in
// loc. A missing time means midnight.
func EventDateTime(e models.Event, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	clock := e.Time
	if clock == "" {
		clock = "00:00"
	}
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, e.Date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: parse start %q %q: %w", e.ID, e.Date, e.Time, err)
	}
	return t, nil
}

// IsUpcoming reports whether e still lies ahead of now.
//
// Daily, weekly and monthly events are always upcoming: they have no end
// date and occur again whether or not today's slot has elapsed. Custom
// events are upcoming while any listed date is today or later, compared by
// date only. Plain events are upcoming while their start is after now.
func IsUpcoming(e models.Event, now time.Time) bool {
	switch e.RecurrenceKind() {
	case models.RecurDaily, models.RecurWeekly, models.RecurMonthly:
		return true
	case models.RecurCustom:
		today := startOfDay(now)
		for _, d := range e.Recurrence.Dates {
			t, err := time.ParseInLocation(dateLayout, d, now.Location())
			if err != nil {
				continue
			}
			if !t.Before(today) {
				return true
			}
		}
		return false
	}

	start, err := EventDateTime(e, now.Location())
	if err != nil {
		return false
	}
	return start.After(now)
}

// IsPast is the complement of IsUpcoming. A start exactly at now is past,
// and so is a custom event with no dates.
func IsPast(e models.Event, now time.Time) bool {
	return !IsUpcoming(e, now)
}

// NextOccurrence returns the next start of e at or after now.
func NextOccurrence(e models.Event, now time.Time) (time.Time, bool) {
	loc := now.Location()

	switch kind := e.RecurrenceKind(); kind {
	case models.RecurDaily, models.RecurWeekly, models.RecurMonthly:
		anchor, err := EventDateTime(e, loc)
		if err != nil {
			anchor, err = EventDateTime(models.Event{Date: now.Format(dateLayout), Time: e.Time}, loc)
			if err != nil {
				anchor = startOfDay(now)
			}
		}
		r, err := rrule.NewRRule(recurrenceOption(kind, e.Recurrence, anchor))
		if err != nil {
			return time.Time{}, false
		}
		next := r.After(now, true)
		return next, !next.IsZero()

	case models.RecurCustom:
		today := startOfDay(now)
		var starts []time.Time
		for _, d := range e.Recurrence.Dates {
			t, err := EventDateTime(models.Event{ID: e.ID, Date: d, Time: e.Time}, loc)
			if err != nil || startOfDay(t).Before(today) {
				continue
			}
			starts = append(starts, t)
		}
		if len(starts) == 0 {
			return time.Time{}, false
		}
		return slices.MinFunc(starts, func(a, b time.Time) int { return a.Compare(b) }), true
	}

	start, err := EventDateTime(e, loc)
	if err != nil || !start.After(now) {
		return time.Time{}, false
	}
	return start, true
}

// RecurrenceRule renders the RRULE value (without DTSTART) of a daily,
// weekly or monthly event.
func RecurrenceRule(e models.Event) (string, bool) {
	switch kind := e.RecurrenceKind(); kind {
	case models.RecurDaily, models.RecurWeekly, models.RecurMonthly:
		opt := recurrenceOption(kind, e.Recurrence, time.Time{})
		return opt.RRuleString(), true
	}
	return "", false
}

func recurrenceOption(kind models.RecurrenceKind, rec *models.Recurrence, anchor time.Time) rrule.ROption {
	opt := rrule.ROption{Dtstart: anchor}
	switch kind {
	case models.RecurDaily:
		opt.Freq = rrule.DAILY
	case models.RecurWeekly:
		opt.Freq = rrule.WEEKLY
		for _, d := range rec.DaysOfWeek {
			if d >= time.Sunday && d <= time.Saturday {
				opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
			}
		}
	case models.RecurMonthly:
		opt.Freq = rrule.MONTHLY
		if rec.DayOfMonth >= 1 && rec.DayOfMonth <= 31 {
			opt.Bymonthday = []int{rec.DayOfMonth}
		}
	}
	return opt
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
