// Package archive snapshots the participants of events that have become
// past into EventProfiles. Once a profile exists it is the only source of
// membership for that event.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"events-social-network/membership"
	"events-social-network/models"
)

// Store is what the archiver reads and writes.
type Store interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListEventRequests(ctx context.Context) ([]models.EventRequest, error)
	ListEventProfiles(ctx context.Context) ([]models.EventProfile, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SaveEventProfile(ctx context.Context, p models.EventProfile) (bool, error)
}

// Due returns the profiles to take at now: one per past, non-cancelled
// event without a profile, listing the organizer and every accepted
// participant.
func Due(s membership.Snapshot, now time.Time) []models.EventProfile {
	var due []models.EventProfile
	for _, e := range s.Events {
		if e.Cancelled || !membership.IsPast(e, now) {
			continue
		}
		if _, ok := s.Profile(e.ID); ok {
			continue
		}

		set := membership.AcceptedParticipants(s, e.ID)
		participants := set.Sorted()
		if e.OrganizerID != "" && !set.Has(e.OrganizerID) {
			participants = append([]string{e.OrganizerID}, participants...)
		}
		due = append(due, models.EventProfile{EventID: e.ID, Participants: participants})
	}
	return due
}

// Archiver runs Due against a Store.
type Archiver struct {
	store Store
	log   logrus.FieldLogger
	loc   *time.Location
	now   func() time.Time
}

// New returns an Archiver evaluating event times in loc.
func New(store Store, loc *time.Location, log logrus.FieldLogger) *Archiver {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Archiver{
		store: store,
		log:   log.WithField("component", "archive"),
		loc:   loc,
		now:   time.Now,
	}
}

// WithClock replaces the clock.
func (a *Archiver) WithClock(now func() time.Time) *Archiver {
	a.now = now
	return a
}

// Run stores every due profile and returns how many were written.
func (a *Archiver) Run(ctx context.Context) (int, error) {
	var (
		s   membership.Snapshot
		err error
	)
	if s.Events, err = a.store.ListEvents(ctx); err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	if s.EventRequests, err = a.store.ListEventRequests(ctx); err != nil {
		return 0, fmt.Errorf("list event requests: %w", err)
	}
	if s.Profiles, err = a.store.ListEventProfiles(ctx); err != nil {
		return 0, fmt.Errorf("list event profiles: %w", err)
	}
	if s.Users, err = a.store.ListUsers(ctx); err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	written := 0
	for _, p := range Due(s, a.now().In(a.loc)) {
		stored, err := a.store.SaveEventProfile(ctx, p)
		if err != nil {
			return written, fmt.Errorf("save profile for event %s: %w", p.EventID, err)
		}
		if stored {
			written++
			a.log.WithFields(logrus.Fields{"event_id": p.EventID, "participants": len(p.Participants)}).Info("event profile archived")
		}
	}
	return written, nil
}

// Schedule registers Run on spec and returns the started cron. A spec of
// "off" returns a nil cron.
func (a *Archiver) Schedule(spec string) (*cron.Cron, error) {
	if spec == "off" {
		return nil, nil
	}

	logger := cronLogger{a.log}
	c := cron.New(
		cron.WithLocation(a.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	_, err := c.AddFunc(spec, func() {
		if _, err := a.Run(context.Background()); err != nil {
			a.log.WithError(err).Error("archive run failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("archive schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			f[key] = kv[i+1]
		}
	}
	return f
}
