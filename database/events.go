package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"events-social-network/models"
)

const eventColumns = `id, organizer_id, title, description, date, time, max_participants,
    participants_data, participants_list, is_recurring, recurrence, cancelled, created_at, updated_at`

func scanEvent(row scanner) (models.Event, error) {
	var (
		e          models.Event
		data, list string
		recurrence sql.NullString
	)
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Date, &e.Time, &e.MaxParticipants,
		&data, &list, &e.IsRecurring, &recurrence, &e.Cancelled, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.Event{}, err
	}

	decodeJSON(data, &e.ParticipantsData)
	decodeJSON(list, &e.ParticipantsList)
	if recurrence.Valid {
		var r models.Recurrence
		decodeJSON(recurrence.String, &r)
		if r.Kind != "" {
			e.Recurrence = &r
		}
	}
	return e, nil
}

// eventArgs encodes the JSON columns of e.
func eventArgs(e models.Event) (data, list string, recurrence sql.NullString, err error) {
	if data, err = encodeJSON(nonNil(e.ParticipantsData)); err != nil {
		return
	}
	if list, err = encodeJSON(nonNil(e.ParticipantsList)); err != nil {
		return
	}
	if e.Recurrence != nil {
		var raw string
		if raw, err = encodeJSON(e.Recurrence); err != nil {
			return
		}
		recurrence = sql.NullString{String: raw, Valid: true}
	}
	return
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// CreateEvent inserts e with a fresh id.
func (s *Store) CreateEvent(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt

	data, list, recurrence, err := eventArgs(e)
	if err != nil {
		return models.Event{}, fmt.Errorf("encode event: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.OrganizerID, e.Title, e.Description, e.Date, e.Time, e.MaxParticipants,
		data, list, e.IsRecurring, recurrence, e.Cancelled, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return models.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// UpdateEvent overwrites the editable fields of the event e.ID.
func (s *Store) UpdateEvent(ctx context.Context, e models.Event) (models.Event, error) {
	e.UpdatedAt = s.now()

	data, list, recurrence, err := eventArgs(e)
	if err != nil {
		return models.Event{}, fmt.Errorf("encode event: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
        UPDATE events SET title = ?, description = ?, date = ?, time = ?, max_participants = ?,
            participants_data = ?, participants_list = ?, is_recurring = ?, recurrence = ?, updated_at = ?
        WHERE id = ?`,
		e.Title, e.Description, e.Date, e.Time, e.MaxParticipants,
		data, list, e.IsRecurring, recurrence, e.UpdatedAt, e.ID)
	if err != nil {
		return models.Event{}, fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Event{}, ErrNotFound
	}
	return s.FindEvent(ctx, e.ID)
}

// CancelEvent marks the event cancelled. Cancelling twice is a no-op.
func (s *Store) CancelEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE events SET cancelled = TRUE, updated_at = ? WHERE id = ?", s.now(), id)
	if err != nil {
		return fmt.Errorf("cancel event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindEvent returns the event with id.
func (s *Store) FindEvent(ctx context.Context, id string) (models.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, ErrNotFound
	}
	return e, err
}

// ListEvents returns every event, oldest first.
func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM events ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventProfile returns the participant snapshot of eventID. The boolean is
// false when no profile has been taken.
func (s *Store) EventProfile(ctx context.Context, eventID string) (models.EventProfile, bool, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		"SELECT event_id, participants, created_at FROM event_profiles WHERE event_id = ?", eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.EventProfile{}, false, nil
	}
	if err != nil {
		return models.EventProfile{}, false, err
	}
	return p, true, nil
}

// ListEventProfiles returns every stored profile.
func (s *Store) ListEventProfiles(ctx context.Context) ([]models.EventProfile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT event_id, participants, created_at FROM event_profiles")
	if err != nil {
		return nil, fmt.Errorf("query event profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.EventProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SaveEventProfile stores p unless a profile for the event already exists.
// Profiles are written once; the boolean reports whether p was stored.
func (s *Store) SaveEventProfile(ctx context.Context, p models.EventProfile) (bool, error) {
	participants, err := encodeJSON(nonNil(p.Participants))
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO event_profiles (event_id, participants, created_at) VALUES (?, ?, ?)",
		p.EventID, participants, s.now())
	if err != nil {
		return false, fmt.Errorf("insert event profile: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func scanProfile(row scanner) (models.EventProfile, error) {
	var (
		p   models.EventProfile
		raw string
	)
	if err := row.Scan(&p.EventID, &raw, &p.CreatedAt); err != nil {
		return models.EventProfile{}, err
	}
	p.Participants = []string{}
	decodeJSON(raw, &p.Participants)
	return p, nil
}
