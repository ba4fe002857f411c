package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"events-social-network/models"
)

const eventRequestColumns = "id, event_id, from_user_id, to_user_id, type, status, created_at, responded_at"

func scanEventRequest(row scanner) (models.EventRequest, error) {
	var (
		r         models.EventRequest
		responded sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.EventID, &r.FromUserID, &r.ToUserID, &r.Type, &r.Status, &r.CreatedAt, &responded); err != nil {
		return models.EventRequest{}, err
	}
	r.RespondedAt = timePtr(responded)
	return r, nil
}

// CreateEventRequest inserts r with a fresh id. An empty status is stored
// as pending.
func (s *Store) CreateEventRequest(ctx context.Context, r models.EventRequest) (models.EventRequest, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if r.Status != models.StatusPending {
		now := r.CreatedAt
		r.RespondedAt = &now
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO event_requests ("+eventRequestColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.EventID, r.FromUserID, r.ToUserID, r.Type, r.Status, r.CreatedAt, r.RespondedAt)
	if err != nil {
		return models.EventRequest{}, fmt.Errorf("insert event request: %w", err)
	}
	return r, nil
}

// GetEventRequest returns the event request with id.
func (s *Store) GetEventRequest(ctx context.Context, id string) (models.EventRequest, error) {
	r, err := scanEventRequest(s.db.QueryRowContext(ctx,
		"SELECT "+eventRequestColumns+" FROM event_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.EventRequest{}, ErrNotFound
	}
	return r, err
}

// ListEventRequests returns every event request, oldest first.
func (s *Store) ListEventRequests(ctx context.Context) ([]models.EventRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventRequestColumns+" FROM event_requests ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("query event requests: %w", err)
	}
	defer rows.Close()

	list := []models.EventRequest{}
	for rows.Next() {
		r, err := scanEventRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// RespondToEventRequest accepts or rejects a pending event request.
func (s *Store) RespondToEventRequest(ctx context.Context, id string, accept bool) error {
	return s.resolve(ctx, s.db, "event_requests", id, accept)
}

const friendRequestColumns = "id, from_user_id, to_user_id, status, created_at, responded_at"

func scanFriendRequest(row scanner) (models.FriendRequest, error) {
	var (
		r         models.FriendRequest
		responded sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &r.Status, &r.CreatedAt, &responded); err != nil {
		return models.FriendRequest{}, err
	}
	r.RespondedAt = timePtr(responded)
	return r, nil
}

// CreateFriendRequest inserts a pending request from -> to. It fails with
// ErrDuplicate when the two users are already friends or a pending request
// exists between them in either direction.
func (s *Store) CreateFriendRequest(ctx context.Context, from, to string) (models.FriendRequest, error) {
	r := models.FriendRequest{
		ID:         uuid.NewString(),
		FromUserID: from,
		ToUserID:   to,
		Status:     models.StatusPending,
		CreatedAt:  s.now(),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var open int
		err := tx.QueryRowContext(ctx, `
            SELECT COUNT(*) FROM friend_requests
            WHERE status IN ('pending', 'accepted')
              AND ((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?))`,
			from, to, to, from).Scan(&open)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrDuplicate
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO friend_requests ("+friendRequestColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, r.FromUserID, r.ToUserID, r.Status, r.CreatedAt, nil)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return models.FriendRequest{}, err
		}
		return models.FriendRequest{}, fmt.Errorf("insert friend request: %w", err)
	}
	return r, nil
}

// ListFriendRequests returns every friend request, oldest first.
func (s *Store) ListFriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+friendRequestColumns+" FROM friend_requests ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("query friend requests: %w", err)
	}
	defer rows.Close()

	list := []models.FriendRequest{}
	for rows.Next() {
		r, err := scanFriendRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// GetFriendRequest returns the friend request with id.
func (s *Store) GetFriendRequest(ctx context.Context, id string) (models.FriendRequest, error) {
	r, err := scanFriendRequest(s.db.QueryRowContext(ctx,
		"SELECT "+friendRequestColumns+" FROM friend_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrNotFound
	}
	return r, err
}

// RespondToFriendRequest accepts or rejects a pending friend request.
// Accepting also accepts a pending request in the opposite direction, so a
// contradictory pair resolves as one friendship.
func (s *Store) RespondToFriendRequest(ctx context.Context, id string, accept bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.resolve(ctx, tx, "friend_requests", id, accept); err != nil {
			return err
		}
		if !accept {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
            UPDATE friend_requests SET status = 'accepted', responded_at = ?
            WHERE status = 'pending'
              AND from_user_id = (SELECT to_user_id FROM friend_requests WHERE id = ?)
              AND to_user_id = (SELECT from_user_id FROM friend_requests WHERE id = ?)`,
			s.now(), id, id)
		if err != nil {
			return fmt.Errorf("accept reverse friend request: %w", err)
		}
		return nil
	})
}
