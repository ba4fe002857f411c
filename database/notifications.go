package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"events-social-network/models"
)

// CreateNotification stores a notification for req.UserID.
func (s *Store) CreateNotification(ctx context.Context, req models.CreateNotificationRequest) (models.Notification, error) {
	n := models.Notification{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Type:      req.Type,
		Payload:   req.Payload,
		CreatedAt: s.now(),
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO notifications (id, user_id, type, actor_id, event_id, message, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Payload.ActorID, n.Payload.EventID, n.Payload.Message, n.CreatedAt)
	if err != nil {
		return models.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns userID's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, type, actor_id, event_id, message, created_at, read_at
        FROM notifications WHERE user_id = ?
        ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	list := []models.Notification{}
	for rows.Next() {
		var (
			n    models.Notification
			read sql.NullTime
		)
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Payload.ActorID, &n.Payload.EventID,
			&n.Payload.Message, &n.CreatedAt, &read)
		if err != nil {
			return nil, err
		}
		n.ReadAt = timePtr(read)
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead marks one of userID's notifications read. Marking a read
// notification again keeps its first read time.
func (s *Store) MarkRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND user_id = ?",
		s.now(), id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of userID read.
func (s *Store) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL", s.now(), userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// DeleteNotification removes one of userID's notifications.
func (s *Store) DeleteNotification(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
