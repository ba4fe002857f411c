package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"events-social-network/models"
)

const userColumns = "id, username, email, password_hash, name, avatar, account_type, created_at"

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.Avatar, &u.AccountType, &u.CreatedAt)
	return u, err
}

// CreateUser inserts u with a fresh id. Username and email are unique.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.ID = uuid.NewString()
	u.CreatedAt = s.now()
	if u.AccountType == "" {
		u.AccountType = models.AccountPersonal
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Username, u.Email, u.PasswordHash, u.Name, u.Avatar, u.AccountType, u.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUser returns the user with id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// GetUserByLogin looks a user up by username or email.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR email = ?", login, login))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// ListUsers returns every user.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.queryUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at")
}

// FriendsOf returns the users joined to userID by an accepted friend
// request in either direction.
func (s *Store) FriendsOf(ctx context.Context, userID string) ([]models.User, error) {
	return s.queryUsers(ctx, `
        SELECT `+userColumns+` FROM users WHERE id IN (
            SELECT to_user_id FROM friend_requests WHERE from_user_id = ? AND status = 'accepted'
            UNION
            SELECT from_user_id FROM friend_requests WHERE to_user_id = ? AND status = 'accepted'
        ) ORDER BY username`, userID, userID)
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
