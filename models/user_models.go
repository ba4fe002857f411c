package models

import "time"

// AccountType distinguishes personal users from business organizers.
type AccountType string

const (
	AccountPersonal AccountType = "personal"
	AccountBusiness AccountType = "business"
)

// RegisterRequest defines the structure for the registration request body.
type RegisterRequest struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Name        string      `json:"name"`
	Avatar      string      `json:"avatar"`
	AccountType AccountType `json:"account_type"`
}

// LoginRequest defines the structure for the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User represents a row of the users table.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Name         string      `json:"name"`
	Avatar       string      `json:"avatar"`
	AccountType  AccountType `json:"account_type"`
	CreatedAt    time.Time   `json:"created_at"`
}

// IsBusiness reports whether the user organizes as a business account.
func (u User) IsBusiness() bool {
	return u.AccountType == AccountBusiness
}

// UserResponse is the public view of a user returned by the API.
type UserResponse struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Name        string      `json:"name"`
	Avatar      string      `json:"avatar"`
	AccountType AccountType `json:"account_type"`
}

// ToResponse strips private fields.
func (u User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Avatar:      u.Avatar,
		AccountType: u.AccountType,
	}
}
