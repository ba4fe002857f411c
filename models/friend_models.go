package models

import "time"

// RequestStatus is shared by friend and event requests.
// Transitions are monotone: pending -> accepted | rejected.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// FriendRequest represents a row in the friend_requests table.
// Accepted rows form the friendship graph.
type FriendRequest struct {
	ID          string        `json:"id"`
	FromUserID  string        `json:"from_user_id"`
	ToUserID    string        `json:"to_user_id"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

// Involves reports whether the request is between a and b, in either direction.
func (f FriendRequest) Involves(a, b string) bool {
	return (f.FromUserID == a && f.ToUserID == b) || (f.FromUserID == b && f.ToUserID == a)
}

// FriendRequestAction is used when accepting or declining any request.
type FriendRequestAction struct {
	Action string `json:"action"` // "accept" or "decline"
}
