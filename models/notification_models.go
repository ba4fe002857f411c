package models

import "time"

// NotificationType enumerates the notification kinds written by the server.
type NotificationType string

// Event lifecycle notifications, shown in the inbox feed.
const (
	NotifyEventCancelled    NotificationType = "EVENT_CANCELLED"
	NotifyEventUpdated      NotificationType = "EVENT_UPDATED"
	NotifyParticipantJoined NotificationType = "PARTICIPANT_JOINED"
	NotifyParticipantLeft   NotificationType = "PARTICIPANT_LEFT"
	NotifyPostAdded         NotificationType = "POST_ADDED"
)

// Request notifications. The inbox represents these through classified
// requests instead of notification rows.
const (
	NotifyFriendRequest   NotificationType = "FRIEND_REQUEST"
	NotifyFriendAccepted  NotificationType = "FRIEND_ACCEPTED"
	NotifyEventInvite     NotificationType = "EVENT_INVITE"
	NotifyJoinRequest     NotificationType = "JOIN_REQUEST"
	NotifyRequestAccepted NotificationType = "REQUEST_ACCEPTED"
)

// IsLifecycle reports whether t is an event lifecycle kind.
func (t NotificationType) IsLifecycle() bool {
	switch t {
	case NotifyEventCancelled, NotifyEventUpdated, NotifyParticipantJoined,
		NotifyParticipantLeft, NotifyPostAdded:
		return true
	}
	return false
}

// NotificationPayload carries the references a notification points at.
type NotificationPayload struct {
	ActorID string `json:"actor_id,omitempty"`
	EventID string `json:"event_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Notification represents a notification in the system
type Notification struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"` // Who receives the notification
	Type      NotificationType    `json:"type"`
	Payload   NotificationPayload `json:"payload"`
	CreatedAt time.Time           `json:"created_at"`
	ReadAt    *time.Time          `json:"read_at,omitempty"`
}

// IsRead reports whether the notification has been read.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// NotificationCount represents unread notification count
type NotificationCount struct {
	UnreadCount int `json:"unread_count"`
}

// CreateNotificationRequest represents request to create a notification
type CreateNotificationRequest struct {
	UserID  string
	Type    NotificationType
	Payload NotificationPayload
}
