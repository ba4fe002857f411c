// Package membership decides how users relate to events and reconciles
// friend requests, event requests and legacy participant lists into the
// incoming and outgoing request views of a user's inbox.
//
// Everything except the Dispatcher and TabSession is a pure function over a
// Snapshot: callers load a fresh Snapshot per evaluation and recompute.
package membership

import (
	"context"
	"fmt"
	"slices"

	"events-social-network/models"
)

// EventSource reads events.
type EventSource interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	FindEvent(ctx context.Context, id string) (models.Event, error)
}

// Responder applies accept/decline decisions. Implementations reject
// transitions out of a non-pending status.
type Responder interface {
	RespondToEventRequest(ctx context.Context, id string, accept bool) error
	RespondToFriendRequest(ctx context.Context, id string, accept bool) error
}

// RequestSource reads and resolves friend and event requests.
type RequestSource interface {
	ListEventRequests(ctx context.Context) ([]models.EventRequest, error)
	ListFriendRequests(ctx context.Context) ([]models.FriendRequest, error)
	Responder
}

// FriendGraph lists accepted friends.
type FriendGraph interface {
	FriendsOf(ctx context.Context, userID string) ([]models.User, error)
}

// UserDirectory resolves user records.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// ProfileSource reads post-event participant snapshots.
type ProfileSource interface {
	EventProfile(ctx context.Context, eventID string) (models.EventProfile, bool, error)
	ListEventProfiles(ctx context.Context) ([]models.EventProfile, error)
}

// NotificationSource reads and updates a user's notifications.
type NotificationSource interface {
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, id string) error
}

// Source is everything a snapshot is loaded from.
type Source interface {
	EventSource
	RequestSource
	FriendGraph
	UserDirectory
	ProfileSource
}

// Snapshot holds the collections one evaluation runs against.
type Snapshot struct {
	Events         []models.Event
	EventRequests  []models.EventRequest
	FriendRequests []models.FriendRequest
	Profiles       []models.EventProfile
	// Users is the known user directory. A nil slice means the directory
	// was not loaded and user existence is not checked.
	Users []models.User
	// Friends maps a user id to the ids of that user's accepted friends.
	Friends map[string][]string
}

// FindEvent returns the event with the given id.
func (s Snapshot) FindEvent(id string) (models.Event, bool) {
	for _, e := range s.Events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

// Profile returns the event profile for eventID, if one exists.
func (s Snapshot) Profile(eventID string) (models.EventProfile, bool) {
	for _, p := range s.Profiles {
		if p.EventID == eventID {
			return p, true
		}
	}
	return models.EventProfile{}, false
}

// User returns the user with the given id.
func (s Snapshot) User(id string) (models.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (s Snapshot) hasUser(id string) bool {
	if id == "" {
		return false
	}
	if s.Users == nil {
		return true
	}
	_, ok := s.User(id)
	return ok
}

// FriendsOf returns the accepted friend ids of userID.
func (s Snapshot) FriendsOf(userID string) []string {
	return s.Friends[userID]
}

func (s Snapshot) areFriends(owner, other string) bool {
	return slices.Contains(s.Friends[owner], other)
}

func (s Snapshot) pendingFriendRequestBetween(a, b string) bool {
	for _, fr := range s.FriendRequests {
		if fr.Status == models.StatusPending && fr.Involves(a, b) {
			return true
		}
	}
	return false
}

// LoadSnapshot pulls every collection the classifier needs for
// currentUserID. Friend lists are loaded for the user and for the
// organizers of events that invited the user.
func LoadSnapshot(ctx context.Context, src Source, currentUserID string) (Snapshot, error) {
	var s Snapshot
	var err error

	if s.Events, err = src.ListEvents(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list events: %w", err)
	}
	if s.EventRequests, err = src.ListEventRequests(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list event requests: %w", err)
	}
	if s.FriendRequests, err = src.ListFriendRequests(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list friend requests: %w", err)
	}
	if s.Profiles, err = src.ListEventProfiles(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list event profiles: %w", err)
	}
	if s.Users, err = src.ListUsers(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list users: %w", err)
	}
	if s.Users == nil {
		s.Users = []models.User{}
	}

	owners := []string{currentUserID}
	for _, r := range s.EventRequests {
		if r.Type != models.RequestInvite || r.ToUserID != currentUserID {
			continue
		}
		if e, ok := s.FindEvent(r.EventID); ok && !slices.Contains(owners, e.OrganizerID) {
			owners = append(owners, e.OrganizerID)
		}
	}

	s.Friends = make(map[string][]string, len(owners))
	for _, owner := range owners {
		friends, err := src.FriendsOf(ctx, owner)
		if err != nil {
			return Snapshot{}, fmt.Errorf("friends of %s: %w", owner, err)
		}
		ids := make([]string, 0, len(friends))
		for _, f := range friends {
			ids = append(ids, f.ID)
		}
		s.Friends[owner] = ids
	}

	return s, nil
}
