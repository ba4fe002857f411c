package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"events-social-network/membership"
	"events-social-network/models"
)

// notify stores a notification for userID and pushes the change over the
// websocket. Failures are logged and never fail the calling request.
func (s *Server) notify(ctx context.Context, userID string, typ models.NotificationType, payload models.NotificationPayload) {
	n, err := s.store.CreateNotification(ctx, models.CreateNotificationRequest{UserID: userID, Type: typ, Payload: payload})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "type": typ}).Warn("creating notification")
		return
	}
	s.hub.BroadcastToUser(userID, MsgInboxUpdate, n)
	s.BroadcastUnreadCountToUser(ctx, userID)
}

// pushInbox tells userID's clients to reload their inbox.
func (s *Server) pushInbox(userID string) {
	s.hub.BroadcastToUser(userID, MsgInboxUpdate, nil)
}

// BroadcastUnreadCountToUser sends the current unread count to userID.
func (s *Server) BroadcastUnreadCountToUser(ctx context.Context, userID string) {
	if !s.hub.IsOnline(userID) {
		return
	}
	list, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("loading unread count")
		return
	}
	s.hub.BroadcastToUser(userID, MsgNotificationCount, models.NotificationCount{UnreadCount: membership.UnreadCount(list)})
}

// GetNotificationsHandler lists the caller's lifecycle notifications, newest
// first. ?limit caps the result (default 20, at most 100).
// GET /notifications
func (s *Server) GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	list, err := s.store.ListNotifications(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to fetch notifications")
		return
	}
	list = membership.LifecycleNotifications(list)
	if len(list) > limit {
		list = list[:limit]
	}
	writeJSON(w, http.StatusOK, list)
}

// GetUnreadCountHandler returns the badge count.
// GET /notifications/unread-count
func (s *Server) GetUnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListNotifications(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to fetch unread count")
		return
	}
	writeJSON(w, http.StatusOK, models.NotificationCount{UnreadCount: membership.UnreadCount(list)})
}

// MarkNotificationAsReadHandler marks one notification as read.
// PATCH /notifications/{notificationID}/read
func (s *Server) MarkNotificationAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := s.store.MarkRead(r.Context(), userID, r.PathValue("notificationID")); err != nil {
		s.writeError(w, err, "Failed to mark notification as read")
		return
	}
	s.BroadcastUnreadCountToUser(r.Context(), userID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// MarkAllNotificationsAsReadHandler marks every notification as read.
// POST /notifications/mark-all-read
func (s *Server) MarkAllNotificationsAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := s.store.MarkAllRead(r.Context(), userID); err != nil {
		s.writeError(w, err, "Failed to mark all notifications as read")
		return
	}
	s.BroadcastUnreadCountToUser(r.Context(), userID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// DeleteNotificationHandler deletes one notification.
// DELETE /notifications/{notificationID}
func (s *Server) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteNotification(r.Context(), userID, r.PathValue("notificationID")); err != nil {
		s.writeError(w, err, "Failed to delete notification")
		return
	}
	s.BroadcastUnreadCountToUser(r.Context(), userID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// InboxResponse is the merged feed plus the badge count.
type InboxResponse struct {
	Items       []membership.FeedItem         `json:"items"`
	UnreadCount int                           `json:"unread_count"`
	Users       map[string]models.UserResponse `json:"users"`
}

// InboxHandler merges lifecycle notifications with incoming requests.
// ?interleave=true orders both together by time.
// GET /inbox
func (s *Server) InboxHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, incoming, _, err := s.incoming(r, userID)
	if err != nil {
		s.writeError(w, err, "Failed to load inbox")
		return
	}
	list, err := s.store.ListNotifications(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to load inbox")
		return
	}

	opts := membership.FeedOptions{Interleave: r.URL.Query().Get("interleave") == "true"}
	users := requestsResponse(snap, membership.View{Included: incoming}).Users
	for _, n := range membership.LifecycleNotifications(list) {
		if u, ok := snap.User(n.Payload.ActorID); ok {
			users[u.ID] = u.ToResponse()
		}
	}

	writeJSON(w, http.StatusOK, InboxResponse{
		Items:       membership.MergeFeed(list, incoming, opts),
		UnreadCount: membership.UnreadCount(list),
		Users:       users,
	})
}

func (s *Server) tabSession(userID string) *membership.TabSession {
	s.tabsMu.Lock()
	defer s.tabsMu.Unlock()
	t, ok := s.tabs[userID]
	if !ok {
		t = &membership.TabSession{}
		s.tabs[userID] = t
	}
	return t
}

// EnterRequestsTabHandler records that the caller opened the requests tab.
// POST /inbox/requests-tab/enter
func (s *Server) EnterRequestsTabHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	s.tabSession(userID).Enter()
	writeJSON(w, http.StatusOK, map[string]bool{"visited": true})
}

// LeaveRequestsTabHandler ends the tab visit and marks everything read when
// the visit saw unread notifications.
// POST /inbox/requests-tab/leave
func (s *Server) LeaveRequestsTabHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListNotifications(r.Context(), userID)
	if err != nil {
		s.writeError(w, err, "Failed to load notifications")
		return
	}

	marked := s.tabSession(userID).Leave(list)
	if marked {
		if err := s.store.MarkAllRead(r.Context(), userID); err != nil {
			s.writeError(w, err, "Failed to mark all notifications as read")
			return
		}
		s.BroadcastUnreadCountToUser(r.Context(), userID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"marked_all_read": marked})
}
