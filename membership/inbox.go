package membership

import (
	"sort"
	"sync"
	"time"

	"events-social-network/models"
)

// LifecycleNotifications keeps event lifecycle notifications only. Request
// notifications are left out because the classifier already represents
// those requests.
func LifecycleNotifications(list []models.Notification) []models.Notification {
	out := make([]models.Notification, 0, len(list))
	for _, n := range list {
		if n.Type.IsLifecycle() {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount counts unread lifecycle notifications.
func UnreadCount(list []models.Notification) int {
	count := 0
	for _, n := range list {
		if n.Type.IsLifecycle() && !n.IsRead() {
			count++
		}
	}
	return count
}

// FeedItemKind tags a FeedItem.
type FeedItemKind string

const (
	FeedNotification FeedItemKind = "notification"
	FeedRequest      FeedItemKind = "request"
)

// FeedItem is one row of the merged inbox feed.
type FeedItem struct {
	Kind         FeedItemKind         `json:"kind"`
	CreatedAt    time.Time            `json:"created_at"`
	Notification *models.Notification `json:"notification,omitempty"`
	Request      *ClassifiedRequest   `json:"request,omitempty"`
}

// FeedOptions tunes MergeFeed.
type FeedOptions struct {
	// Interleave orders notifications and requests together, newest first.
	// By default all notifications come before the requests.
	Interleave bool
}

// MergeFeed combines lifecycle notifications (newest first) with the
// incoming requests in classifier order.
func MergeFeed(notifications []models.Notification, incoming []ClassifiedRequest, opts FeedOptions) []FeedItem {
	lifecycle := LifecycleNotifications(notifications)
	sort.SliceStable(lifecycle, func(i, j int) bool {
		return lifecycle[i].CreatedAt.After(lifecycle[j].CreatedAt)
	})

	feed := make([]FeedItem, 0, len(lifecycle)+len(incoming))
	for i := range lifecycle {
		n := lifecycle[i]
		feed = append(feed, FeedItem{Kind: FeedNotification, CreatedAt: n.CreatedAt, Notification: &n})
	}
	for i := range incoming {
		r := incoming[i]
		feed = append(feed, FeedItem{Kind: FeedRequest, CreatedAt: r.CreatedAt, Request: &r})
	}

	if opts.Interleave {
		sort.SliceStable(feed, func(i, j int) bool {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		})
	}
	return feed
}

// TabSession tracks a user's visit to the incoming-requests tab. Leaving the
// tab after a visit with unread lifecycle notifications calls for a bulk
// mark-all-read.
type TabSession struct {
	mu      sync.Mutex
	visited bool
}

// Enter records a visit to the tab.
func (t *TabSession) Enter() {
	t.mu.Lock()
	t.visited = true
	t.mu.Unlock()
}

// Leave ends the visit and reports whether every notification should now be
// marked read.
func (t *TabSession) Leave(notifications []models.Notification) bool {
	t.mu.Lock()
	visited := t.visited
	t.visited = false
	t.mu.Unlock()

	return visited && UnreadCount(notifications) > 0
}

// Visited reports whether a visit is in progress.
func (t *TabSession) Visited() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visited
}
