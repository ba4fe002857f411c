package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the HTTP layer
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Message types pushed to clients.
const (
	MsgConnected         = "connected"
	MsgInboxUpdate       = "inbox_update"
	MsgNotificationCount = "notification_count_update"
)

// client serializes writes to one websocket connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Hub tracks the open websocket connections of each user.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*client]struct{}
	log   logrus.FieldLogger
}

// NewHub returns an empty hub.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{conns: make(map[string]map[*client]struct{}), log: log.WithField("component", "ws")}
}

func (h *Hub) add(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*client]struct{})
	}
	h.conns[userID][c] = struct{}{}
}

func (h *Hub) remove(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], c)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// IsOnline reports whether userID has an open connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// BroadcastToUser sends a message to every connection of userID. Dead
// connections are dropped.
func (h *Hub) BroadcastToUser(userID, msgType string, data interface{}) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(WSMessage{Type: msgType, Data: data}); err != nil {
			h.log.WithError(err).WithField("user_id", userID).Debug("dropping websocket")
			h.remove(userID, c)
			c.conn.Close()
		}
	}
}

// WebSocketHandler upgrades the connection and keeps it registered until
// the client goes away. Clients only receive; incoming frames other than
// "ping" are ignored.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	s.hub.add(userID, c)
	defer s.hub.remove(userID, c)
	s.log.WithField("user_id", userID).Debug("websocket connected")

	c.send(WSMessage{Type: MsgConnected, Data: map[string]string{"status": "connected"}})
	s.BroadcastUnreadCountToUser(r.Context(), userID)

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			c.send(WSMessage{Type: "pong", Data: "pong"})
		}
	}
}
