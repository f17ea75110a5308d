// order_websocket.go
package orderControllers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait = 5 * time.Second
	// events queued per subscriber before it is dropped as too slow
	sendBuffer = 16
)

type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderUpdated EventType = "order.updated"
	EventOrderDeleted EventType = "order.deleted"
)

// Event is what feed subscribers receive, one JSON text frame each.
type Event struct {
	Type    EventType     `json:"type"`
	OrderID uint          `json:"order_id"`
	Order   *models.Order `json:"order,omitempty"`
}

// subscriber is one feed connection. Only its writer goroutine writes to
// conn; send is closed when the hub lets go of it.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans order events out to websocket subscribers.
type Hub struct {
	mu       sync.Mutex
	clients  map[*subscriber]struct{}
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewHub accepts browser connections only from allowedOrigins. Requests
// without an Origin header (non-browser clients) are accepted.
func NewHub(allowedOrigins []string, log logrus.FieldLogger) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Hub{
		clients: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log: log,
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	h.clients[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	h.drop(sub)
	h.mu.Unlock()
}

// drop detaches sub; its writer then closes the connection. h.mu must be held.
func (h *Hub) drop(sub *subscriber) {
	if _, ok := h.clients[sub]; ok {
		delete(h.clients, sub)
		close(sub.send)
	}
}

// Broadcast queues ev for every subscriber without waiting on the network.
// Subscribers whose queue is full are dropped. A nil Hub discards events.
func (h *Hub) Broadcast(ev Event) {
	if h == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("marshal order event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.clients {
		select {
		case sub.send <- data:
		default:
			h.log.Debug("dropping slow order feed subscriber")
			h.drop(sub)
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.clients {
		h.drop(sub)
	}
}

// writeLoop drains sub.send onto the connection and closes it once the hub
// drops the subscriber or a write fails.
func (h *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for data := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.WithError(err).Debug("order feed write failed")
			return
		}
	}
	sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeWait))
}

// OrderWebSocketHandler serves GET /ws/orders to privileged users.
func (h *Hub) OrderWebSocketHandler(c *gin.Context) {
	if err := auth.Authorize(auth.Access(c), models.RolePrivileged); err != nil {
		render.Error(c, err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(sub)
	go h.writeLoop(sub)
	defer h.remove(sub)

	// The feed is one-way; reading only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
