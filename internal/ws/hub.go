package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"community-service/internal/logger"
	"community-service/internal/observability"
)

const (
	sendBuffer   = 32
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id     string
	userID string
	send   chan []byte
}

// Hub tracks live notification sockets per user.
type Hub struct {
	clients map[string]map[*client]bool
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]bool)}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.userID]; !ok {
		h.clients[c.userID] = make(map[*client]bool)
	}
	h.clients[c.userID][c] = true
	observability.AddWSConnections(1)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok || !conns[c] {
		return
	}
	delete(conns, c)
	close(c.send)
	observability.AddWSConnections(-1)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
}

// Connected returns the number of live sockets for userID.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUser queues payload on every socket of userID. A socket whose buffer is full is
// skipped for this message.
func (h *Hub) SendToUser(userID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("websocket payload marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			logger.Warn("websocket buffer full, dropping message", "conn_id", c.id, "user_id", userID)
		}
	}
}

// Disconnect closes every socket of userID, used after account deletion.
func (h *Hub) Disconnect(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[userID]
	for c := range conns {
		close(c.send)
	}
	observability.AddWSConnections(-len(conns))
	delete(h.clients, userID)
}

// NotificationStream upgrades an authenticated request and streams the user's notifications.
func (h *Hub) NotificationStream(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	_, span := otel.Tracer("community-service/ws").Start(c.Request.Context(), "ws.handshake")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	span.End()
	if err != nil {
		return
	}

	cl := &client{id: uuid.NewString(), userID: userID, send: make(chan []byte, sendBuffer)}
	h.add(cl)
	logger.Debug("websocket connected", "conn_id", cl.id, "user_id", userID)

	go writePump(cl, conn)
	readPump(conn)

	h.remove(cl)
	logger.Debug("websocket disconnected", "conn_id", cl.id, "user_id", userID)
}

func writePump(c *client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames until the connection closes; the stream is server to client only.
func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
