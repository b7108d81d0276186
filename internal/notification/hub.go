package notification

import (
	"context"
	"net/http"
	"sync"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type TokenValidator interface {
	ValidateToken(tokenStr string) (*jwt.Claims, error)
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteJSON(v)
}

// Hub pushes booking and payment events to connected front-desk staff.
type Hub struct {
	connections map[int64]*client
	mutex       sync.RWMutex
	tokens      TokenValidator
	log         logrus.FieldLogger
}

func NewHub(tokens TokenValidator, log logrus.FieldLogger) *Hub {
	return &Hub{
		connections: make(map[int64]*client),
		tokens:      tokens,
		log:         log,
	}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if old, exists := h.connections[userID]; exists {
		_ = old.conn.Close()
	}
	h.connections[userID] = &client{conn: conn}
}

func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	// a reconnect may already have replaced this socket
	if c, exists := h.connections[userID]; exists && c.conn == conn {
		_ = c.conn.Close()
		delete(h.connections, userID)
	}
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.connections)
}

// Notify broadcasts e to every connected client and drops sockets that fail.
func (h *Hub) Notify(_ context.Context, e Event) error {
	h.mutex.RLock()
	targets := make(map[int64]*client, len(h.connections))
	for id, c := range h.connections {
		targets[id] = c
	}
	h.mutex.RUnlock()

	for userID, c := range targets {
		if err := c.writeJSON(e); err != nil {
			h.log.WithError(err).WithField("user_id", userID).Debug("dropping front desk socket")
			h.Unregister(userID, c.conn)
		}
	}
	return nil
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, c := range h.connections {
		_ = c.conn.Close()
		delete(h.connections, userID)
	}
}

// HandleWebSocket serves GET /ws/front-desk?token=JWT. Browsers cannot set
// headers on a websocket handshake, so the token travels in the query.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "token query parameter is required")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if claims.Role != string(domain.RoleStaff) && claims.Role != string(domain.RoleAdmin) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "front desk feed is for staff only")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.Register(claims.UserID, conn)
	h.log.WithField("user_id", claims.UserID).Info("front desk connected")
	defer func() {
		h.Unregister(claims.UserID, conn)
		h.log.WithField("user_id", claims.UserID).Info("front desk disconnected")
	}()

	conn.SetReadLimit(4096)
	for {
		// clients only listen; reading keeps close frames and pongs flowing
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("user_id", claims.UserID).Debug("front desk socket error")
			}
			return
		}
	}
}
