package websocket

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Message is the frame pushed to browsers.
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Connection is one browser tab of one user.
type Connection struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ConnectedAt time.Time
	conn        *websocket.Conn
	send        chan Message
}

// Manager tracks live connections per user.
type Manager struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*Connection]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewManager accepts handshakes from allowedOrigins; "*" allows any origin.
func NewManager(allowedOrigins []string, logger *zap.Logger) *Manager {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Manager{
		clients: make(map[uuid.UUID]map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		logger: logger,
	}
}

// Serve upgrades the request and keeps the connection until the client leaves.
func (m *Manager) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan Message, sendBuffer),
	}
	m.register(c)

	go m.writePump(c)
	go m.readPump(c)
	return nil
}

func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.clients[c.UserID]
	if !ok {
		set = make(map[*Connection]struct{})
		m.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	m.logger.Debug("websocket connected", zap.String("user_id", c.UserID.String()), zap.String("connection_id", c.ID.String()))
}

func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m.clients, c.UserID)
	}
	close(c.send)
	m.logger.Debug("websocket disconnected", zap.String("user_id", c.UserID.String()), zap.String("connection_id", c.ID.String()))
}

// readPump only services control frames; clients do not send data.
func (m *Manager) readPump(c *Connection) {
	defer func() {
		m.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn("websocket read failed", zap.Error(err), zap.String("user_id", c.UserID.String()))
			}
			return
		}
	}
}

func (m *Manager) writePump(c *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendToUser queues msg on every connection of userID and reports whether
// at least one connection accepted it. Full buffers drop the message.
func (m *Manager) SendToUser(userID uuid.UUID, msg Message) bool {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	delivered := false
	for c := range m.clients[userID] {
		select {
		case c.send <- msg:
			delivered = true
		default:
			m.logger.Warn("websocket buffer full, dropping message", zap.String("user_id", userID.String()))
		}
	}
	return delivered
}

// ConnectionCount returns the number of live connections.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, set := range m.clients {
		n += len(set)
	}
	return n
}

// Close drops every connection.
func (m *Manager) Close() {
	m.mu.RLock()
	conns := make([]*Connection, 0)
	for _, set := range m.clients {
		for c := range set {
			conns = append(conns, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range conns {
		c.conn.Close()
	}
}
