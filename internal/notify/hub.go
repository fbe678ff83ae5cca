// Package notify delivers game notifications to players over websockets.
package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var (
	ErrHubFull   = errors.New("notification queue full")
	ErrHubClosed = errors.New("notification hub stopped")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	id       string
	playerID string
	conn     *websocket.Conn
	send     chan models.Notification
}

// Hub fans notifications out to every connection a player holds.
type Hub struct {
	logger     *zap.Logger
	register   chan *client
	unregister chan *client
	deliver    chan models.Notification
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	clients map[string]map[string]*client
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		deliver:    make(chan models.Notification, 256),
		done:       make(chan struct{}),
		clients:    make(map[string]map[string]*client),
	}
}

// Run processes hub events until ctx is done, then closes every client.
// Connections arriving after that are closed straight away.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.playerID] == nil {
				h.clients[c.playerID] = make(map[string]*client)
			}
			h.clients[c.playerID][c.id] = c
			h.mu.Unlock()
			h.logger.Debug("websocket client registered",
				zap.String("client_id", c.id),
				zap.String("player_id", c.playerID))

		case c := <-h.unregister:
			h.remove(c)

		case n := <-h.deliver:
			h.mu.RLock()
			for _, c := range h.clients[n.Recipient] {
				select {
				case c.send <- n:
				default:
					h.logger.Warn("dropping notification for slow client",
						zap.String("client_id", c.id),
						zap.String("type", string(n.Type)))
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[c.playerID]
	if _, ok := conns[c.id]; !ok {
		return
	}
	delete(conns, c.id)
	if len(conns) == 0 {
		delete(h.clients, c.playerID)
	}
	close(c.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for player, conns := range h.clients {
		for _, c := range conns {
			close(c.send)
		}
		delete(h.clients, player)
	}
}

// Connected returns the number of open connections for player.
func (h *Hub) Connected(player string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[player])
}

// Notify queues n for delivery. It never waits on slow connections.
func (h *Hub) Notify(ctx context.Context, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.deliver <- n:
		return nil
	default:
		return ErrHubFull
	}
}

// ServeWS upgrades the request and subscribes the connection to the
// notifications of the player_id query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, `{"error":"player_id is required"}`, http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:       uuid.New().String(),
		playerID: playerID,
		conn:     conn,
		send:     make(chan models.Notification, sendBuffer),
	}
	if !h.enqueue(h.register, c) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// enqueue hands c to the Run loop unless the hub has stopped.
func (h *Hub) enqueue(ch chan<- *client, c *client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case ch <- c:
		return true
	case <-h.done:
		return false
	}
}

// readPump only drains control frames; clients never send commands.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.enqueue(h.unregister, c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case n, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(n); err != nil {
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
