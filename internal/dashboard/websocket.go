package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Hub fans refreshed dashboard stats out to connected dashboard clients.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan *DashboardStats
	register   chan *wsClient
	unregister chan *wsClient
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	mu         sync.RWMutex
}

type wsClient struct {
	conn *websocket.Conn
	send chan *DashboardStats
}

// NewHub creates the hub and starts its fan-out loop.
func NewHub(logger *zap.Logger) *Hub {
	hub := &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan *DashboardStats, 16),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case stats := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- stats:
				default:
					// Slow consumer; drop this update for it.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastStats queues refreshed stats for every connected client.
func (h *Hub) BroadcastStats(stats *DashboardStats) {
	select {
	case h.broadcast <- stats:
	default:
		h.logger.Warn("Dashboard broadcast queue full, dropping update")
	}
}

// ClientCount returns the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection upgrades an HTTP request and streams stats updates until
// the client disconnects.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &wsClient{
		conn: conn,
		send: make(chan *DashboardStats, 16),
	}
	h.register <- client

	go h.writePump(client)
	go h.readPump(client)
	return nil
}

func (h *Hub) writePump(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case stats, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(stats); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(client *wsClient) {
	defer func() {
		h.unregister <- client
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("Dashboard client closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
