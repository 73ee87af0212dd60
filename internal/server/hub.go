// Package server exposes the config store over HTTP and WebSocket: a JSON
// snapshot/edit surface plus a live feed that keeps remote fields in sync
// with every publish, the way the desktop dialog's bound fields are.
package server

import (
	"context"
	"sync"

	"github.com/coder/websocket"

	"github.com/conneroisu/bindcfg/internal/logging"
)

// Hub manages WebSocket connections and broadcasting. A central goroutine
// owns the client set; registration, disconnection, and outbound messages
// all flow through channels so the publish path never blocks on a slow
// client.
type Hub struct {
	clients      map[*websocket.Conn]struct{}
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn

	logger logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewHub creates a hub and starts its management goroutine.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn, 32),
		unregister: make(chan *websocket.Conn, 32),
		logger:     logger.WithComponent("hub"),
		ctx:        ctx,
		cancel:     cancel,
	}

	go h.run()

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case conn := <-h.register:
			h.clientsMutex.Lock()
			h.clients[conn] = struct{}{}
			count := len(h.clients)
			h.clientsMutex.Unlock()
			h.logger.Debug(h.ctx, "client connected", "clients", count)

		case conn := <-h.unregister:
			h.drop(conn)

		case message := <-h.broadcast:
			h.clientsMutex.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.clientsMutex.RUnlock()

			for _, conn := range conns {
				if err := conn.Write(h.ctx, websocket.MessageText, message); err != nil {
					// Failed clients are dropped; delivery to the rest
					// continues. Dropping happens inline because this
					// goroutine owns the client set, and a send to the
					// unregister channel here could block on itself.
					h.logger.Warn(h.ctx, err, "client write failed, dropping")
					h.drop(conn)
				}
			}
		}
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.ctx.Done():
		conn.Close(websocket.StatusGoingAway, "hub shut down")
	}
}

// Unregister removes a connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// Broadcast queues a message for every connected client. Messages are
// dropped if the hub's queue is full rather than blocking the caller.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn(h.ctx, nil, "broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	return len(h.clients)
}

// drop removes a connection from the client set and closes it without
// going through the unregister channel, so the run goroutine can shed
// failed clients mid-broadcast without sending to itself.
func (h *Hub) drop(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close(websocket.StatusNormalClosure, "")
	}
	count := len(h.clients)
	h.clientsMutex.Unlock()

	h.logger.Debug(h.ctx, "client disconnected", "clients", count)
}

func (h *Hub) closeAll() {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	for conn := range h.clients {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

// Shutdown stops the hub and closes all connections. Safe to call more
// than once.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(h.cancel)
}
