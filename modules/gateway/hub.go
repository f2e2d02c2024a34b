package gateway

import (
	"context"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

const clientSendBuffer = 64

// Client is one connected WebSocket session, keyed by authenticated user
// id. All writes to the connection go through the send channel; the
// per-client writer goroutine is the only writer.
type Client struct {
	UserID    string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, clientSendBuffer),
		done:   make(chan struct{}),
	}
}

// Send enqueues a payload for the client. A client whose buffer is full is
// dropped rather than allowed to stall everyone else.
func (c *Client) Send(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		c.close()
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// writeLoop drains the send channel onto the connection.
func (c *Client) writeLoop() {
	defer func() { _ = c.conn.Close() }()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("[hub] Write to %s failed: %v", c.UserID, err)
				c.close()
				return
			}
		}
	}
}

// delivery targets either an explicit recipient list or, when Recipients
// is nil, every connected client.
type delivery struct {
	Recipients []string
	Payload    []byte
}

// Hub tracks connected clients and fans payloads out to them. Register and
// delivery are serialized through one goroutine loop; unregister is
// synchronous so the caller learns whether the departing client was still
// the user's current session.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	deliveries chan delivery
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful
// shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAll()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case d := <-h.deliveries:
			h.handleDelivery(d)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.close()
	}
	h.clients = make(map[string]*Client)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A second connection for the same user supersedes the first.
	if old, ok := h.clients[client.UserID]; ok {
		old.close()
	}
	h.clients[client.UserID] = client
	log.Printf("[hub] Client %s registered", client.UserID)
}

func (h *Hub) handleDelivery(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if d.Recipients == nil {
		for _, client := range h.clients {
			client.Send(d.Payload)
		}
		return
	}
	for _, userID := range d.Recipients {
		if client, ok := h.clients[userID]; ok {
			client.Send(d.Payload)
		}
	}
}

// Register adds a client to the hub and starts its writer.
func (h *Hub) Register(client *Client) {
	go client.writeLoop()
	h.register <- client
}

// Unregister removes a client from the hub and reports whether it was
// still the user's current session. A superseded session returns false and
// leaves its replacement in place.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.close()
	if current, ok := h.clients[client.UserID]; ok && current == client {
		delete(h.clients, client.UserID)
		log.Printf("[hub] Client %s unregistered", client.UserID)
		return true
	}
	return false
}

// Broadcast delivers a payload to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.deliveries <- delivery{Recipients: nil, Payload: payload}
}

// Deliver sends a payload to the given user ids; absent users are skipped.
func (h *Hub) Deliver(userIDs []string, payload []byte) {
	if userIDs == nil {
		userIDs = []string{}
	}
	h.deliveries <- delivery{Recipients: userIDs, Payload: payload}
}

// Unicast sends a payload to one user.
func (h *Hub) Unicast(userID string, payload []byte) {
	h.Deliver([]string{userID}, payload)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
