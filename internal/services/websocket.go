package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client
type Client struct {
	ID   uint
	Role string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Client %d disconnected", client.ID)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					h.evict(client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a client to the hub. Run must be started for delivery.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// evict drops a slow client. Callers must hold the write lock; removing the
// client from the map before closing Send keeps unregister from closing the
// channel a second time.
func (h *Hub) evict(client *Client) {
	delete(h.clients, client)
	close(client.Send)
}

// BroadcastToUser sends a message to a specific user. Evicting a slow client
// mutates the client map, so this takes the write lock.
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				h.evict(client)
			}
		}
	}
}

// BroadcastToRole sends a message to all users with a specific role. Same
// locking rule as BroadcastToUser.
func (h *Hub) BroadcastToRole(role string, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.Role == role {
			select {
			case client.Send <- message:
			default:
				h.evict(client)
			}
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocket message types
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PassRequested notifies admins that a student submitted a pass request.
type PassRequested struct {
	PassID   uint    `json:"passId"`
	UserID   uint    `json:"userId"`
	RouteID  uint    `json:"routeId"`
	PassType string  `json:"passType"`
	Amount   float64 `json:"amount"`
}

// PassPaid notifies admins that a pass payment was recorded.
type PassPaid struct {
	PassID        uint    `json:"passId"`
	UserID        uint    `json:"userId"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
}

// PassDecided notifies the owning student of an admin decision.
type PassDecided struct {
	PassID         uint   `json:"passId"`
	ApprovalStatus string `json:"approvalStatus"`
	ExpiresAt      string `json:"expiresAt,omitempty"`
}

// SendPassRequested pushes a pass_requested event to all connected admins.
func (h *Hub) SendPassRequested(event PassRequested) {
	h.sendToRole("admin", WebSocketMessage{Type: "pass_requested", Data: event})
}

// SendPassPaid pushes a pass_paid event to all connected admins.
func (h *Hub) SendPassPaid(event PassPaid) {
	h.sendToRole("admin", WebSocketMessage{Type: "pass_paid", Data: event})
}

// SendPassDecided pushes a pass_decided event to the pass owner.
func (h *Hub) SendPassDecided(userID uint, event PassDecided) {
	message, err := json.Marshal(WebSocketMessage{Type: "pass_decided", Data: event})
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}
	h.BroadcastToUser(userID, message)
}

func (h *Hub) sendToRole(role string, msg WebSocketMessage) {
	message, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}
	h.BroadcastToRole(role, message)
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, role string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:   userID,
		Role: role,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}

	hub.Register(client)

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so pings and close frames are processed.
// All mutations go through the HTTP API; incoming messages are ignored.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
