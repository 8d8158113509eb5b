package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/websocket"

	"crypto-research-service/metrics"
	"crypto-research-service/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBufferSize = 256
)

// Hub manages the market feed WebSocket connections and broadcasts
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.MarketUpdate
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

// Client is one connected market feed subscriber
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	addr string
}

// NewHub creates a new market feed hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.MarketUpdate),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Start runs the hub loop. It owns the client set; call it once in its
// own goroutine.
func (h *Hub) Start() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			metrics.WSConnectedClients.Set(float64(len(h.clients)))
			h.mutex.Unlock()
			log.Infof("Market feed client connected from %s", client.addr)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			metrics.WSConnectedClients.Set(float64(len(h.clients)))
			h.mutex.Unlock()
			log.Infof("Market feed client disconnected from %s", client.addr)

		case update := <-h.broadcast:
			payload := h.serializeUpdate(update)
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow consumer, drop it
					close(client.send)
					delete(h.clients, client)
				}
			}
			metrics.WSConnectedClients.Set(float64(len(h.clients)))
			h.mutex.Unlock()
		}
	}
}

// Stop disconnects all clients
func (h *Hub) Stop() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnectedClients.Set(0)
}

// RegisterClient adds a connection to the hub and starts its pumps
func (h *Hub) RegisterClient(conn *websocket.Conn) {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		addr: conn.RemoteAddr().String(),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Broadcast sends a market update to all connected clients
func (h *Hub) Broadcast(update models.MarketUpdate) {
	h.broadcast <- update
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) serializeUpdate(update models.MarketUpdate) []byte {
	data, err := json.Marshal(update)
	if err != nil {
		log.Errorf("Failed to serialize market update: %v", err)
		return []byte("{}")
	}
	return data
}

// readPump drains the connection and unregisters the client when it closes
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debugf("Market feed read error from %s: %v", c.addr, err)
			}
			break
		}
		// The feed is one way, incoming messages are ignored
	}
}

// writePump forwards broadcasts to the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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
