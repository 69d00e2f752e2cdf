package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tourlink/server/internal/observability"
)

// EventMessage is the envelope pushed to live web clients
type EventMessage struct {
	Type    string      `json:"type"`
	TourID  string      `json:"tourId,omitempty"`
	Payload interface{} `json:"payload"`
}

// EventClient is one connected live-feed client
type EventClient struct {
	ID         string
	Tours      map[string]bool
	Conn       *websocket.Conn
	Send       chan []byte
	hub        *EventHub
	closedOnce sync.Once
}

// EventHub maintains live-feed connections grouped by tour. The fan-out
// service publishes each dispatched event here as a best-effort
// secondary channel alongside push.
type EventHub struct {
	clients    map[*EventClient]bool
	tours      map[string]map[*EventClient]bool
	register   chan *EventClient
	unregister chan *EventClient
	broadcast  chan *tourEvent
	mu         sync.RWMutex
}

type tourEvent struct {
	tourID  string
	message []byte
}

// NewEventHub creates a new EventHub
func NewEventHub() *EventHub {
	return &EventHub{
		clients:    make(map[*EventClient]bool),
		tours:      make(map[string]map[*EventClient]bool),
		register:   make(chan *EventClient),
		unregister: make(chan *EventClient),
		broadcast:  make(chan *tourEvent, 256),
	}
}

// Run starts the hub's main loop
func (h *EventHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			observability.Debugf("live feed client connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for tourID := range client.Tours {
					if subs, ok := h.tours[tourID]; ok {
						delete(subs, client)
						if len(subs) == 0 {
							delete(h.tours, tourID)
						}
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()
			observability.Debugf("live feed client disconnected: %s", client.ID)

		case event := <-h.broadcast:
			h.mu.RLock()
			for client := range h.tours[event.tourID] {
				select {
				case client.Send <- event.message:
				default:
					// Buffer full; drop the connection rather than block.
					go func(c *EventClient) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *EventHub) Register(client *EventClient) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *EventHub) Unregister(client *EventClient) {
	h.unregister <- client
}

// Subscribe adds a client to a tour's feed
func (h *EventHub) Subscribe(client *EventClient, tourID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Tours[tourID] = true
	if h.tours[tourID] == nil {
		h.tours[tourID] = make(map[*EventClient]bool)
	}
	h.tours[tourID][client] = true
}

// PublishTour sends an event to every client following the tour.
// Implements EventPublisher for the fan-out service.
func (h *EventHub) PublishTour(tourID, eventType string, payload interface{}) {
	data, err := json.Marshal(EventMessage{Type: eventType, TourID: tourID, Payload: payload})
	if err != nil {
		observability.Errorf("failed to encode live event: %v", err)
		return
	}

	h.broadcast <- &tourEvent{tourID: tourID, message: data}
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient creates a client bound to this hub
func (h *EventHub) NewClient(id string, conn *websocket.Conn) *EventClient {
	return &EventClient{
		ID:    id,
		Tours: make(map[string]bool),
		Conn:  conn,
		Send:  make(chan []byte, 256),
		hub:   h,
	}
}

// Close closes the client connection
func (c *EventClient) Close() {
	c.closedOnce.Do(func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	})
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WritePump drains the send channel onto the connection
func (c *EventClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes the connection until it closes. Inbound frames are
// only used for keepalive; the feed is one-way.
func (c *EventClient) ReadPump() {
	defer c.Close()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
