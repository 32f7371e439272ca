// Package hub is the broadcast fan-out for the coordination channel.
// Every connected client shares one room; draft events from one client
// are relayed verbatim to every other client, and backend change events
// are injected for everyone. The hub never interprets payloads.
package hub

import (
	"encoding/json"
	"sync"

	"laundro/internal/locks"
	"laundro/pkg/logger"
)

// Client is one websocket connection's hub handle.
type Client struct {
	// Send is the outbound queue; the write pump drains it. A client
	// that cannot keep up is dropped rather than blocking the room.
	Send   chan []byte
	UserID string
}

type broadcastMsg struct {
	data   []byte
	origin *Client
}

type Hub struct {
	log *logger.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	stop       chan struct{}

	mu sync.Mutex
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
	}
}

func (h *Hub) Run() {
	h.mu.Lock()
	if h.stop != nil {
		h.mu.Unlock()
		return
	}
	h.stop = make(chan struct{})
	stop := h.stop
	h.mu.Unlock()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", "user_id", c.UserID, "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.Send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", "user_id", c.UserID, "clients", n)

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if c == m.origin {
					continue
				}
				select {
				case c.Send <- m.data:
				default:
					// Slow consumer; it resyncs on reconnect.
					delete(h.clients, c)
					close(c.Send)
					h.log.Warn("dropped slow client", "user_id", c.UserID)
				}
			}
			h.mu.Unlock()

		case <-stop:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.Send)
			}
			h.stop = nil
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.mu.Lock()
	stop := h.stop
	h.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// Relay fans a raw client frame out to every other client.
func (h *Hub) Relay(origin *Client, data []byte) {
	h.broadcast <- broadcastMsg{data: data, origin: origin}
}

// Publish injects a backend-originated event for every client, e.g. a
// booking change surfaced from the event stream.
func (h *Hub) Publish(ev locks.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.broadcast <- broadcastMsg{data: data}
	return nil
}

// Clients is the current connection count.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
