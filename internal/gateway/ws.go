package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/dohr-michael/skillbox/internal/events"
)

// eventHub bridges the event bus to WebSocket subscribers. The stream is
// one-way: clients receive every bus event as a JSON frame; anything they
// send is ignored.
type eventHub struct {
	mu          sync.RWMutex
	clients     map[*wsClient]struct{}
	bus         *events.Bus
	unsubscribe func()
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newEventHub(bus *events.Bus) *eventHub {
	h := &eventHub{
		clients: make(map[*wsClient]struct{}),
		bus:     bus,
	}

	h.unsubscribe = bus.Subscribe(func(e events.Event) {
		data, err := json.Marshal(e)
		if err != nil {
			slog.Error("marshal event", "error", err)
			return
		}
		h.broadcast(data)
	})

	return h
}

func (h *eventHub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, skip
		}
	}
}

func (h *eventHub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	slog.Info("ws client connected", "clients", len(h.clients))
}

func (h *eventHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		slog.Info("ws client disconnected", "clients", len(h.clients))
	}
}

// ServeWS handles a WebSocket upgrade and streams bus events until the
// client disconnects.
func (h *eventHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow any origin for dev
	})
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.register(client)

	ctx := r.Context()
	go client.writePump(ctx)

	// Drain inbound frames so we notice the close.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
}

func (c *wsClient) writePump(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close shuts down the hub and all client connections.
func (h *eventHub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutdown")
		delete(h.clients, c)
	}
}
