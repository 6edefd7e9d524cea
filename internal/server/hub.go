package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/triageboard/internal/store"
)

const (
	// wsSendBuffer is the number of pending messages per websocket client.
	wsSendBuffer = 64

	// wsWriteTimeout bounds a single websocket write, like sseWriteTimeout.
	wsWriteTimeout = 5 * time.Second
)

// wsClient is one websocket connection.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans store updates out to websocket clients.
//
// Only run touches the client set. Clients that cannot keep up are dropped.
type hub struct {
	store      store.Store
	logger     *slog.Logger
	register   chan *wsClient
	unregister chan *wsClient
	clients    map[*wsClient]struct{}
	done       chan struct{}
}

func newHub(st store.Store, logger *slog.Logger) *hub {
	return &hub{
		store:      st,
		logger:     logger,
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		clients:    make(map[*wsClient]struct{}),
		done:       make(chan struct{}),
	}
}

// run serves the hub until ctx is cancelled, then disconnects every client.
func (h *hub) run(ctx context.Context) {
	defer close(h.done)

	updates := h.store.Subscribe()
	defer h.store.Unsubscribe(updates)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("websocket client registered", "clients", len(h.clients))
			// initial snapshot; the buffer holds every mount point
			for _, view := range h.store.GetAll() {
				if data, err := json.Marshal(view); err == nil {
					h.deliver(c, data)
				}
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug("websocket client unregistered", "clients", len(h.clients))
			}

		case view, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(view)
			if err != nil {
				h.logger.Error("failed to encode view", "mount", view.Mount, "error", err)
				continue
			}
			for c := range h.clients {
				h.deliver(c, data)
			}
		}
	}
}

// deliver queues data for c, dropping c if its buffer is full.
func (h *hub) deliver(c *wsClient, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warn("dropping slow websocket client")
		h.drop(c)
	}
}

func (h *hub) drop(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
}

// join registers c, reporting false if the hub has stopped.
func (h *hub) join(c *wsClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters c; a no-op once the hub has stopped.
func (h *hub) leave(c *wsClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// writePump writes queued messages until the hub closes the send channel.
func (c *wsClient) writePump() {
	defer func() { _ = c.conn.Close() }()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
}

// readPump discards client messages and returns when the connection closes.
func (c *wsClient) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
