// Package broadcast is the read side of a session: it streams state
// snapshots to websocket clients and serves them over HTTP.
package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"tradesync/internal/market/state"
	"tradesync/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 4
	readLimit  = 512
)

// Source is the store as seen by readers.
type Source interface {
	State() state.State
	Watch(w state.Watcher) (cancel func())
}

// Client is one websocket reader.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans every state change out to connected clients. Each client gets the
// full snapshot; a client whose buffer is full misses that frame and catches
// up on the next one.
type Hub struct {
	source   Source
	logger   *zap.Logger
	metrics  *metrics.Registry
	upgrader websocket.Upgrader

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	notify     chan struct{}
	done       chan struct{}
	running    atomic.Bool
}

type Option func(*Hub)

func WithLogger(l *zap.Logger) Option { return func(h *Hub) { h.logger = l } }
func WithMetrics(m *metrics.Registry) Option { return func(h *Hub) { h.metrics = m } }

func NewHub(source Source, opts ...Option) *Hub {
	h := &Hub{
		source: source,
		logger: zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run is the hub's event loop. It returns when ctx is done, after closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	cancel := h.source.Watch(func(prev, next state.State, a state.Action) {
		select {
		case h.notify <- struct{}{}:
		default:
		}
	})
	defer cancel()
	defer close(h.done)
	h.running.Store(true)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.setSubscribers()
			if msg, ok := h.snapshot(); ok {
				h.deliver(c, msg)
			}

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}

		case <-h.notify:
			msg, ok := h.snapshot()
			if !ok {
				continue
			}
			for c := range h.clients {
				h.deliver(c, msg)
			}
		}
	}
}

// ServeWS upgrades the request and registers the connection. Requests that
// arrive before Run has started are refused.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !h.running.Load() {
		http.Error(w, "broadcast hub not running", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	h.logger.Debug("websocket client connected", zap.String("remote", r.RemoteAddr))

	go c.writePump()
	go c.readPump()
}

func (h *Hub) snapshot() ([]byte, bool) {
	msg, err := json.Marshal(h.source.State())
	if err != nil {
		h.logger.Error("failed to encode state snapshot", zap.Error(err))
		return nil, false
	}
	return msg, true
}

func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Debug("slow websocket client, frame dropped")
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.setSubscribers()
}

func (h *Hub) setSubscribers() {
	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(len(h.clients)))
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients never write; reads only surface pongs and close frames.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
