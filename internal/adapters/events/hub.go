// Package events pushes store notifications to browser clients over WebSocket.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/quotegen/internal/domain"
	"github.com/jsamuelsen/quotegen/internal/platform/logging"
	"github.com/jsamuelsen/quotegen/internal/ports"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotegen/internal/adapters/events"

	defaultBufferSize = 16
	defaultWriteWait  = 5 * time.Second
	defaultPongWait   = 60 * time.Second
)

// Event types.
const (
	TypeQuoteSelected     = "quote_selected"
	TypeNotify            = "notify"
	TypeCategoriesChanged = "categories_changed"
)

// SessionQueryParam subscribes a client to one session's events.
const SessionQueryParam = "session"

// Event is one message on the wire. Only the fields of its Type are set.
// Session is the session that caused a quote_selected or notify event.
type Event struct {
	Type       string        `json:"type"`
	Session    string        `json:"session,omitempty"`
	Quote      *domain.Quote `json:"quote,omitempty"`
	Message    string        `json:"message,omitempty"`
	Kind       string        `json:"kind,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	At         time.Time     `json:"at"`
}

// HubConfig configures a Hub.
type HubConfig struct {
	// BufferSize is the number of pending events per client. A client whose
	// buffer is full is disconnected. Defaults to 16.
	BufferSize int

	// WriteWait bounds each write to a client. Defaults to 5s.
	WriteWait time.Duration

	// PongWait is how long a client may stay silent before it is dropped.
	// Pings are sent at 9/10 of it. Defaults to 60s.
	PongWait time.Duration

	// CheckOrigin validates the Origin header of upgrades. Nil accepts
	// same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	// SessionFromContext returns the session a callback runs for, or "".
	// Nil leaves events untagged.
	SessionFromContext func(ctx context.Context) string

	Logger *slog.Logger
}

// Hub is a ports.QuoteObserver that broadcasts every callback to connected
// clients. It serves upgrades as an http.Handler.
type Hub struct {
	upgrader  websocket.Upgrader
	bufSize   int
	writeWait time.Duration
	pongWait  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	sessionOf func(ctx context.Context) string

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	connected metric.Int64UpDownCounter
	dropped   metric.Int64Counter
}

var _ ports.QuoteObserver = (*Hub)(nil)

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once

	// session, when set, restricts session-tagged events to this session.
	session string
}

// wants reports whether c receives ev. Untagged events go to everyone.
func (c *client) wants(ev *Event) bool {
	return c.session == "" || ev.Session == "" || ev.Session == c.session
}

// NewHub creates a hub with no clients.
func NewHub(cfg HubConfig) (*Hub, error) {
	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}

	writeWait := cfg.WriteWait
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}

	pongWait := cfg.PongWait
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionOf := cfg.SessionFromContext
	if sessionOf == nil {
		sessionOf = func(context.Context) string { return "" }
	}

	meter := otel.Meter(instrumentationName)

	connected, err := meter.Int64UpDownCounter("quotes.events.clients",
		metric.WithDescription("Connected event stream clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating clients counter: %w", err)
	}

	dropped, err := meter.Int64Counter("quotes.events.dropped",
		metric.WithDescription("Clients disconnected for falling behind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		bufSize:   bufSize,
		writeWait: writeWait,
		pongWait:  pongWait,
		logger:    logger.With(slog.String("component", "events.Hub")),
		now:       time.Now,
		sessionOf: sessionOf,
		clients:   make(map[*client]struct{}),
		connected: connected,
		dropped:   dropped,
	}, nil
}

// OnQuoteSelected implements ports.QuoteObserver.
func (h *Hub) OnQuoteSelected(ctx context.Context, quote domain.Quote) {
	h.broadcast(ctx, Event{Type: TypeQuoteSelected, Session: h.sessionOf(ctx), Quote: &quote})
}

// OnNotify implements ports.QuoteObserver.
func (h *Hub) OnNotify(ctx context.Context, message string, kind ports.NotifyKind) {
	h.broadcast(ctx, Event{Type: TypeNotify, Session: h.sessionOf(ctx), Message: message, Kind: string(kind)})
}

// OnCategoriesChanged implements ports.QuoteObserver.
func (h *Hub) OnCategoriesChanged(ctx context.Context, categories []string) {
	h.broadcast(ctx, Event{Type: TypeCategoriesChanged, Categories: categories})
}

// broadcast queues ev for every client that wants it without blocking.
// Clients that cannot keep up are disconnected.
func (h *Hub) broadcast(ctx context.Context, ev Event) {
	ev.At = h.now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		logging.FromContextOr(ctx, h.logger).WarnContext(ctx, "encoding event failed", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if !c.wants(&ev) {
			continue
		}

		select {
		case c.send <- data:
		default:
			h.dropped.Add(ctx, 1)
			h.removeLocked(ctx, c)
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContextOr(ctx, h.logger)

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logger.DebugContext(ctx, "websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, h.bufSize),
		session: r.URL.Query().Get(SessionQueryParam),
	}

	if !h.add(ctx, c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(h.writeWait))
		_ = conn.Close()

		return
	}

	logger.DebugContext(ctx, "event client connected", slog.String("remote_addr", r.RemoteAddr))

	go h.writePump(c)
	h.readPump(c)

	h.remove(context.WithoutCancel(ctx), c)
	logger.DebugContext(ctx, "event client disconnected", slog.String("remote_addr", r.RemoteAddr))
}

// readPump discards client messages and keeps the read deadline fresh on pongs.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

// writePump is the only writer of c.conn apart from the close handshake.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(ctx context.Context, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c] = struct{}{}
	h.connected.Add(ctx, 1)

	return true
}

func (h *Hub) remove(ctx context.Context, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(ctx, c)
}

// removeLocked closes the send channel once, which makes writePump say goodbye.
func (h *Hub) removeLocked(ctx context.Context, c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	h.connected.Add(ctx, -1)
	c.once.Do(func() { close(c.send) })
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for c := range h.clients {
		h.removeLocked(context.Background(), c)
	}

	return nil
}
