package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ttlpool/ttlpool/pkg/types"
	"github.com/ttlpool/ttlpool/server/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 64
)

// Message event names.
const (
	EventPool  = "pool"
	EventEvent = "event"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PoolListing is the payload of a "pool" message.
type PoolListing struct {
	Entries     []types.EntryView `json:"entries"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Hub manages WebSocket client connections and fans pool listings and
// collector events out to them.
type Hub struct {
	store    *store.Store
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from st and pushes the listing every interval.
func New(st *store.Store, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run starts the listing ticker loop. Run blocks until ctx is cancelled,
// then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			if data, err := h.poolMessage(); err == nil {
				h.broadcast(data)
			}
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client
// until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}

	// Queue the current listing before registering so it is always the
	// first message the client sees.
	if data, err := h.poolMessage(); err == nil {
		c.send <- data
	}
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- collector.Notifier -------------------------------------------------------

// CollectorStarted pushes a collector_started event with the loop period.
func (h *Hub) CollectorStarted(period time.Duration) {
	h.publish(types.Event{Type: types.EventCollectorStarted, Period: period})
}

// CollectorStopped pushes a collector_stopped event.
func (h *Hub) CollectorStopped() {
	h.publish(types.Event{Type: types.EventCollectorStopped})
}

// SweepStarted pushes a sweep_started event for kind.
func (h *Hub) SweepStarted(kind types.SweepKind) {
	h.publish(types.Event{Type: types.EventSweepStarted, Kind: kind})
}

// EntryInserted pushes an entry_inserted event.
func (h *Hub) EntryInserted(id string, lifetime time.Duration) {
	h.publish(types.Event{Type: types.EventEntryInserted, ID: id, Lifetime: lifetime})
}

// EntryDeleted pushes an entry_deleted event for an explicit delete.
func (h *Hub) EntryDeleted(id string) {
	h.publish(types.Event{Type: types.EventEntryDeleted, ID: id})
}

// EntryRemoved pushes an entry_removed event for an expired entry.
func (h *Hub) EntryRemoved(id string, kind types.SweepKind) {
	h.publish(types.Event{Type: types.EventEntryRemoved, ID: id, Kind: kind})
}

// --- internal ---------------------------------------------------------------

func (h *Hub) publish(ev types.Event) {
	if h.Count() == 0 {
		return
	}
	ev.At = time.Now().UTC()
	data, err := json.Marshal(Message{Event: EventEvent, Data: ev})
	if err != nil {
		return
	}
	h.broadcast(data)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast queues data for every client without blocking. Sends happen
// under the read lock so no client's channel can be closed mid-send.
func (h *Hub) broadcast(data []byte) {
	var slow []*client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// A client whose outgoing buffer is full is disconnected.
	for _, c := range slow {
		h.unregister(c)
	}
}

func (h *Hub) poolMessage() ([]byte, error) {
	now := time.Now()
	entries := h.store.Snapshot()
	views := make([]types.EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View(now))
	}
	return json.Marshal(Message{
		Event: EventPool,
		Data:  PoolListing{Entries: views, GeneratedAt: now.UTC()},
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages
// (pong, close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
