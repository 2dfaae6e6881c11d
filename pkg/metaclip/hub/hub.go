// Package hub maintains the process-wide registry of live client connections
// and fans out catalog change events over WebSocket.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tendant/metaclip/pkg/metaclip"
)

const (
	// writeWait bounds each send attempt so a single stalled peer cannot
	// block delivery to the rest of the registry.
	writeWait = 10 * time.Second

	maxMessageSize = 4096
)

// Hub is the registry + fan-out mechanism for live change notifications.
// It implements metaclip.EventSink so the item service can hand events
// straight to it. Created empty at process start, drained at shutdown; no
// state survives a restart.
type Hub struct {
	mu       sync.Mutex
	conns    []*Conn
	upgrader websocket.Upgrader
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The event stream carries no credentials and the item API is
			// origin-agnostic, so cross-origin clients are accepted.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register adds a connection to the registry. It takes effect before any
// further broadcast; no backlog is replayed.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns = append(h.conns, c)
}

// Unregister removes a connection from the registry. Removing a connection
// that is not present is a no-op.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove must be called with h.mu held.
func (h *Hub) remove(c *Conn) {
	for i, existing := range h.conns {
		if existing == c {
			h.conns = append(h.conns[:i], h.conns[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast serializes the event once and sends it to every registered
// connection in registry order. A failed send marks the connection for
// removal, applied only after the full delivery pass so the connection list
// stays stable for the duration of one broadcast.
func (h *Hub) Broadcast(event metaclip.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode event", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	snapshot := make([]*Conn, len(h.conns))
	copy(snapshot, h.conns)
	h.mu.Unlock()

	var failed []*Conn
	for _, c := range snapshot {
		if err := c.send(payload); err != nil {
			slog.Debug("dropping connection after failed send", "error", err)
			failed = append(failed, c)
		}
	}

	h.mu.Lock()
	for _, c := range failed {
		h.remove(c)
	}
	h.mu.Unlock()
	for _, c := range failed {
		c.close()
	}
}

// Drain closes every connection and empties the registry. Called at process
// shutdown.
func (h *Hub) Drain() {
	h.mu.Lock()
	conns := h.conns
	h.conns = nil
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// ItemCreated implements metaclip.EventSink.
func (h *Hub) ItemCreated(ctx context.Context, item *metaclip.Item) error {
	h.Broadcast(metaclip.Event{Type: metaclip.EventItemCreated, ItemID: item.ID})
	return nil
}

// ItemDeleted implements metaclip.EventSink.
func (h *Hub) ItemDeleted(ctx context.Context, itemID uuid.UUID) error {
	h.Broadcast(metaclip.Event{Type: metaclip.EventItemDeleted, ItemID: itemID})
	return nil
}

// ServeHTTP upgrades the request to a WebSocket, registers the connection,
// and services inbound client messages until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	c := newConn(ws)
	h.Register(c)
	defer func() {
		h.Unregister(c)
		c.close()
	}()

	h.readLoop(ws, c)
}

// clientMessage is the only inbound payload the hub understands.
type clientMessage struct {
	Type string `json:"type"`
}

// serverReply covers pong and per-connection error replies.
type serverReply struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

func (h *Hub) readLoop(ws *websocket.Conn, c *Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		reply := serverReply{Type: "pong"}
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "ping" {
			// A bad payload gets an error reply on this connection only; it
			// neither affects other connections nor tears this one down.
			reply = serverReply{Type: "error", Message: "unrecognized message"}
		}

		payload, err := json.Marshal(reply)
		if err != nil {
			slog.Error("failed to encode reply", "error", err)
			continue
		}
		if err := c.send(payload); err != nil {
			return
		}
	}
}
