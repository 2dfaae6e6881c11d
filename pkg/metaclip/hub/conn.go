package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connState tracks the per-connection lifecycle. Transitions run strictly
// Connecting -> Open -> Closed; Closed is terminal, and a closed connection
// must re-register as a brand-new Conn to resume receiving events.
type connState int

const (
	stateConnecting connState = iota
	stateOpen
	stateClosed
)

var errConnClosed = errors.New("connection closed")

// transport is the write side of a live connection. *websocket.Conn
// satisfies it.
type transport interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Conn is one live client connection. Owned exclusively by the Hub; no other
// component may hold or mutate it.
type Conn struct {
	ws transport

	mu    sync.Mutex // serializes writes and guards state
	state connState
}

func newConn(ws transport) *Conn {
	return &Conn{ws: ws, state: stateOpen}
}

// send writes one text message under the write deadline.
func (c *Conn) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return errConnClosed
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// close transitions the connection to its terminal state and closes the
// transport. Safe to call more than once.
func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return
	}
	c.state = stateClosed
	_ = c.ws.Close()
}
