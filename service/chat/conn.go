package chat

import (
	"context"
	"sync"
	"sync/atomic"

	"PPDirect/logger"
	"PPDirect/tools/errs"
	"PPDirect/tools/ids"
	"PPDirect/tools/security"
)

// Handle identifies one live connection inside the Registry.
type Handle string

// State is the connection lifecycle: Unbound -> Bound(identity) -> Closed.
type State int

const (
	StateUnbound State = iota
	StateBound
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	default:
		return "closed"
	}
}

// Transport is the raw bidirectional channel under a Conn. Write is only
// called from the connection's writer goroutine; Ping and Close may be called
// from any goroutine.
type Transport interface {
	Write(data []byte) error
	Ping() error
	Close() error
	RemoteAddr() string
}

// Conn is one live connection. state and identity are owned by the Registry
// and only touched under its lock.
type Conn struct {
	id        Handle
	seq       uint64
	transport Transport
	monitor   *Monitor

	state    State
	identity security.Identity

	mu      sync.Mutex
	closed  bool
	send    chan []byte
	dropped atomic.Int64
	done    chan struct{}
}

func newConn(t Transport, queue int) *Conn {
	if queue <= 0 {
		queue = defaultSendQueue
	}
	return &Conn{
		id:        Handle(ids.GenerateString()),
		transport: t,
		send:      make(chan []byte, queue),
		done:      make(chan struct{}),
	}
}

func (c *Conn) ID() Handle { return c.id }

// Dropped counts frames discarded because the send queue was full.
func (c *Conn) Dropped() int64 { return c.dropped.Load() }

// Done is closed once the writer goroutine has exited.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Enqueue hands data to the writer without blocking. A full queue drops the
// frame; a closed connection reports ErrConnectionDead.
func (c *Conn) Enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errs.ErrConnectionDead.WrapMsg("enqueue on closed connection", "conn", c.id)
	}
	select {
	case c.send <- data:
	default:
		c.dropped.Add(1)
		metrics.dropped.Add(context.Background(), 1)
		logger.Warnf("[WS] send queue full, drop frame conn=%s len=%d", c.id, len(data))
	}
	return nil
}

// closeSend stops accepting frames; the writer drains what is queued and
// then closes the transport.
func (c *Conn) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Conn) writeLoop() {
	defer close(c.done)
	for data := range c.send {
		if err := c.transport.Write(data); err != nil {
			logger.Infof("[WS] write err conn=%s addr=%s err=%v", c.id, c.transport.RemoteAddr(), err)
			_ = c.transport.Close()
			for range c.send {
			}
			return
		}
	}
	_ = c.transport.Close()
}
