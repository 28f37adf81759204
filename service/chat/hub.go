package chat

import (
	"context"
	"sync/atomic"
	"time"

	"PPDirect/data/gateway"
	"PPDirect/logger"
	"PPDirect/tools/errs"
	"PPDirect/tools/safe"
	"PPDirect/tools/security"
)

const (
	defaultSendQueue = 256
	DefaultReadLimit = 64 << 10
)

// Verifier resolves a session credential to an Identity.
type Verifier interface {
	Verify(token string) (security.Identity, error)
}

type Options struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	SendQueue         int
	FanoutQueue       int
	Sinks             []PresenceSink
}

func DefaultOptions() Options {
	return Options{
		HeartbeatInterval: DefaultHeartbeatInterval,
		HeartbeatTimeout:  DefaultHeartbeatTimeout,
		SendQueue:         defaultSendQueue,
		FanoutQueue:       64,
	}
}

// Hub ties the Registry, Heartbeat Monitors, Router and Broadcaster together.
type Hub struct {
	opts     Options
	auth     Verifier
	reg      *Registry
	router   *Router
	fanout   *Fanout
	presence *Broadcaster
	closed   atomic.Bool
}

func NewHub(auth Verifier, store MessageStore, opts Options) *Hub {
	reg := NewRegistry()
	fanout := NewFanout(opts.FanoutQueue, opts.Sinks...)
	return &Hub{
		opts:     opts,
		auth:     auth,
		reg:      reg,
		router:   NewRouter(reg, store),
		fanout:   fanout,
		presence: NewBroadcaster(reg, fanout),
	}
}

func (h *Hub) Registry() *Registry { return h.reg }

// Admit registers t, starts its writer and heartbeat, then tries to bind the
// credential. A connection whose credential does not verify stays Unbound:
// it is kept open, reaped by heartbeat and still receives presence, but it
// cannot send and is not part of the OnlineSet. The returned error is ErrConnectionDead only when the hub is closed.
func (h *Hub) Admit(t Transport, token string) (*Conn, error) {
	if h.closed.Load() {
		return nil, errs.ErrConnectionDead.WrapMsg("hub closed")
	}
	c := newConn(t, h.opts.SendQueue)
	c.monitor = NewMonitor(h.opts.HeartbeatInterval, h.opts.HeartbeatTimeout, t.Ping, func() {
		logger.Infof("[heartbeat] pong timeout, evict conn=%s addr=%s", c.id, t.RemoteAddr())
		metrics.evictions.Add(context.Background(), 1)
		_ = t.Close()
		h.Disconnect(c.id)
	})
	h.reg.Register(c)
	safe.SafeGo("ws-writer", c.writeLoop)
	c.monitor.Start()

	if err := h.Authenticate(c.id, token); err != nil {
		logger.Infof("[WS] conn=%s addr=%s stays unbound: %v", c.id, t.RemoteAddr(), err)
	}
	return c, nil
}

// Authenticate verifies token and binds the identity to h. A successful
// first bind triggers a presence broadcast.
func (h *Hub) Authenticate(hd Handle, token string) error {
	id, err := h.auth.Verify(token)
	if err != nil {
		return err
	}
	bound, err := h.reg.BindIdentity(hd, id)
	if err != nil {
		return err
	}
	if bound {
		logger.Infof("[WS] bound conn=%s user=%s", hd, id.UserID)
		h.presence.BroadcastOnline()
	}
	return nil
}

// Disconnect evicts hd. Only the call that actually removes the connection
// broadcasts presence.
func (h *Hub) Disconnect(hd Handle) {
	if h.reg.Unregister(hd) {
		h.presence.BroadcastOnline()
	}
}

func (h *Hub) HandleInbound(ctx context.Context, hd Handle, payload []byte) (*gateway.Message, error) {
	return h.router.HandleInbound(ctx, hd, payload)
}

// Pong feeds a pong received on hd to its monitor.
func (h *Hub) Pong(hd Handle) {
	if c := h.reg.Get(hd); c != nil && c.monitor != nil {
		c.monitor.Pong()
	}
}

func (h *Hub) Online() OnlineSet {
	return h.reg.Snapshot()
}

// Close evicts every connection, publishes the empty set to the sinks and
// waits for the fan-out worker to finish.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	for _, hd := range h.reg.handles() {
		h.reg.Unregister(hd)
	}
	h.presence.BroadcastOnline()
	h.fanout.Close()
	logger.Infof("[WS] hub closed")
}
