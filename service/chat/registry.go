package chat

import (
	"context"
	"sort"
	"sync"

	"PPDirect/tools/errs"
	"PPDirect/tools/security"
)

// OnlineEntry is one bound connection in the OnlineSet.
type OnlineEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// OnlineSet has one entry per bound connection, in registration order. A user
// with two tabs open appears twice.
type OnlineSet []OnlineEntry

// Registry holds every live connection. All operations are serialized by mu,
// so a connection is either visible with its identity or not at all.
type Registry struct {
	mu     sync.RWMutex
	seq    uint64
	byConn map[Handle]*Conn
	byUser map[string]map[Handle]*Conn // userId -> handle -> conn, bound only
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[Handle]*Conn),
		byUser: make(map[string]map[Handle]*Conn),
	}
}

// Register adds c as an Unbound placeholder.
func (r *Registry) Register(c *Conn) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.seq = r.seq
	c.state = StateUnbound
	r.byConn[c.id] = c
	metrics.connections.Add(context.Background(), 1)
	return c.id
}

// BindIdentity moves an Unbound connection to Bound and reports whether this
// call made that transition. Rebinding the same identity is a no-op.
func (r *Registry) BindIdentity(h Handle, id security.Identity) (bool, error) {
	if !id.Valid() {
		return false, errs.ErrUnauthenticated.WrapMsg("incomplete identity", "conn", h)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byConn[h]
	if c == nil || c.state == StateClosed {
		return false, errs.ErrConnectionDead.WrapMsg("bind on unknown connection", "conn", h)
	}
	if c.state == StateBound {
		if c.identity == id {
			return false, nil
		}
		return false, errs.ErrAlreadyBound.WrapMsg("connection bound to another user",
			"conn", h, "bound", c.identity.UserID, "requested", id.UserID)
	}
	c.identity = id
	c.state = StateBound
	m := r.byUser[id.UserID]
	if m == nil {
		m = make(map[Handle]*Conn)
		r.byUser[id.UserID] = m
	}
	m[h] = c
	return true, nil
}

// Unregister removes h, stops its heartbeat and closes its send queue.
// It reports whether anything was removed; repeat calls return false.
func (r *Registry) Unregister(h Handle) bool {
	r.mu.Lock()
	c := r.byConn[h]
	if c == nil {
		r.mu.Unlock()
		return false
	}
	delete(r.byConn, h)
	if c.state == StateBound {
		if m := r.byUser[c.identity.UserID]; m != nil {
			delete(m, h)
			if len(m) == 0 {
				delete(r.byUser, c.identity.UserID)
			}
		}
	}
	c.state = StateClosed
	r.mu.Unlock()
	metrics.connections.Add(context.Background(), -1)

	if c.monitor != nil {
		c.monitor.Stop()
	}
	c.closeSend()
	return true
}

// Snapshot copies the current OnlineSet.
func (r *Registry) Snapshot() OnlineSet {
	set, _ := r.snapshotLive()
	return set
}

// snapshotLive returns the OnlineSet together with every registered
// connection, bound or not, taken under one lock.
func (r *Registry) snapshotLive() (OnlineSet, []*Conn) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Conn, 0, len(r.byConn))
	for _, c := range r.byConn {
		conns = append(conns, c)
	}
	sortBySeq(conns)
	set := make(OnlineSet, 0, len(conns))
	for _, c := range conns {
		if c.state == StateBound {
			set = append(set, OnlineEntry{UserID: c.identity.UserID, Username: c.identity.Username})
		}
	}
	return set, conns
}

// Lookup returns the bound connections of userID.
func (r *Registry) Lookup(userID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Conn, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sortBySeq(out)
	return out
}

func (r *Registry) Get(h Handle) *Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[h]
}

// Identity returns the state of h and, when Bound, its identity.
func (r *Registry) Identity(h Handle) (security.Identity, State) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.byConn[h]
	if c == nil {
		return security.Identity{}, StateClosed
	}
	if c.state != StateBound {
		return security.Identity{}, c.state
	}
	return c.identity, StateBound
}

func (r *Registry) handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handle, 0, len(r.byConn))
	for h := range r.byConn {
		out = append(out, h)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

func sortBySeq(conns []*Conn) {
	sort.Slice(conns, func(i, j int) bool { return conns[i].seq < conns[j].seq })
}
