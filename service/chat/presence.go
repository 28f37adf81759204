package chat

import (
	"context"
	"sync"

	"PPDirect/logger"
)

// Broadcaster pushes the OnlineSet to every live connection. mu keeps
// snapshot and enqueue together, so every connection sees presence frames in
// the order the snapshots were taken.
type Broadcaster struct {
	reg    *Registry
	fanout *Fanout
	mu     sync.Mutex
}

func NewBroadcaster(reg *Registry, fanout *Fanout) *Broadcaster {
	return &Broadcaster{reg: reg, fanout: fanout}
}

// BroadcastOnline takes a Snapshot and enqueues it to every registered
// connection, including Unbound ones. It never blocks on a slow peer.
func (b *Broadcaster) BroadcastOnline() OnlineSet {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, conns := b.reg.snapshotLive()
	frame := EncodePresence(set)
	for _, c := range conns {
		if err := c.Enqueue(frame); err != nil {
			logger.Debugf("[presence] skip conn=%s err=%v", c.ID(), err)
		}
	}
	metrics.broadcasts.Add(context.Background(), 1)
	if b.fanout != nil {
		b.fanout.Publish(set)
	}
	return set
}
