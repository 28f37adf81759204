package chat

import (
	"context"
	"sync"
	"time"

	"PPDirect/logger"
	"PPDirect/tools/safe"
)

const sinkTimeout = 2 * time.Second

// PresenceSink receives every OnlineSet the hub broadcasts, e.g. to mirror it
// into Redis or publish it on NATS.
type PresenceSink interface {
	Name() string
	PublishOnline(ctx context.Context, set OnlineSet) error
}

// Fanout feeds presence snapshots to the sinks from a single worker, so sinks
// observe snapshots in broadcast order. A full queue drops the snapshot.
type Fanout struct {
	sinks []PresenceSink
	jobs  chan OnlineSet

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewFanout(queue int, sinks ...PresenceSink) *Fanout {
	if queue <= 0 {
		queue = 64
	}
	f := &Fanout{sinks: sinks, jobs: make(chan OnlineSet, queue)}
	f.wg.Add(1)
	safe.SafeGo("presence-fanout", func() {
		defer f.wg.Done()
		for set := range f.jobs {
			f.deliver(set)
		}
	})
	return f
}

func (f *Fanout) deliver(set OnlineSet) {
	for _, s := range f.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		safe.Run("presence-sink-"+s.Name(), func() {
			if err := s.PublishOnline(ctx, set); err != nil {
				logger.Warnf("[presence] sink=%s publish failed: %v", s.Name(), err)
			}
		})
		cancel()
	}
}

func (f *Fanout) Publish(set OnlineSet) {
	if len(f.sinks) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.jobs <- set:
	default:
		logger.Warnf("[presence] fanout queue full, drop snapshot size=%d", len(set))
	}
}

// Close stops accepting snapshots and waits for queued ones to be delivered.
func (f *Fanout) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.jobs)
	f.mu.Unlock()
	f.wg.Wait()
}
