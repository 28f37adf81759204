package chat

import (
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitorPongKeepsAlive(t *testing.T) {
	var dead atomic.Int32
	var pings atomic.Int32
	var m *Monitor
	m = NewMonitor(10*time.Millisecond, 30*time.Millisecond, func() error {
		pings.Add(1)
		go m.Pong()
		return nil
	}, func() { dead.Add(1) })
	m.Start()
	defer m.Stop()

	time.Sleep(150 * time.Millisecond)
	if dead.Load() != 0 {
		t.Fatal("responsive connection declared dead")
	}
	if pings.Load() < 3 {
		t.Fatalf("only %d probes sent", pings.Load())
	}
	if !m.Alive() {
		t.Fatal("monitor should be alive")
	}
}

func TestMonitorTimeoutFiresOnce(t *testing.T) {
	var dead atomic.Int32
	m := NewMonitor(10*time.Millisecond, 10*time.Millisecond, func() error { return nil }, func() { dead.Add(1) })
	start := time.Now()
	m.Start()

	waitFor(t, time.Second, "timeout", func() bool { return dead.Load() == 1 })
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("declared dead after %v, before interval+timeout", elapsed)
	}
	time.Sleep(50 * time.Millisecond)
	if dead.Load() != 1 {
		t.Fatalf("onDead called %d times", dead.Load())
	}
	if m.State() != HeartbeatDead {
		t.Fatalf("state = %v", m.State())
	}
}

func TestMonitorStopCancelsTimer(t *testing.T) {
	var dead atomic.Int32
	var pings atomic.Int32
	m := NewMonitor(10*time.Millisecond, 10*time.Millisecond, func() error {
		pings.Add(1)
		return nil
	}, func() { dead.Add(1) })
	m.Start()
	waitFor(t, time.Second, "first probe", func() bool { return pings.Load() == 1 })
	m.Stop()

	time.Sleep(50 * time.Millisecond)
	if dead.Load() != 0 {
		t.Fatal("onDead fired after Stop")
	}
	if pings.Load() != 1 {
		t.Fatalf("probes continued after Stop: %d", pings.Load())
	}
}

func TestMonitorStartAfterStop(t *testing.T) {
	var pings atomic.Int32
	m := NewMonitor(5*time.Millisecond, 5*time.Millisecond, func() error {
		pings.Add(1)
		return nil
	}, func() {})
	m.Stop()
	m.Start()
	time.Sleep(30 * time.Millisecond)
	if pings.Load() != 0 {
		t.Fatal("stopped monitor probed")
	}
}

func TestHeartbeatEvictsUnresponsiveConnection(t *testing.T) {
	opts := DefaultOptions()
	opts.HeartbeatInterval = 30 * time.Millisecond
	opts.HeartbeatTimeout = 20 * time.Millisecond
	f := newFixture(t, opts)

	ca, ta := f.admit(t, "tok-alice")
	ta.mu.Lock()
	ta.onPing = func() { f.hub.Pong(ca.ID()) }
	ta.mu.Unlock()

	start := time.Now()
	cb, tb := f.admit(t, "tok-bob")

	waitFor(t, time.Second, "bob evicted", func() bool { return f.hub.Registry().Get(cb.ID()) == nil })
	if elapsed := time.Since(start); elapsed > 30*time.Millisecond+20*time.Millisecond+250*time.Millisecond {
		t.Fatalf("eviction took %v", elapsed)
	}
	waitFor(t, time.Second, "bob transport closed", tb.isClosed)
	waitFor(t, time.Second, "alice notified", func() bool { return len(ta.presence()) == 3 })

	// alice answers every probe and must survive several cycles
	time.Sleep(150 * time.Millisecond)
	if f.hub.Registry().Get(ca.ID()) == nil {
		t.Fatal("responsive connection evicted")
	}
	if ta.pingCount() < 3 {
		t.Fatalf("alice probed %d times", ta.pingCount())
	}
	p := ta.presence()
	if len(p) != 3 {
		t.Fatalf("alice got %d presence frames, want exactly 3", len(p))
	}
	if got := usernames(p[2]); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("presence after eviction = %v", got)
	}
}
