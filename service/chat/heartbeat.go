package chat

import (
	"sync"
	"time"

	"PPDirect/logger"
)

const (
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultHeartbeatTimeout  = 1 * time.Second
)

// HeartbeatState is the probe cycle of one connection:
// ALIVE -> PROBE_SENT -> ALIVE on pong, or DEAD on timeout.
type HeartbeatState int

const (
	HeartbeatAlive HeartbeatState = iota
	HeartbeatProbeSent
	HeartbeatDead
)

// Monitor drives the heartbeat of one connection. It owns exactly one timer,
// used first for the next probe and then for the pong deadline. gen
// invalidates callbacks of timers that were replaced or stopped.
type Monitor struct {
	interval time.Duration
	timeout  time.Duration
	probe    func() error
	onDead   func()

	mu         sync.Mutex
	state      HeartbeatState
	timer      *time.Timer
	gen        uint64
	started    bool
	stopped    bool
	lastPongAt time.Time
}

func NewMonitor(interval, timeout time.Duration, probe func() error, onDead func()) *Monitor {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if timeout <= 0 {
		timeout = DefaultHeartbeatTimeout
	}
	return &Monitor{
		interval:   interval,
		timeout:    timeout,
		probe:      probe,
		onDead:     onDead,
		lastPongAt: time.Now(),
	}
}

// Start schedules the first probe. Calling it after Stop does nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.started {
		return
	}
	m.started = true
	m.scheduleLocked(m.interval, m.sendProbe)
}

func (m *Monitor) scheduleLocked(d time.Duration, fn func(gen uint64)) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.gen++
	gen := m.gen
	m.timer = time.AfterFunc(d, func() { fn(gen) })
}

func (m *Monitor) sendProbe(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.state = HeartbeatProbeSent
	// arm the deadline before the ping leaves so a fast pong always finds it
	m.scheduleLocked(m.timeout, m.expire)
	m.mu.Unlock()

	if err := m.probe(); err != nil {
		logger.Debugf("[heartbeat] probe failed: %v", err)
	}
}

// Pong records a pong. If a probe is outstanding the deadline is cancelled
// and the next probe is scheduled.
func (m *Monitor) Pong() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.lastPongAt = time.Now()
	if m.state == HeartbeatProbeSent {
		m.state = HeartbeatAlive
		m.scheduleLocked(m.interval, m.sendProbe)
	}
}

func (m *Monitor) expire(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.state = HeartbeatDead
	m.stopped = true
	m.timer = nil
	m.mu.Unlock()

	m.onDead()
}

// Stop cancels the pending timer. onDead is never called after Stop returns
// unless it was already running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Monitor) State() HeartbeatState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Alive is false once the pong deadline has passed.
func (m *Monitor) Alive() bool {
	return m.State() != HeartbeatDead
}

func (m *Monitor) LastPongAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPongAt
}
