// Package netstate tracks whether the backend is reachable and fans
// connectivity transitions out to subscribers.
package netstate

import (
	"context"
	"sync"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
)

const subscriberBuffer = 16

// Prober reports a nil error when the backend answers.
type Prober interface {
	Probe(ctx context.Context) error
}

type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Probe(ctx context.Context) error {
	return f(ctx)
}

type Config struct {
	Prober   Prober
	Interval time.Duration
	Timeout  time.Duration
	// Online is the state assumed before the first probe.
	Online bool
}

func New(config Config) *Monitor {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	return &Monitor{
		config: config,
		online: config.Online,
		subs:   map[chan bool]struct{}{},
	}
}

type Monitor struct {
	mtx sync.RWMutex

	config Config
	online bool
	subs   map[chan bool]struct{}
}

func (m *Monitor) Online() bool {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.online
}

// Set records the connectivity state and notifies subscribers when it
// changed.
func (m *Monitor) Set(online bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	for ch := range m.subs {
		select {
		case ch <- online:
		default:
			// slow subscriber, drop
		}
	}
}

// Check probes the backend now and returns the resulting state. Without a
// prober the current state is returned unchanged.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.config.Prober == nil {
		return m.Online()
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	err := m.config.Prober.Probe(ctx)
	if err != nil {
		logging.FromContext(ctx).Named("netstate.Check").Debugf("backend unreachable: %v", err)
	}
	m.Set(err == nil)

	return err == nil
}

// Subscribe returns a channel receiving every transition and a function that
// releases it.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, subscriberBuffer)

	m.mtx.Lock()
	m.subs[ch] = struct{}{}
	m.mtx.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mtx.Lock()
			delete(m.subs, ch)
			m.mtx.Unlock()
			close(ch)
		})
	}
}

// Run probes on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
