// Package netmon derives an online/offline signal for headless deployments
// by probing the blob backend's health route. Transitions are edge-triggered:
// each handler fires exactly once per up/down flip, synchronously from the
// probe loop.
package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober checks backend reachability. Implemented by remote.Client.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor polls a Prober and publishes connectivity transitions.
type Monitor struct {
	prober   Prober
	interval time.Duration

	mu     sync.Mutex
	online bool
	onUp   []func()
	onDown []func()
}

// NewMonitor creates a monitor. The initial state is offline; the first
// successful probe fires the became-online handlers, which doubles as the
// startup sync trigger.
func NewMonitor(prober Prober, interval time.Duration) *Monitor {
	return &Monitor{
		prober:   prober,
		interval: interval,
	}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnUp registers a handler for the offline→online edge. Handlers registered
// after Run has started may miss transitions already delivered; register
// before starting.
func (m *Monitor) OnUp(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUp = append(m.onUp, fn)
}

// OnDown registers a handler for the online→offline edge.
func (m *Monitor) OnDown(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDown = append(m.onDown, fn)
}

// Run starts the probe loop. It probes once immediately, then on the
// interval, and blocks until ctx is cancelled. No handler fires after Run
// returns.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("connectivity monitor started",
		"component", "netmon",
		"interval", m.interval.String(),
	)

	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("connectivity monitor stopped",
				"component", "netmon",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// probe checks reachability once and fires handlers on a state change.
func (m *Monitor) probe(ctx context.Context) {
	err := m.prober.Ping(ctx)
	if ctx.Err() != nil {
		return
	}
	now := err == nil

	m.mu.Lock()
	changed := now != m.online
	m.online = now
	var handlers []func()
	if changed && now {
		handlers = append(handlers, m.onUp...)
	} else if changed {
		handlers = append(handlers, m.onDown...)
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	if now {
		slog.Info("connectivity up", "component", "netmon", "action", "went_online")
	} else {
		slog.Warn("connectivity down", "component", "netmon", "action", "went_offline", "error", err)
	}

	for _, fn := range handlers {
		fn()
	}
}
