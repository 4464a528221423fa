// Package netstate tracks whether the device can reach the remote service and
// sequences the work that follows a change: on reconnect the sync queue is
// drained first and reference data is refreshed after it.
package netstate

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/wecare/internal/client/ui"
	"github.com/dmitrijs2005/wecare/internal/logging"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

func stateOf(online bool) State {
	if online {
		return Online
	}
	return Offline
}

// Hook is work run on a transition. Its error is logged, never propagated.
type Hook func(ctx context.Context) error

type Observer interface {
	NetworkTransition(online bool)
}

type Config struct {
	// OnSync runs first after every offline -> online transition.
	OnSync    Hook
	// OnRefresh runs once OnSync has returned, whatever its outcome.
	OnRefresh Hook
	UI        ui.Notifier
	Log       logging.Logger
	Observer  Observer
}

// Monitor owns the connectivity state. Signals are queued and handled one at
// a time by Run, so a second transition never overlaps the hooks of the first.
type Monitor struct {
	cfg Config
	log logging.Logger

	mu      sync.Mutex
	state   State
	pending []bool
	wake    chan struct{}
}

// NewMonitor starts in the state reported by the platform at startup.
func NewMonitor(initiallyOnline bool, cfg Config) *Monitor {
	if cfg.UI == nil {
		cfg.UI = ui.Nop{}
	}
	if cfg.Log == nil {
		cfg.Log = logging.Nop{}
	}
	return &Monitor{
		cfg:   cfg,
		log:   cfg.Log.With("component", "netstate"),
		state: stateOf(initiallyOnline),
		wake:  make(chan struct{}, 1),
	}
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) Online() bool {
	return m.State() == Online
}

// Assume sets the state without any transition work. It is meant for
// one-shot commands that probe once and never call Run.
func (m *Monitor) Assume(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = stateOf(online)
}

// Signal queues a platform connectivity event. It never blocks.
func (m *Monitor) Signal(online bool) {
	m.mu.Lock()
	m.pending = append(m.pending, online)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Monitor) next() (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return false, false
	}
	ev := m.pending[0]
	m.pending = m.pending[1:]
	return ev, true
}

// Run shows the initial indicator and handles queued signals until ctx is
// done.
func (m *Monitor) Run(ctx context.Context) error {
	m.cfg.UI.OfflineIndicator(!m.Online())

	for {
		for {
			ev, ok := m.next()
			if !ok {
				break
			}
			m.handle(ctx, ev)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.wake:
		}
	}
}

func (m *Monitor) handle(ctx context.Context, online bool) {
	next := stateOf(online)

	m.mu.Lock()
	prev := m.state
	m.state = next
	m.mu.Unlock()

	if prev == next {
		return
	}
	m.log.Info(ctx, "network state changed", "from", prev, "to", next)
	if m.cfg.Observer != nil {
		m.cfg.Observer.NetworkTransition(online)
	}

	if next == Offline {
		m.cfg.UI.OfflineIndicator(true)
		return
	}

	m.cfg.UI.OfflineIndicator(false)
	ctx = logging.ContextWith(ctx, "trigger", "reconnect")
	m.runHook(ctx, "sync", m.cfg.OnSync)
	m.runHook(ctx, "refresh", m.cfg.OnRefresh)
}

func (m *Monitor) runHook(ctx context.Context, name string, h Hook) {
	if h == nil || ctx.Err() != nil {
		return
	}
	if err := h(ctx); err != nil {
		m.log.Warn(ctx, "reconnect hook failed", "hook", name, "error", err)
	}
}
