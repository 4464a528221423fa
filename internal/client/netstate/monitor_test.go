package netstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/ui"
	"github.com/dmitrijs2005/wecare/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	events    []string
	indicator []bool
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OfflineIndicator(offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indicator = append(r.indicator, offline)
	if offline {
		r.events = append(r.events, "indicator:on")
	} else {
		r.events = append(r.events, "indicator:off")
	}
}

func (r *recorder) Notify(string, ui.Severity) {}

func (r *recorder) hook(name string, err error) Hook {
	return func(context.Context) error {
		r.add(name)
		return err
	}
}

func startMonitor(t *testing.T, m *Monitor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitFor(t *testing.T, r *recorder, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) >= n }, 2*time.Second, 5*time.Millisecond)
	return r.snapshot()
}

func TestMonitor_ReconnectRunsSyncThenRefresh(t *testing.T) {
	r := &recorder{}
	m := NewMonitor(false, Config{OnSync: r.hook("sync", nil), OnRefresh: r.hook("refresh", nil), UI: r})
	startMonitor(t, m)

	m.Signal(true)
	got := waitFor(t, r, 4)
	assert.Equal(t, []string{"indicator:on", "indicator:off", "sync", "refresh"}, got)
	assert.True(t, m.Online())
}

func TestMonitor_RefreshRunsEvenWhenSyncFails(t *testing.T) {
	r := &recorder{}
	m := NewMonitor(false, Config{OnSync: r.hook("sync", errors.New("boom")), OnRefresh: r.hook("refresh", nil), UI: r})
	startMonitor(t, m)

	m.Signal(true)
	assert.Equal(t, []string{"indicator:on", "indicator:off", "sync", "refresh"}, waitFor(t, r, 4))
}

func TestMonitor_HooksSeeReconnectTrigger(t *testing.T) {
	r := &recorder{}
	var fields []any
	onSync := func(ctx context.Context) error {
		fields = logging.Fields(ctx)
		r.add("sync")
		return nil
	}
	m := NewMonitor(false, Config{OnSync: onSync, UI: r})
	startMonitor(t, m)

	m.Signal(true)
	waitFor(t, r, 3)
	assert.Equal(t, []any{"trigger", "reconnect"}, fields)
}

func TestMonitor_GoingOfflineDoesNoNetworkWork(t *testing.T) {
	r := &recorder{}
	m := NewMonitor(true, Config{OnSync: r.hook("sync", nil), OnRefresh: r.hook("refresh", nil), UI: r})
	startMonitor(t, m)

	m.Signal(false)
	assert.Equal(t, []string{"indicator:off", "indicator:on"}, waitFor(t, r, 2))
	assert.Equal(t, Offline, m.State())
}

func TestMonitor_SameStateSignalsAreIgnored(t *testing.T) {
	r := &recorder{}
	m := NewMonitor(false, Config{OnSync: r.hook("sync", nil), OnRefresh: r.hook("refresh", nil), UI: r})
	startMonitor(t, m)

	m.Signal(false)
	m.Signal(true)
	m.Signal(true)
	m.Signal(false)

	got := waitFor(t, r, 5)
	assert.Equal(t, []string{"indicator:on", "indicator:off", "sync", "refresh", "indicator:on"}, got)
}

func TestMonitor_TransitionsAreSequential(t *testing.T) {
	r := &recorder{}
	release := make(chan struct{})
	slowSync := func(ctx context.Context) error {
		r.add("sync:start")
		<-release
		r.add("sync:end")
		return nil
	}
	m := NewMonitor(false, Config{OnSync: slowSync, OnRefresh: r.hook("refresh", nil), UI: r})
	startMonitor(t, m)

	m.Signal(true)
	waitFor(t, r, 3)
	m.Signal(false)
	m.Signal(true)

	// nothing from the later signals may interleave with the running sync
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"indicator:on", "indicator:off", "sync:start"}, r.snapshot())

	close(release)
	got := waitFor(t, r, 10)
	assert.Equal(t, []string{
		"indicator:on", "indicator:off", "sync:start", "sync:end", "refresh",
		"indicator:on",
		"indicator:off", "sync:start", "sync:end", "refresh",
	}, got)
}

type transitions struct {
	mu   sync.Mutex
	seen []bool
}

func (o *transitions) NetworkTransition(online bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, online)
}

func TestMonitor_ReportsTransitions(t *testing.T) {
	r := &recorder{}
	obs := &transitions{}
	m := NewMonitor(true, Config{UI: r, Observer: obs})
	startMonitor(t, m)

	m.Signal(true)
	m.Signal(false)
	waitFor(t, r, 2)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []bool{false}, obs.seen)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "online", Online.String())
	assert.Equal(t, "offline", Offline.String())
}

func TestMonitor_AssumeRunsNoHooks(t *testing.T) {
	r := &recorder{}
	m := NewMonitor(false, Config{OnSync: r.hook("sync", nil), UI: r})
	m.Assume(true)
	assert.True(t, m.Online())
	assert.Empty(t, r.snapshot())
}
