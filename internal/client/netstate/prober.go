package netstate

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wecare/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Signaler interface {
	Signal(online bool)
}

// Prober is the platform connectivity source: it pings the remote health
// endpoint on an interval and signals only when reachability changes.
type Prober struct {
	pinger   Pinger
	target   Signaler
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	last  bool
	known bool
}

func NewProber(p Pinger, target Signaler, interval, timeout time.Duration, log logging.Logger) *Prober {
	if log == nil {
		log = logging.Nop{}
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Prober{pinger: p, target: target, interval: interval, timeout: timeout, log: log.With("component", "prober")}
}

// Reachable pings once without signaling anyone.
func (p *Prober) Reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.pinger.Ping(ctx) == nil
}

// Seed records the state the monitor was started with, so the first probe
// only signals on an actual change.
func (p *Prober) Seed(online bool) {
	p.last, p.known = online, true
}

// Probe pings once and signals the target if reachability changed.
func (p *Prober) Probe(ctx context.Context) bool {
	online := p.Reachable(ctx)
	if !p.known || online != p.last {
		p.log.Debug(ctx, "reachability changed", "online", online)
		p.target.Signal(online)
	}
	p.last, p.known = online, true
	return online
}

// Run probes every interval until ctx is done. Run is not safe to call from
// more than one goroutine.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
