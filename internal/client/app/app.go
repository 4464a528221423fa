// Package app wires the device core together: storage, the response cache,
// the remote client, the sync queue, the reference refresher, the network
// monitor and the user-facing services.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/config"
	"github.com/dmitrijs2005/wecare/internal/client/httpcache"
	"github.com/dmitrijs2005/wecare/internal/client/metrics"
	"github.com/dmitrijs2005/wecare/internal/client/netstate"
	"github.com/dmitrijs2005/wecare/internal/client/refresher"
	"github.com/dmitrijs2005/wecare/internal/client/remote"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/consultations"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/reference"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/usercache"
	"github.com/dmitrijs2005/wecare/internal/client/services"
	"github.com/dmitrijs2005/wecare/internal/client/store"
	"github.com/dmitrijs2005/wecare/internal/client/syncqueue"
	"github.com/dmitrijs2005/wecare/internal/client/ui"
	"github.com/dmitrijs2005/wecare/internal/filex"
	"github.com/dmitrijs2005/wecare/internal/logging"
	"github.com/dmitrijs2005/wecare/internal/timex"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	Config   *config.Config
	Log      logging.Logger
	Notifier ui.Notifier
	DeviceID string

	Store     *store.Store
	Metrics   *metrics.Metrics
	Cache     *httpcache.Manager
	Remote    *remote.HTTPClient
	Monitor   *netstate.Monitor
	Prober    *netstate.Prober
	Sync      *syncqueue.Engine
	Refresher *refresher.Refresher

	Consultations services.ConsultationService
	Reference     services.ReferenceService
	Profile       services.ProfileService

	cancel        context.CancelFunc
	wg            sync.WaitGroup
	metricsServer *http.Server
}

type Options struct {
	Log      logging.Logger
	Notifier ui.Notifier
	Registry *prometheus.Registry
	// Transport is the network below the response cache. Nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
	Clock     timex.Clock
}

// New opens the device database and builds every component. Nothing runs in
// the background until Start.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.Log == nil {
		opts.Log = logging.Nop{}
	}
	if opts.Notifier == nil {
		opts.Notifier = ui.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = timex.RealClock{}
	}
	domains, err := cfg.Domains()
	if err != nil {
		return nil, err
	}
	origin, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	dsn := cfg.DatabasePath
	if !strings.Contains(dsn, "memory") {
		if dsn, err = filex.EnsureParentDir(dsn); err != nil {
			return nil, err
		}
	}
	s, err := store.Open(ctx, dsn, store.DefaultSchema(), opts.Log)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      opts.Log,
		Notifier: opts.Notifier,
		Store:    s,
		Metrics:  metrics.New(opts.Registry),
	}

	if a.DeviceID, err = metadata.NewSQLiteRepository(s.DB()).DeviceID(ctx, uuid.NewString); err != nil {
		_ = s.Close()
		return nil, err
	}
	a.Log = a.Log.With("device_id", a.DeviceID)

	a.Cache = httpcache.New(opts.Transport, httpcache.NewSQLiteStorage(s.DB()), httpcache.Options{
		Version:   cfg.CacheVersion,
		APIPrefix: cfg.APIPrefix,
		Origin:    origin,
		Manifest:  cfg.PrecacheManifest,
	}, a.Log, httpcache.WithObserver(a.Metrics), httpcache.WithClock(opts.Clock))

	userCache := usercache.NewStoreRepository(s, opts.Clock)
	a.Remote, err = remote.NewHTTPClient(cfg.ServerURL,
		remote.WithTransport(a.Cache),
		remote.WithTokenSource(remote.TokenFunc(func(ctx context.Context) (string, error) {
			return a.Profile.Token(ctx)
		})),
		remote.WithLogger(a.Log),
	)
	if err != nil {
		a.Cache.Close()
		_ = s.Close()
		return nil, err
	}

	consultRepo := consultations.NewStoreRepository(s)
	refRepo := reference.NewStoreRepository(s)

	a.Sync = syncqueue.New(consultRepo, a.Remote, a.Log, a.Metrics)
	a.Refresher = refresher.New(a.Remote, refRepo, domains, a.Log, a.Metrics)
	a.Monitor = netstate.NewMonitor(false, netstate.Config{
		OnSync:    a.syncOnReconnect,
		OnRefresh: a.refreshOnReconnect,
		UI:        a.Notifier,
		Log:       a.Log,
		Observer:  a.Metrics,
	})
	a.Prober = netstate.NewProber(a.Remote, a.Monitor, cfg.OnlineCheckInterval, cfg.ProbeTimeout, a.Log)

	a.Consultations = services.NewConsultationService(a.Remote, consultRepo, a.Monitor, a.Sync, a.Notifier, opts.Clock, a.Log)
	a.Reference = services.NewReferenceService(a.Remote, refRepo, a.Refresher, a.Monitor, a.Log)
	a.Profile = services.NewProfileService(a.Remote, userCache, a.Monitor, a.Log)

	return a, nil
}

func (a *App) syncOnReconnect(ctx context.Context) error {
	n, err := a.Sync.Drain(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		a.Notifier.Notify(services.MsgSynced, ui.SeveritySuccess)
	}
	return nil
}

func (a *App) refreshOnReconnect(ctx context.Context) error {
	return refresher.Failed(a.Refresher.RefreshAll(ctx))
}

// Start runs the network monitor, the reachability prober, the cache install
// and, when configured, the metrics endpoint. The first probe decides the
// initial state; an online start drains the queue and refreshes reference
// data like any reconnect.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.Metrics.SetOnline(false)
	a.Prober.Probe(ctx)

	a.goBackground(func() { _ = a.Monitor.Run(ctx) })
	a.goBackground(func() { a.Prober.Run(ctx) })
	a.goBackground(func() {
		if err := a.InstallCache(ctx); err != nil {
			a.Log.Warn(ctx, "cache install skipped", "error", err)
		}
	})

	if a.Config.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.Metrics.Handler())
		a.metricsServer = &http.Server{Addr: a.Config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		a.goBackground(func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Log.Error(ctx, "metrics server stopped", "error", err)
			}
		})
	}
}

func (a *App) goBackground(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// ProbeOnce sets the connectivity state from a single reachability check
// without running any transition work. Used by one-shot commands.
func (a *App) ProbeOnce(ctx context.Context) bool {
	online := a.Prober.Reachable(ctx)
	a.Monitor.Assume(online)
	a.Metrics.SetOnline(online)
	return online
}

// InstallCache precaches the manifest into the current generation and, once
// it is complete, deletes older generations.
func (a *App) InstallCache(ctx context.Context) error {
	if err := a.Cache.Install(ctx); err != nil {
		return err
	}
	return a.Cache.Activate(ctx)
}

// FetchResult is a resource read through the response cache.
type FetchResult struct {
	Status  int
	Body    []byte
	Cached  bool
	Offline bool
}

// Fetch GETs path (relative to the server URL) through the response cache.
func (a *App) Fetch(ctx context.Context, path string) (*FetchResult, error) {
	base, err := url.Parse(a.Config.ServerURL)
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := (&http.Client{Transport: a.Cache}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &FetchResult{
		Status:  resp.StatusCode,
		Body:    body,
		Cached:  resp.Header.Get(httpcache.CacheStatusHeader) == "HIT",
		Offline: httpcache.IsOffline(resp),
	}, nil
}

// Close stops background work and closes the database.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.metricsServer.Shutdown(ctx)
		cancel()
	}
	a.wg.Wait()
	a.Cache.Close()

	if s, ok := a.Log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return a.Store.Close()
}
