// Package httpcache is the network response cache of the device. Manager is an
// http.RoundTripper: requests under the API prefix go straight to the network,
// everything else is served stale-while-revalidate from the current cache
// generation.
//
// Generations are named by a version string. Install fills the current one
// from a fixed manifest, Activate purges every other generation.
package httpcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/logging"
	"github.com/dmitrijs2005/wecare/internal/timex"
)

// CacheStatusHeader tells callers whether a response came from the cache.
const CacheStatusHeader = "X-Cache"

// Lookup outcomes reported to the Observer.
const (
	ResultBypass  = "bypass"
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultOffline = "offline"
)

// Observer receives one call per request handled by the Manager.
type Observer interface {
	CacheLookup(result string)
	CacheRevalidated(ok bool)
}

type nopObserver struct{}

func (nopObserver) CacheLookup(string)     {}
func (nopObserver) CacheRevalidated(bool) {}

type Options struct {
	// Version names the current generation.
	Version string
	// APIPrefix is the URL path prefix that is never cached.
	APIPrefix string
	// Origin resolves relative manifest entries.
	Origin *url.URL
	// Manifest lists resources that must be cached before the generation is ready.
	Manifest []string
}

type Manager struct {
	base     http.RoundTripper
	storage  Storage
	opts     Options
	log      logging.Logger
	observer Observer
	clock    timex.Clock
	apiPaths []string

	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

type Option func(*Manager)

func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

func WithClock(c timex.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// New builds a Manager in front of base. A nil base means http.DefaultTransport.
func New(base http.RoundTripper, storage Storage, opts Options, log logging.Logger, options ...Option) *Manager {
	if base == nil {
		base = http.DefaultTransport
	}
	if log == nil {
		log = logging.Nop{}
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/"
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		base:     base,
		storage:  storage,
		opts:     opts,
		log:      log.With("component", "httpcache", "generation", opts.Version),
		observer: nopObserver{},
		clock:    timex.RealClock{},
		bgCtx:    ctx,
		bgCancel: cancel,
	}
	for _, o := range options {
		o(m)
	}
	m.apiPaths = apiPaths(opts.APIPrefix, opts.Origin)
	return m
}

// apiPaths lists the path prefixes that bypass the cache: the API prefix at
// the root and, when the origin has a base path, the prefix under it.
func apiPaths(prefix string, origin *url.URL) []string {
	paths := []string{prefix}
	if origin == nil {
		return paths
	}
	if base := strings.Trim(origin.Path, "/"); base != "" {
		paths = append(paths, "/"+base+"/"+strings.TrimLeft(prefix, "/"))
	}
	return paths
}

// RequestKey is the identity a response is stored under.
func RequestKey(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

func (m *Manager) bypass(req *http.Request) bool {
	for _, p := range m.apiPaths {
		if strings.HasPrefix(req.URL.Path, p) {
			return true
		}
	}
	return false
}

func (m *Manager) RoundTrip(req *http.Request) (*http.Response, error) {
	if m.bypass(req) {
		m.observer.CacheLookup(ResultBypass)
		return m.base.RoundTrip(req)
	}

	ctx := req.Context()
	key := RequestKey(req)

	cached, err := m.storage.Get(ctx, m.opts.Version, key)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		m.log.Warn(ctx, "cache read failed, going to network", "key", key, "error", err)
	}

	if cached != nil {
		m.observer.CacheLookup(ResultHit)
		bg := req.Clone(m.bgCtx)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.revalidate(bg, key)
		}()
		return cached.response(req), nil
	}

	resp, err := m.fetchAndStore(req, key)
	if err != nil {
		m.observer.CacheLookup(ResultOffline)
		m.log.Warn(ctx, "network failed with nothing cached", "key", key, "error", err)
		return offlineResponse(req), nil
	}
	m.observer.CacheLookup(ResultMiss)
	return resp, nil
}

func (m *Manager) revalidate(req *http.Request, key string) {
	resp, err := m.fetchAndStore(req, key)
	if err != nil {
		m.observer.CacheRevalidated(false)
		m.log.Debug(req.Context(), "revalidation failed", "key", key, "error", err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	m.observer.CacheRevalidated(true)
}

// fetchAndStore performs req and, for successful GETs, stores the response in
// the current generation. The returned response body is readable.
func (m *Manager) fetchAndStore(req *http.Request, key string) (*http.Response, error) {
	resp, err := m.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if req.Method != http.MethodGet || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", key, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	e := &Entry{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body, StoredAt: m.clock.Now()}
	if err := m.storage.Put(req.Context(), m.opts.Version, key, e); err != nil {
		m.log.Warn(req.Context(), "cache write failed", "key", key, "error", err)
	}
	return resp, nil
}

func offlineResponse(req *http.Request) *http.Response {
	body := []byte("Offline")
	return &http.Response{
		Status:     "503 Service Unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header: http.Header{
			"Content-Type":           {"text/plain; charset=utf-8"},
			common.OfflineHeaderName: {"1"},
		},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// IsOffline reports whether resp is the placeholder produced when the network
// failed and nothing was cached.
func IsOffline(resp *http.Response) bool {
	return resp != nil && resp.Header.Get(common.OfflineHeaderName) == "1"
}

func (m *Manager) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("manifest entry %q: %w", ref, err)
	}
	if u.IsAbs() || m.opts.Origin == nil {
		return u.String(), nil
	}
	return m.opts.Origin.ResolveReference(u).String(), nil
}

// Install fetches every manifest entry into the current generation. Any
// failure leaves the generation not ready.
func (m *Manager) Install(ctx context.Context) error {
	if err := m.storage.CreateGeneration(ctx, m.opts.Version); err != nil {
		return err
	}

	for _, ref := range m.opts.Manifest {
		target, err := m.resolve(ref)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrGenerationNotReady, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrGenerationNotReady, err)
		}

		resp, err := m.base.RoundTrip(req)
		if err != nil {
			return fmt.Errorf("%w: precache %s: %w", common.ErrGenerationNotReady, target, err)
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: precache %s: %w", common.ErrGenerationNotReady, target, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%w: precache %s: status %d", common.ErrGenerationNotReady, target, resp.StatusCode)
		}

		e := &Entry{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body, StoredAt: m.clock.Now()}
		if err := m.storage.Put(ctx, m.opts.Version, RequestKey(req), e); err != nil {
			return fmt.Errorf("%w: %w", common.ErrGenerationNotReady, err)
		}
	}

	if err := m.storage.MarkReady(ctx, m.opts.Version); err != nil {
		return err
	}
	m.log.Info(ctx, "cache generation installed", "entries", len(m.opts.Manifest))
	return nil
}

// Activate deletes every generation other than the current one. The current
// generation must have been installed.
func (m *Manager) Activate(ctx context.Context) error {
	ready, err := m.storage.IsReady(ctx, m.opts.Version)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("activate %s: %w", m.opts.Version, common.ErrGenerationNotReady)
	}

	names, err := m.storage.Generations(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == m.opts.Version {
			continue
		}
		if err := m.storage.DeleteGeneration(ctx, name); err != nil {
			return err
		}
		m.log.Info(ctx, "stale cache generation deleted", "name", name)
	}
	return nil
}

// Wait blocks until background revalidations have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels in-flight revalidations and waits for them.
func (m *Manager) Close() {
	m.bgCancel()
	m.wg.Wait()
}
