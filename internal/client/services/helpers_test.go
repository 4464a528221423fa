package services

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/remote"
	"github.com/dmitrijs2005/wecare/internal/client/store"
	"github.com/dmitrijs2005/wecare/internal/client/ui"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "svc.db"), store.DefaultSchema(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type switchable struct {
	mu     sync.Mutex
	online bool
}

func (s *switchable) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

type note struct {
	text     string
	severity ui.Severity
}

type notes struct {
	mu  sync.Mutex
	got []note
}

func (n *notes) OfflineIndicator(bool) {}

func (n *notes) Notify(text string, sev ui.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note{text, sev})
}

// ---- fake client ----

// fakeClient implements remote.Client; methods a test does not set panic
// through the embedded nil interface.
type fakeClient struct {
	remote.Client

	CreateRet   *models.TriageResult
	CreateErr   error
	CreateCalls []models.Submission

	FetchRet   map[models.Domain][]models.ReferenceEntity
	FetchErr   error
	FetchCalls []url.Values

	LoginRet *remote.LoginResult
	LoginErr error

	MeRet *models.Profile
	MeErr error
}

func (f *fakeClient) CreateConsultation(_ context.Context, sub models.Submission) (*models.TriageResult, error) {
	f.CreateCalls = append(f.CreateCalls, sub)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	return f.CreateRet, nil
}

func (f *fakeClient) FetchDomain(_ context.Context, d models.Domain, q url.Values) ([]models.ReferenceEntity, error) {
	f.FetchCalls = append(f.FetchCalls, q)
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	return f.FetchRet[d], nil
}

func (f *fakeClient) Login(context.Context, string, string) (*remote.LoginResult, error) {
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Me(context.Context) (*models.Profile, error) {
	return f.MeRet, f.MeErr
}

type fakeDrainer struct {
	n   int
	err error
}

func (d *fakeDrainer) Drain(context.Context) (int, error) { return d.n, d.err }

func (d *fakeDrainer) Exclusive(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
