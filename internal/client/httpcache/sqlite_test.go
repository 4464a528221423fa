package httpcache

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/store"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"), store.DefaultSchema(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewSQLiteStorage(s.DB())
}

func TestSQLiteStorage_Lifecycle(t *testing.T) {
	s := newSQLiteStorage(t)
	ctx := context.Background()
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	_, err := s.Get(ctx, "v1", "GET /")
	require.ErrorIs(t, err, common.ErrNotFound)

	e := &Entry{Status: 200, Header: http.Header{"Content-Type": {"text/html"}}, Body: []byte("<html>"), StoredAt: at}
	require.NoError(t, s.Put(ctx, "v1", "GET /", e))
	require.NoError(t, s.Put(ctx, "v1", "GET /", &Entry{Status: 200, Body: []byte("<html>2"), StoredAt: at}))
	require.NoError(t, s.Put(ctx, "v2", "GET /", e))

	got, err := s.Get(ctx, "v1", "GET /")
	require.NoError(t, err)
	assert.Equal(t, "<html>2", string(got.Body))
	assert.True(t, at.Equal(got.StoredAt))

	ready, err := s.IsReady(ctx, "v2")
	require.NoError(t, err)
	assert.False(t, ready)
	require.NoError(t, s.MarkReady(ctx, "v2"))
	ready, err = s.IsReady(ctx, "v2")
	require.NoError(t, err)
	assert.True(t, ready)

	names, err := s.Generations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, names)

	require.NoError(t, s.DeleteGeneration(ctx, "v1"))
	names, err = s.Generations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, names)

	_, err = s.Get(ctx, "v1", "GET /")
	require.ErrorIs(t, err, common.ErrNotFound)

	got, err = s.Get(ctx, "v2", "GET /")
	require.NoError(t, err)
	assert.Equal(t, "text/html", got.Header.Get("Content-Type"))
}

func TestSQLiteStorage_BacksManager(t *testing.T) {
	s := newSQLiteStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGeneration(ctx, "old"))
	require.NoError(t, s.MarkReady(ctx, "new"))

	m := New(nil, s, Options{Version: "new"}, nil)
	require.NoError(t, m.Activate(ctx))

	names, err := s.Generations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, names)
}
