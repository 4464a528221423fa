package usercache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/store"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "u.db"), store.DefaultSchema(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := &timex.FixedClock{T: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	r := NewStoreRepository(s, clock)
	ctx := context.Background()

	_, err = r.Get(ctx, KeyProfile)
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, r.Put(ctx, KeyProfile, models.Profile{ID: 1, Username: "rina", Email: "rina@example.com"}))

	clock.Advance(time.Hour)
	require.NoError(t, r.Put(ctx, KeyProfile, models.Profile{ID: 1, Username: "rina", Email: "rina@new.example.com"}))

	e, err := r.Get(ctx, KeyProfile)
	require.NoError(t, err)
	assert.Equal(t, KeyProfile, e.Key)
	assert.True(t, clock.Now().Equal(e.UpdatedAt))

	var p models.Profile
	require.NoError(t, json.Unmarshal(e.Data, &p))
	assert.Equal(t, "rina@new.example.com", p.Email)

	require.NoError(t, r.Delete(ctx, KeyProfile))
	_, err = r.Get(ctx, KeyProfile)
	require.ErrorIs(t, err, common.ErrNotFound)
}
