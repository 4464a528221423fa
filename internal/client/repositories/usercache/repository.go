// Package usercache is a small keyed blob cache for per-user data such as the
// profile and the access token.
package usercache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/store"
	"github.com/dmitrijs2005/wecare/internal/timex"
)

// Well-known keys.
const (
	KeyProfile   = "profile"
	KeyAuthToken = "auth_token"
)

type Repository interface {
	Put(ctx context.Context, key string, data any) error
	// Get returns common.ErrNotFound when key was never written.
	Get(ctx context.Context, key string) (*models.KeyedCacheEntry, error)
	Delete(ctx context.Context, key string) error
}

type StoreRepository struct {
	s     *store.Store
	clock timex.Clock
}

func NewStoreRepository(s *store.Store, clock timex.Clock) *StoreRepository {
	if clock == nil {
		clock = timex.RealClock{}
	}
	return &StoreRepository{s: s, clock: clock}
}

func (r *StoreRepository) Put(ctx context.Context, key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.s.Put(ctx, store.UserCache, models.KeyedCacheEntry{
		Key:       key,
		Data:      raw,
		UpdatedAt: r.clock.Now(),
	})
}

func (r *StoreRepository) Get(ctx context.Context, key string) (*models.KeyedCacheEntry, error) {
	d, err := r.s.Get(ctx, store.UserCache, key)
	if err != nil {
		return nil, err
	}
	var e models.KeyedCacheEntry
	if err := d.Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *StoreRepository) Delete(ctx context.Context, key string) error {
	return r.s.Delete(ctx, store.UserCache, key)
}
