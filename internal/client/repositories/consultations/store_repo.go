package consultations

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/store"
)

type StoreRepository struct {
	s *store.Store
}

func NewStoreRepository(s *store.Store) *StoreRepository {
	return &StoreRepository{s: s}
}

func (r *StoreRepository) Insert(ctx context.Context, c *models.Consultation) (int64, error) {
	c.ID = 0
	c.Synced = false

	id, err := r.s.Insert(ctx, store.Consultations, c)
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

func (r *StoreRepository) InsertSynced(ctx context.Context, c *models.Consultation) (int64, error) {
	c.ID = 0
	c.Synced = true

	id, err := r.s.Insert(ctx, store.Consultations, c)
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

func (r *StoreRepository) Get(ctx context.Context, id int64) (*models.Consultation, error) {
	d, err := r.s.Get(ctx, store.Consultations, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	var c models.Consultation
	if err := d.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *StoreRepository) GetAll(ctx context.Context) ([]*models.Consultation, error) {
	docs, err := r.s.GetAll(ctx, store.Consultations)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs)
}

func (r *StoreRepository) GetUnsynced(ctx context.Context) ([]*models.Consultation, error) {
	docs, err := r.s.GetByIndex(ctx, store.Consultations, store.IndexSynced, false)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs)
}

func (r *StoreRepository) MarkSynced(ctx context.Context, id int64) error {
	return r.update(ctx, id, func(c *models.Consultation) {
		c.Synced = true
	})
}

func (r *StoreRepository) Acknowledge(ctx context.Context, id int64, result models.TriageResult) error {
	return r.update(ctx, id, func(c *models.Consultation) {
		c.Result = result
		c.Synced = true
	})
}

func (r *StoreRepository) update(ctx context.Context, id int64, fn func(*models.Consultation)) error {
	return r.s.Update(ctx, store.Consultations, strconv.FormatInt(id, 10), func(d store.Document) (any, error) {
		var c models.Consultation
		if err := d.Decode(&c); err != nil {
			return nil, err
		}
		fn(&c)
		return &c, nil
	})
}

func decodeAll(docs []store.Document) ([]*models.Consultation, error) {
	out := make([]*models.Consultation, 0, len(docs))
	for _, d := range docs {
		var c models.Consultation
		if err := d.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, nil
}
