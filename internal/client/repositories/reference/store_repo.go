package reference

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/store"
	"github.com/dmitrijs2005/wecare/internal/common"
)

type StoreRepository struct {
	s *store.Store
}

func NewStoreRepository(s *store.Store) *StoreRepository {
	return &StoreRepository{s: s}
}

func collectionFor(d models.Domain) (string, error) {
	switch d {
	case models.DomainDoctors:
		return store.Doctors, nil
	case models.DomainHospitals:
		return store.Hospitals, nil
	case models.DomainNGOs:
		return store.NGOs, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnknownDomain, d)
	}
}

func (r *StoreRepository) Replace(ctx context.Context, domain models.Domain, entities []models.ReferenceEntity) error {
	col, err := collectionFor(domain)
	if err != nil {
		return err
	}

	docs := make([]any, 0, len(entities))
	for _, e := range entities {
		fields := make(map[string]any, len(e.Fields)+1)
		for k, v := range e.Fields {
			fields[k] = v
		}
		fields["id"] = e.ID
		docs = append(docs, fields)
	}
	return r.s.Replace(ctx, col, docs)
}

func (r *StoreRepository) List(ctx context.Context, domain models.Domain) ([]models.ReferenceEntity, error) {
	col, err := collectionFor(domain)
	if err != nil {
		return nil, err
	}
	docs, err := r.s.GetAll(ctx, col)
	if err != nil {
		return nil, err
	}
	return decodeAll(domain, docs)
}

func (r *StoreRepository) Get(ctx context.Context, domain models.Domain, id string) (models.ReferenceEntity, error) {
	col, err := collectionFor(domain)
	if err != nil {
		return models.ReferenceEntity{}, err
	}
	d, err := r.s.Get(ctx, col, id)
	if err != nil {
		return models.ReferenceEntity{}, err
	}
	return models.ParseReferenceEntity(domain, json.RawMessage(d.Body))
}

func (r *StoreRepository) DoctorsBySpecialization(ctx context.Context, specialization string) ([]models.ReferenceEntity, error) {
	docs, err := r.s.GetByIndex(ctx, store.Doctors, store.IndexSpecialization, specialization)
	if err != nil {
		return nil, err
	}
	return decodeAll(models.DomainDoctors, docs)
}

func decodeAll(domain models.Domain, docs []store.Document) ([]models.ReferenceEntity, error) {
	out := make([]models.ReferenceEntity, 0, len(docs))
	for _, d := range docs {
		e, err := models.ParseReferenceEntity(domain, json.RawMessage(d.Body))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
