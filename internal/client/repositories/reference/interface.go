// Package reference keeps the local mirrors of the remote reference domains
// (doctors, hospitals, NGOs).
package reference

import (
	"context"

	"github.com/dmitrijs2005/wecare/internal/client/models"
)

type Repository interface {
	// Replace swaps the whole mirror of domain for entities.
	Replace(ctx context.Context, domain models.Domain, entities []models.ReferenceEntity) error
	List(ctx context.Context, domain models.Domain) ([]models.ReferenceEntity, error)
	Get(ctx context.Context, domain models.Domain, id string) (models.ReferenceEntity, error)
	DoctorsBySpecialization(ctx context.Context, specialization string) ([]models.ReferenceEntity, error)
}
