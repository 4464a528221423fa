// Package consultations keeps the consultations created on this device and
// tracks which of them the remote service has acknowledged.
package consultations

import (
	"context"

	"github.com/dmitrijs2005/wecare/internal/client/models"
)

type Repository interface {
	// Insert stores c as unsynced and returns the id assigned to it.
	Insert(ctx context.Context, c *models.Consultation) (int64, error)
	// InsertSynced stores c as already acknowledged by the remote service.
	InsertSynced(ctx context.Context, c *models.Consultation) (int64, error)
	Get(ctx context.Context, id int64) (*models.Consultation, error)
	GetAll(ctx context.Context) ([]*models.Consultation, error)
	GetUnsynced(ctx context.Context) ([]*models.Consultation, error)
	// MarkSynced flips the record to synced. It never flips it back.
	MarkSynced(ctx context.Context, id int64) error
	// Acknowledge flips the record to synced and replaces its result with the
	// one the remote service returned.
	Acknowledge(ctx context.Context, id int64, result models.TriageResult) error
}
