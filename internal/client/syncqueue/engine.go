// Package syncqueue drains consultations created offline to the remote
// service in a single batch.
package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/remote"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/consultations"
	"github.com/dmitrijs2005/wecare/internal/logging"
)

// Submitter is the part of remote.Client the engine needs.
type Submitter interface {
	SubmitConsultations(ctx context.Context, batch []models.SyncItem) error
}

var _ Submitter = (remote.Client)(nil)

// Observer is told about every drain that sent a batch.
type Observer interface {
	DrainFinished(items int, d time.Duration, err error)
}

type Engine struct {
	repo     consultations.Repository
	remote   Submitter
	log      logging.Logger
	observer Observer

	// mu keeps drains from overlapping: a record must never sit in two
	// in-flight batches.
	mu sync.Mutex
}

func New(repo consultations.Repository, remote Submitter, log logging.Logger, observer Observer) *Engine {
	if log == nil {
		log = logging.Nop{}
	}
	return &Engine{repo: repo, remote: remote, log: log.With("component", "syncqueue"), observer: observer}
}

// Drain submits every unsynced consultation in one call and, when the remote
// acknowledges the batch, marks each of them synced. It returns the number of
// records flipped.
//
// On a remote or network failure nothing is flipped and the error is returned
// as is. A record that fails to flip after the remote accepted the batch is
// logged and skipped; the others still flip and the joined errors are
// returned alongside the count.
func (e *Engine) Drain(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, err := e.repo.GetUnsynced(ctx)
	if err != nil {
		return 0, fmt.Errorf("read unsynced consultations: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	batch := make([]models.SyncItem, 0, len(pending))
	for _, c := range pending {
		batch = append(batch, c.SyncItem())
	}

	start := time.Now()
	if err := e.remote.SubmitConsultations(ctx, batch); err != nil {
		e.record(len(batch), start, err)
		e.log.Warn(ctx, "sync batch not accepted", "items", len(batch), "error", err)
		return 0, err
	}

	var (
		flipped int
		errs    []error
	)
	for _, c := range pending {
		if err := e.repo.MarkSynced(ctx, c.ID); err != nil {
			e.log.Error(ctx, "consultation accepted remotely but not marked synced", "id", c.ID, "error", err)
			errs = append(errs, fmt.Errorf("mark consultation %d synced: %w", c.ID, err))
			continue
		}
		flipped++
	}
	flipErr := errors.Join(errs...)
	e.record(len(batch), start, flipErr)

	e.log.Info(ctx, "sync batch accepted", "items", len(batch), "flipped", flipped)
	return flipped, flipErr
}

// Exclusive runs fn while no drain is in flight. A record written and
// submitted inside fn cannot also be picked up by a concurrent drain.
func (e *Engine) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(ctx)
}

func (e *Engine) record(items int, start time.Time, err error) {
	if e.observer != nil {
		e.observer.DrainFinished(items, time.Since(start), err)
	}
}
