// Package refresher keeps the local reference mirrors (doctors, hospitals,
// NGOs) in line with the remote service. A domain is always replaced whole.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/reference"
	"github.com/dmitrijs2005/wecare/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Fetcher is the part of remote.Client the refresher needs.
type Fetcher interface {
	FetchDomain(ctx context.Context, domain models.Domain, query url.Values) ([]models.ReferenceEntity, error)
}

type Observer interface {
	DomainRefreshed(domain models.Domain, entities int, d time.Duration, err error)
}

// Outcome is the result of refreshing one domain.
type Outcome struct {
	Domain   models.Domain
	Entities int
	Err      error
}

type Refresher struct {
	fetcher  Fetcher
	repo     reference.Repository
	domains  []models.Domain
	log      logging.Logger
	observer Observer
}

// New builds a Refresher for domains. An empty list means every known domain.
func New(fetcher Fetcher, repo reference.Repository, domains []models.Domain, log logging.Logger, observer Observer) *Refresher {
	if len(domains) == 0 {
		domains = models.Domains()
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Refresher{
		fetcher:  fetcher,
		repo:     repo,
		domains:  domains,
		log:      log.With("component", "refresher"),
		observer: observer,
	}
}

func (r *Refresher) Domains() []models.Domain {
	return append([]models.Domain(nil), r.domains...)
}

// Refresh fetches the full list of domain and swaps the mirror for it. When
// the fetch fails the mirror is left as it was.
func (r *Refresher) Refresh(ctx context.Context, domain models.Domain) (int, error) {
	start := time.Now()
	n, err := r.refresh(ctx, domain)
	if r.observer != nil {
		r.observer.DomainRefreshed(domain, n, time.Since(start), err)
	}
	if err != nil {
		r.log.Warn(ctx, "reference refresh failed", "domain", domain, "error", err)
		return 0, err
	}
	r.log.Info(ctx, "reference mirror replaced", "domain", domain, "entities", n)
	return n, nil
}

func (r *Refresher) refresh(ctx context.Context, domain models.Domain) (int, error) {
	entities, err := r.fetcher.FetchDomain(ctx, domain, nil)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", domain, err)
	}
	if err := r.repo.Replace(ctx, domain, entities); err != nil {
		return 0, fmt.Errorf("replace %s mirror: %w", domain, err)
	}
	return len(entities), nil
}

// RefreshAll refreshes every configured domain concurrently. A failing domain
// does not cancel or fail the others; outcomes come back in domain order.
func (r *Refresher) RefreshAll(ctx context.Context) []Outcome {
	out := make([]Outcome, len(r.domains))

	var g errgroup.Group
	for i, d := range r.domains {
		g.Go(func() error {
			n, err := r.Refresh(ctx, d)
			out[i] = Outcome{Domain: d, Entities: n, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Failed joins the errors of the failed outcomes, or returns nil.
func Failed(outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
