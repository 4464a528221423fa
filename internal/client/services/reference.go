package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/remote"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/reference"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/logging"
)

// DomainRefresher replaces a whole local mirror from the remote service.
type DomainRefresher interface {
	Refresh(ctx context.Context, domain models.Domain) (int, error)
}

// ReferenceService lists doctors, hospitals and NGOs, from the remote service
// while online and from the local mirror otherwise.
type ReferenceService interface {
	// List returns the entities of domain. specialization filters doctors
	// and is ignored for other domains.
	List(ctx context.Context, domain models.Domain, specialization string) ([]models.ReferenceEntity, error)
}

type referenceService struct {
	client    remote.Client
	repo      reference.Repository
	refresher DomainRefresher
	net       Connectivity
	log       logging.Logger
}

func NewReferenceService(client remote.Client, repo reference.Repository, refresher DomainRefresher, net Connectivity, log logging.Logger) ReferenceService {
	if log == nil {
		log = logging.Nop{}
	}
	return &referenceService{client: client, repo: repo, refresher: refresher, net: net, log: log.With("service", "reference")}
}

func (s *referenceService) List(ctx context.Context, domain models.Domain, specialization string) ([]models.ReferenceEntity, error) {
	if _, err := models.ParseDomain(string(domain)); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnknownDomain, err)
	}
	if domain != models.DomainDoctors {
		specialization = ""
	}

	if s.net.Online() {
		if specialization != "" {
			// a filtered list is never written to the mirror
			list, err := s.client.FetchDomain(ctx, domain, url.Values{"specialization": {specialization}})
			if err == nil {
				return list, nil
			}
			s.log.Warn(ctx, "filtered fetch failed, using local mirror", "domain", domain, "error", err)
		} else if _, err := s.refresher.Refresh(ctx, domain); err != nil {
			s.log.Warn(ctx, "refresh failed, using local mirror", "domain", domain, "error", err)
		}
	}

	if specialization != "" {
		return s.repo.DoctorsBySpecialization(ctx, specialization)
	}
	return s.repo.List(ctx, domain)
}
