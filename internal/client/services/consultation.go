package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/remote"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/consultations"
	"github.com/dmitrijs2005/wecare/internal/client/triage"
	"github.com/dmitrijs2005/wecare/internal/client/ui"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/logging"
	"github.com/dmitrijs2005/wecare/internal/timex"
)

// Notification texts shown to the user.
const (
	MsgSavedOffline  = "Saved offline - will sync when online"
	MsgSynced        = "Offline data synced successfully"
	MsgNothingToSync = "Nothing to sync"
)

// ConsultationService handles symptom submissions.
//
// Contract:
//   - Submit: validate, then either get an assessment from the processing
//     service (online) or fall back to the local rules; every text submission
//     ends up as a local record.
//   - History: all local records, newest first.
//   - SyncNow: drain the sync queue on demand and tell the user how it went.
type ConsultationService interface {
	Submit(ctx context.Context, sub models.Submission) (*models.Consultation, error)
	History(ctx context.Context) ([]*models.Consultation, error)
	SyncNow(ctx context.Context) (int, error)
}

type consultationService struct {
	client remote.Client
	repo   consultations.Repository
	net    Connectivity
	sync   Drainer
	ui     ui.Notifier
	clock  timex.Clock
	log    logging.Logger
}

func NewConsultationService(client remote.Client, repo consultations.Repository, net Connectivity, sync Drainer, notifier ui.Notifier, clock timex.Clock, log logging.Logger) ConsultationService {
	if notifier == nil {
		notifier = ui.Nop{}
	}
	if clock == nil {
		clock = timex.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &consultationService{
		client: client,
		repo:   repo,
		net:    net,
		sync:   sync,
		ui:     notifier,
		clock:  clock,
		log:    log.With("service", "consultations"),
	}
}

// Submit validates sub before anything is written. A text submission is
// stored first, unsynced and assessed by the local rules. Online, it is then
// sent to the processing service; on success the record takes the remote
// assessment and flips to synced, otherwise it stays queued for sync.
//
// A submission with media but no text needs the processing service: it fails
// with common.ErrMediaNeedsNetwork while offline or when the service call
// fails, and nothing is stored.
func (s *consultationService) Submit(ctx context.Context, sub models.Submission) (*models.Consultation, error) {
	text := strings.TrimSpace(sub.Symptoms)
	if text == "" && !sub.HasMedia() {
		return nil, common.ErrEmptySubmission
	}
	online := s.net.Online()

	c := &models.Consultation{
		Symptoms:   text,
		UseHistory: sub.UseHistory,
		CreatedAt:  s.clock.Now(),
	}
	sub.Symptoms = text

	if text == "" {
		if !online {
			return nil, common.ErrMediaNeedsNetwork
		}
		return s.submitMediaOnly(ctx, sub, c)
	}

	c.Result = triage.Assess(text)

	if !online {
		if _, err := s.repo.Insert(ctx, c); err != nil {
			return nil, fmt.Errorf("store consultation: %w", err)
		}
		s.ui.Notify(MsgSavedOffline, ui.SeverityWarning)
		return c, nil
	}

	var remoteErr error
	err := s.sync.Exclusive(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Insert(ctx, c); err != nil {
			return fmt.Errorf("store consultation: %w", err)
		}

		res, err := s.client.CreateConsultation(ctx, sub)
		if err != nil {
			s.log.Warn(ctx, "processing service unavailable, using offline assessment", "id", c.ID, "error", err)
			remoteErr = err
			return nil
		}
		if err := s.repo.Acknowledge(ctx, c.ID, *res); err != nil {
			// accepted remotely; the next drain resubmits it
			s.log.Error(ctx, "consultation accepted remotely but not marked synced", "id", c.ID, "error", err)
			return nil
		}
		c.Result, c.Synced = *res, true
		return nil
	})
	if err != nil {
		return nil, err
	}

	var rej *common.RemoteRejection
	if errors.As(remoteErr, &rej) && rej.Message != "" {
		s.ui.Notify(rej.Message, ui.SeverityError)
	}
	if !c.Synced {
		s.ui.Notify(MsgSavedOffline, ui.SeverityWarning)
	}
	return c, nil
}

// submitMediaOnly stores the record only once the processing service has
// assessed it; the local rules have no text to work with.
func (s *consultationService) submitMediaOnly(ctx context.Context, sub models.Submission, c *models.Consultation) (*models.Consultation, error) {
	res, err := s.client.CreateConsultation(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMediaNeedsNetwork, err)
	}
	c.Result = *res
	if _, err := s.repo.InsertSynced(ctx, c); err != nil {
		return nil, fmt.Errorf("store consultation: %w", err)
	}
	return c, nil
}

func (s *consultationService) History(ctx context.Context) ([]*models.Consultation, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read consultations: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return all, nil
}

func (s *consultationService) SyncNow(ctx context.Context) (int, error) {
	n, err := s.sync.Drain(ctx)
	if err != nil {
		var rej *common.RemoteRejection
		switch {
		case errors.As(err, &rej) && rej.Message != "":
			s.ui.Notify(rej.Message, ui.SeverityError)
		case errors.Is(err, common.ErrNetworkFailure):
			s.ui.Notify("Sync failed: the server cannot be reached", ui.SeverityError)
		default:
			s.ui.Notify("Sync failed: "+err.Error(), ui.SeverityError)
		}
		return n, err
	}
	if n == 0 {
		s.ui.Notify(MsgNothingToSync, ui.SeverityInfo)
		return 0, nil
	}
	s.ui.Notify(MsgSynced, ui.SeveritySuccess)
	return n, nil
}
