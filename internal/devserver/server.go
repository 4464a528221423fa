// Package devserver is a small in-memory implementation of the remote service
// used for local development and end-to-end tests of the device core.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/logging"
	"github.com/dmitrijs2005/wecare/internal/timex"
)

const (
	defaultTokenTTL    = 24 * time.Hour
	maxUploadBytes     = 10 << 20
	shutdownGrace      = 5 * time.Second
	readHeaderDeadline = 5 * time.Second
)

type Options struct {
	// Secret signs access tokens. A random value is fine for development.
	Secret   []byte
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost; tests lower it.
	BcryptCost int
	Clock      timex.Clock
	Log        logging.Logger
}

// storedConsultation is the server's copy of a consultation.
type storedConsultation struct {
	ID             int64           `json:"id"`
	UserID         *int64          `json:"user_id,omitempty"`
	Symptoms       string          `json:"symptoms"`
	Response       string          `json:"ai_response"`
	Priority       models.Priority `json:"priority"`
	FirstAid       string          `json:"first_aid_suggestions"`
	Specialization string          `json:"recommended_specialization"`
	UseHistory     bool            `json:"use_history"`
	HasImage       bool            `json:"has_image"`
	Synced         bool            `json:"synced_from_device"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Server struct {
	log      logging.Logger
	clock    timex.Clock
	secret   []byte
	tokenTTL time.Duration

	users *userStore

	mu            sync.Mutex
	nextID        int64
	consultations []storedConsultation
	reference     map[models.Domain][]map[string]any
	syncBatches   int

	router chi.Router
}

func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logging.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = timex.RealClock{}
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("wecare-dev-secret")
	}

	s := &Server{
		log:      opts.Log.With("component", "devserver"),
		clock:    opts.Clock,
		secret:   opts.Secret,
		tokenTTL: opts.TokenTTL,
		users:    newUserStore(opts.BcryptCost),
		reference: map[models.Domain][]map[string]any{
			models.DomainDoctors:   withIDs(seedDoctors()),
			models.DomainHospitals: withIDs(seedHospitals()),
			models.DomainNGOs:      withIDs(seedNGOs()),
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.With(s.requireAuth).Get("/auth/me", s.handleMe)

		r.With(s.optionalAuth).Post("/consultation", s.handleConsultation)
		r.With(s.optionalAuth).Post("/sync/consultations", s.handleSync)
		r.With(s.requireAuth).Get("/consultations/history", s.handleHistory)

		r.Get("/doctors", s.handleReference(models.DomainDoctors))
		r.Get("/hospitals", s.handleReference(models.DomainHospitals))
		r.Get("/ngos", s.handleReference(models.DomainNGOs))
	})

	r.Mount("/", staticHandler())
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SyncBatches reports how many sync batches were accepted.
func (s *Server) SyncBatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncBatches
}

// ConsultationCount reports how many consultations the server holds.
func (s *Server) ConsultationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.consultations)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderDeadline,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "dev server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
