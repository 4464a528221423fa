// Package remote is the boundary to the WeCare remote service: the sync
// endpoint, the processing (triage) service, reference data and auth.
package remote

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/wecare/internal/client/models"
)

// Client is everything the device core asks of the remote service.
//
// Every method fails with an error matching common.ErrNetworkFailure when the
// request never got an answer, and with a *common.RemoteRejection when the
// service answered with a non-2xx status.
type Client interface {
	Ping(ctx context.Context) error
	SubmitConsultations(ctx context.Context, batch []models.SyncItem) error
	FetchDomain(ctx context.Context, domain models.Domain, query url.Values) ([]models.ReferenceEntity, error)
	CreateConsultation(ctx context.Context, sub models.Submission) (*models.TriageResult, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Me(ctx context.Context) (*models.Profile, error)
}

// LoginResult is the answer to a successful login.
type LoginResult struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type,omitempty"`
	User        *models.Profile `json:"user,omitempty"`
}

// TokenSource yields the bearer token to attach to requests. An empty token
// means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}
