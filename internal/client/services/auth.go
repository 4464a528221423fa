package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/remote"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/usercache"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/logging"
)

// ProfileService covers sign-in and the signed-in user's profile.
//
// Contract:
//   - Login: authenticate against the remote service and keep the token (and
//     the profile, when returned) in the user cache.
//   - Logout: forget the token and the cached profile.
//   - Me: the remote profile while online (refreshing the cached copy), the
//     cached copy otherwise.
//   - Token: the stored access token, "" when signed out. ProfileService is a
//     remote.TokenSource.
type ProfileService interface {
	Login(ctx context.Context, username, password string) (*models.Profile, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.Profile, error)
	Token(ctx context.Context) (string, error)
}

type profileService struct {
	client remote.Client
	cache  usercache.Repository
	net    Connectivity
	log    logging.Logger
}

func NewProfileService(client remote.Client, cache usercache.Repository, net Connectivity, log logging.Logger) ProfileService {
	if log == nil {
		log = logging.Nop{}
	}
	return &profileService{client: client, cache: cache, net: net, log: log.With("service", "profile")}
}

func (s *profileService) Login(ctx context.Context, username, password string) (*models.Profile, error) {
	res, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.cache.Put(ctx, usercache.KeyAuthToken, res.AccessToken); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	if res.User == nil {
		return &models.Profile{Username: username}, nil
	}
	if err := s.cache.Put(ctx, usercache.KeyProfile, res.User); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return res.User, nil
}

func (s *profileService) Logout(ctx context.Context) error {
	for _, k := range []string{usercache.KeyAuthToken, usercache.KeyProfile} {
		if err := s.cache.Delete(ctx, k); err != nil && !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("forget %s: %w", k, err)
		}
	}
	return nil
}

// Me falls back to the cached profile when offline or when the service cannot
// be reached. A rejection (expired session, for example) is returned as is.
func (s *profileService) Me(ctx context.Context) (*models.Profile, error) {
	if s.net.Online() {
		p, err := s.client.Me(ctx)
		if err == nil {
			if err := s.cache.Put(ctx, usercache.KeyProfile, p); err != nil {
				s.log.Warn(ctx, "profile not cached", "error", err)
			}
			return p, nil
		}
		if !errors.Is(err, common.ErrNetworkFailure) {
			return nil, err
		}
		s.log.Warn(ctx, "profile fetch failed, using cached copy", "error", err)
	}

	var p models.Profile
	if err := s.cached(ctx, usercache.KeyProfile, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *profileService) Token(ctx context.Context) (string, error) {
	var token string
	err := s.cached(ctx, usercache.KeyAuthToken, &token)
	if errors.Is(err, common.ErrNotFound) {
		return "", nil
	}
	return token, err
}

func (s *profileService) cached(ctx context.Context, key string, out any) error {
	e, err := s.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}
