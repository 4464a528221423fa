package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/remote"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/usercache"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ remote.TokenSource = (ProfileService)(nil)

func newProfileFixture(t *testing.T, online bool) (ProfileService, *fakeClient, *switchable) {
	t.Helper()
	client := &fakeClient{}
	net := &switchable{online: online}
	return NewProfileService(client, usercache.NewStoreRepository(setupStore(t), nil), net, nil), client, net
}

func TestLogin_StoresTokenAndProfile(t *testing.T) {
	svc, client, net := newProfileFixture(t, true)
	ctx := context.Background()

	tok, err := svc.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok, "signed out")

	client.LoginRet = &remote.LoginResult{AccessToken: "tok-1", User: &models.Profile{ID: 7, Username: "asha"}}
	p, err := svc.Login(ctx, "asha", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)

	tok, err = svc.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	net.online = false
	me, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "asha", me.Username)

	require.NoError(t, svc.Logout(ctx))
	require.NoError(t, svc.Logout(ctx))
	tok, err = svc.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	_, err = svc.Me(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestLogin_RejectedKeepsNothing(t *testing.T) {
	svc, client, _ := newProfileFixture(t, true)
	client.LoginErr = &common.RemoteRejection{Status: 401, Message: "Incorrect username or password"}

	_, err := svc.Login(context.Background(), "asha", "bad")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	tok, err := svc.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestMe_OnlineRefreshesCache(t *testing.T) {
	svc, client, net := newProfileFixture(t, true)
	ctx := context.Background()

	client.MeRet = &models.Profile{ID: 7, Username: "asha", BloodGroup: "B+"}
	_, err := svc.Me(ctx)
	require.NoError(t, err)

	client.MeErr = common.NetworkError("GET /api/auth/me", errors.New("timeout"))
	p, err := svc.Me(ctx)
	require.NoError(t, err, "unreachable service falls back to the cache")
	assert.Equal(t, "B+", p.BloodGroup)

	client.MeErr = &common.RemoteRejection{Status: 401}
	_, err = svc.Me(ctx)
	require.ErrorIs(t, err, common.ErrUnauthorized, "a rejection is not masked")

	net.online = false
	p, err = svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "asha", p.Username)
}
