package remote

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// bearerTransport attaches the current token to every request. A token whose
// exp claim has already passed is never sent: the request goes out without
// credentials and the service decides.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
	now    func() time.Time
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.tokens == nil {
		return t.base.RoundTrip(req)
	}
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if token == "" || expired(token, t.now()) {
		return t.base.RoundTrip(req)
	}

	r := req.Clone(req.Context())
	r.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	return t.base.RoundTrip(r)
}

// expired inspects the exp claim without verifying the signature; the service
// does the verification. Tokens that are not JWTs are treated as valid.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
