package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	tok, err := GenerateToken(42, secret, time.Now(), time.Hour)
	require.NoError(t, err)

	id, err := UserIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestUserIDFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(1, secret, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	_, err = UserIDFromToken(tok, secret)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestUserIDFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(1, []byte("one"), time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = UserIDFromToken(tok, []byte("two"))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = UserIDFromToken("garbage", []byte("two"))
	require.ErrorIs(t, err, ErrInvalidToken)
}
