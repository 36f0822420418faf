package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer(t *testing.T) {
	issuer := NewIssuer("secret")

	t.Run("round trip", func(t *testing.T) {
		token, err := issuer.Issue("user-1", time.Hour)
		require.NoError(t, err)

		ownerID, err := issuer.OwnerID(token)

		assert.NoError(t, err)
		assert.Equal(t, "user-1", ownerID)
	})

	t.Run("empty owner", func(t *testing.T) {
		_, err := issuer.Issue("", time.Hour)

		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := issuer.Issue("user-1", -time.Minute)
		require.NoError(t, err)

		_, err = issuer.OwnerID(token)

		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewIssuer("other").Issue("user-1", time.Hour)
		require.NoError(t, err)

		_, err = issuer.OwnerID(token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.OwnerID("not-a-token")

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = issuer.OwnerID(token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
