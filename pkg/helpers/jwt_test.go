package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_AccessToken(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Hour, 24*time.Hour)

	t.Run("round trips the user id", func(t *testing.T) {
		tok, exp, err := m.GenerateAccessToken("user-1", "sid-1")
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

		claims, err := m.ParseAccessToken(tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "sid-1", claims.SessionID)
	})

	t.Run("refresh tokens are not access tokens", func(t *testing.T) {
		tok, _, err := m.GenerateRefreshToken("user-1", "sid-1")
		require.NoError(t, err)

		_, err = m.ParseAccessToken(tok)
		assert.Error(t, err)

		claims, err := m.ParseRefreshToken(tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("expired tokens report ErrTokenExpired", func(t *testing.T) {
		expired := NewJWTManager("access", "refresh", -time.Minute, time.Hour)
		tok, _, err := expired.GenerateAccessToken("user-1", "sid-1")
		require.NoError(t, err)

		_, err = m.ParseAccessToken(tok)
		require.Error(t, err)
		assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := m.ParseAccessToken("not-a-token")
		assert.Error(t, err)
	})
}
