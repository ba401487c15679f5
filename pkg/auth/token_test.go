package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "mobile:u1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestTokenNeedsRefresh(t *testing.T) {
	t.Run("fresh token", func(t *testing.T) {
		tok := signedToken(t, time.Now().Add(time.Hour))
		assert.False(t, tokenNeedsRefresh(tok, time.Minute))
	})

	t.Run("inside leeway", func(t *testing.T) {
		tok := signedToken(t, time.Now().Add(30*time.Second))
		assert.True(t, tokenNeedsRefresh(tok, time.Minute))
	})

	t.Run("already expired", func(t *testing.T) {
		tok := signedToken(t, time.Now().Add(-time.Hour))
		assert.True(t, tokenNeedsRefresh(tok, time.Minute))
	})

	t.Run("opaque token", func(t *testing.T) {
		assert.False(t, tokenNeedsRefresh("not-a-jwt", time.Minute))
	})

	t.Run("no exp claim", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "mobile:u1"})
		s, err := tok.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		assert.False(t, tokenNeedsRefresh(s, time.Minute))
	})
}
