package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshLeeway is how close to expiry an access token may get before
// ValidateState recommends a proactive refresh.
const refreshLeeway = time.Minute

// tokenNeedsRefresh inspects the access token's exp claim locally, without
// signature verification (the client holds no signing key; the backend is
// the authority and will 401 a bad token anyway). Opaque or malformed
// tokens report false: "cannot tell" is not "expired".
func tokenNeedsRefresh(token string, leeway time.Duration) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < leeway
}
