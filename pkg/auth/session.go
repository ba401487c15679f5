// Package auth owns the authenticated-identity lifecycle: register, login,
// logout, token refresh, and session restore from persisted state. Tokens
// live only in the secure storage tier; the user id lives in the plain tier.
package auth

// Session is the client's view of its authenticated identity.
type Session struct {
	// UserID is the opaque identifier issued at registration or login.
	UserID string

	// AccessToken is the bearer credential for authenticated requests.
	AccessToken string

	// RefreshToken is the longer-lived credential exchanged for new
	// access tokens.
	RefreshToken string
}

// Authenticated reports whether the session can make authenticated calls:
// both the access token and the user id must be present.
func (s Session) Authenticated() bool {
	return s.UserID != "" && s.AccessToken != ""
}

// User is the locally known user identity.
type User struct {
	ID       string
	Email    string
	Phone    string
	DeviceID string
}

// StateValidation is the result of ValidateState.
type StateValidation struct {
	// Valid reports whether a locally complete session exists.
	Valid bool

	// User is the restored identity when Valid.
	User *User

	// NeedsRefresh hints that the access token is expired or about to
	// expire, based on local JWT inspection. Opaque tokens report false.
	NeedsRefresh bool
}
