// Package storage defines the two-tier persistence boundary of the mobile
// core: a secure tier for secrets (tokens, device identifiers) holding raw
// strings, and a plain tier for bulk state (user id, flags, snapshots)
// holding JSON-serialized values.
//
// Implementations are injected at construction time. Memory stores back
// tests and hosts that bridge to a platform keychain themselves; file and
// SQL stores cover on-device persistence.
package storage

import (
	"context"
	"errors"
)

// Secure tier keys. Values under these keys are secrets and must never be
// written to the plain tier.
const (
	KeyAuthToken    = "flai_auth_token"
	KeyRefreshToken = "flai_refresh_token"
	KeyDeviceID     = "flai_device_id"
	KeyPushToken    = "flai_push_token"
)

// Plain tier keys.
const (
	KeyUserID              = "flai_user_id"
	KeyTheme               = "flai_theme"
	KeyOnboardingCompleted = "flai_onboarding_completed"
	KeyChatSnapshot        = "flai_chat_snapshot"
	KeyNavSnapshot         = "flai_nav_snapshot"
)

// ErrNotFound is returned by Get when no value exists for a key.
var ErrNotFound = errors.New("storage: key not found")

// ErrInvalidKey is returned when an empty key is used.
var ErrInvalidKey = errors.New("storage: invalid key")

// SecureStore persists raw string secrets.
type SecureStore interface {
	// GetSecure returns the value for key, or ErrNotFound.
	GetSecure(ctx context.Context, key string) (string, error)

	// SetSecure stores value under key. Empty keys and values are rejected.
	SetSecure(ctx context.Context, key, value string) error

	// DeleteSecure removes key. Deleting a missing key is not an error.
	DeleteSecure(ctx context.Context, key string) error
}

// Store persists JSON-serialized values in the plain tier.
type Store interface {
	// Get unmarshals the value for key into out, or returns ErrNotFound.
	Get(ctx context.Context, key string, out any) error

	// Set marshals value and stores it under key.
	Set(ctx context.Context, key string, value any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ClearSecrets removes every secure tier key, continuing past individual
// failures and returning the first one encountered. Used by logout, which
// must clear as much as it can regardless of errors.
func ClearSecrets(ctx context.Context, s SecureStore) error {
	var first error
	for _, key := range []string{KeyAuthToken, KeyRefreshToken, KeyDeviceID, KeyPushToken} {
		if err := s.DeleteSecure(ctx, key); err != nil && first == nil {
			first = err
		}
	}
	return first
}
