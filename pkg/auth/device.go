package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flaitravel/mobile-core/pkg/api"
	"github.com/flaitravel/mobile-core/pkg/storage"
)

// EnsureDeviceID returns the stable device identifier, generating and
// persisting one on first use. A storage failure still yields a usable
// (ephemeral) id rather than an error.
func (m *Manager) EnsureDeviceID(ctx context.Context) string {
	id, err := m.secure.GetSecure(ctx, storage.KeyDeviceID)
	if err == nil && id != "" {
		return id
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("auth: reading device id", slogKeyError, err)
	}

	id = uuid.NewString()
	if err := m.secure.SetSecure(ctx, storage.KeyDeviceID, id); err != nil {
		slog.Warn("auth: persisting device id", slogKeyError, err)
	}
	return id
}

// RegisterPushDevice registers the device for push notifications and
// persists the push token. Callers treat failures as non-fatal; a user can
// authenticate without push delivery.
func (m *Manager) RegisterPushDevice(ctx context.Context, pushToken, platform, appVersion string) error {
	if pushToken == "" {
		return errors.New("auth: push token is required")
	}

	if err := m.client.RegisterDevice(ctx, api.PushDevice{
		PushToken:  pushToken,
		Platform:   platform,
		AppVersion: appVersion,
	}); err != nil {
		return err
	}

	if err := m.secure.SetSecure(ctx, storage.KeyPushToken, pushToken); err != nil {
		slog.Warn("auth: persisting push token", slogKeyError, err)
	}
	return nil
}

// PushRegistered reports whether a push token has been registered.
func (m *Manager) PushRegistered(ctx context.Context) bool {
	token, err := m.secure.GetSecure(ctx, storage.KeyPushToken)
	return err == nil && token != ""
}
