package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/flaitravel/mobile-core/pkg/api"
	"github.com/flaitravel/mobile-core/pkg/apperr"
	"github.com/flaitravel/mobile-core/pkg/storage"
)

// slogKeyError is the slog attribute key for error values.
const slogKeyError = "error"

// Manager owns the session lifecycle. One instance per process, constructed
// by the platform and passed by handle to consumers.
type Manager struct {
	client *api.Client
	secure storage.SecureStore
	plain  storage.Store

	mu      sync.RWMutex
	session Session
}

// NewManager creates a session manager.
func NewManager(client *api.Client, secure storage.SecureStore, plain storage.Store) *Manager {
	return &Manager{
		client: client,
		secure: secure,
		plain:  plain,
	}
}

// Register registers this device with the backend and establishes an
// authenticated session. DeviceID is filled from the stored device
// identifier when empty.
func (m *Manager) Register(ctx context.Context, info api.DeviceInfo) (Session, error) {
	if info.DeviceID == "" {
		info.DeviceID = m.EnsureDeviceID(ctx)
	}
	if err := validateDeviceInfo(info); err != nil {
		return Session{}, err
	}

	payload, err := m.client.Register(ctx, info)
	if err != nil {
		return Session{}, err
	}
	if payload.UserID == "" || payload.JWT == "" {
		return Session{}, apperr.New(apperr.KindServer, apperr.CodeRegistrationFailed,
			"registration failed")
	}

	return m.establish(ctx, payload), nil
}

// Login authenticates an existing user by email or phone. Exactly one must
// be provided; validation failures surface before any network call.
func (m *Manager) Login(ctx context.Context, email, phone string) (Session, error) {
	if err := validateLogin(email, phone); err != nil {
		return Session{}, err
	}

	payload, err := m.client.Login(ctx, email, phone)
	if err != nil {
		return Session{}, err
	}
	if payload.UserID == "" || payload.JWT == "" {
		return Session{}, apperr.New(apperr.KindServer, apperr.CodeLoginFailed, "login failed")
	}

	return m.establish(ctx, payload), nil
}

// establish persists the issued credentials and installs the in-memory
// session. Storage write failures are logged, not fatal: the session works
// until restart (documented degradation).
func (m *Manager) establish(ctx context.Context, payload *api.AuthPayload) Session {
	if err := m.secure.SetSecure(ctx, storage.KeyAuthToken, payload.JWT); err != nil {
		slog.Warn("auth: persisting access token", slogKeyError, err)
	}
	if payload.RefreshToken != "" {
		if err := m.secure.SetSecure(ctx, storage.KeyRefreshToken, payload.RefreshToken); err != nil {
			slog.Warn("auth: persisting refresh token", slogKeyError, err)
		}
	}
	if err := m.plain.Set(ctx, storage.KeyUserID, payload.UserID); err != nil {
		slog.Warn("auth: persisting user id", slogKeyError, err)
	}

	session := Session{
		UserID:       payload.UserID,
		AccessToken:  payload.JWT,
		RefreshToken: payload.RefreshToken,
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	slog.Debug("auth: session established", "user_id", payload.UserID)
	return session
}

// Logout clears credentials everywhere. Best effort: storage failures are
// logged, the in-memory session is always cleared, and the caller never
// sees an error.
func (m *Manager) Logout(ctx context.Context) {
	if err := storage.ClearSecrets(ctx, m.secure); err != nil {
		slog.Warn("auth: clearing secure storage on logout", slogKeyError, err)
	}
	if err := m.plain.Delete(ctx, storage.KeyUserID); err != nil {
		slog.Warn("auth: clearing user id on logout", slogKeyError, err)
	}

	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()

	slog.Debug("auth: logged out")
}

// Refresh exchanges the refresh token for a new token pair through the
// transport's single-refresh guard, then reloads the session from storage.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	if err := m.client.Refresh(ctx); err != nil {
		if apperr.IsKind(err, apperr.KindAuthRejected) {
			// Transport already tore persisted state down; follow in memory.
			m.SessionExpired()
		}
		return Session{}, err
	}
	return m.loadSession(ctx), nil
}

// Initialize restores the session from persisted state at startup. It never
// fails: missing or partial data leaves the session unauthenticated. Token
// validity is not checked against the backend here; an expired token is
// caught by the 401-refresh path on first use.
func (m *Manager) Initialize(ctx context.Context) Session {
	return m.loadSession(ctx)
}

// loadSession reads persisted credentials into the in-memory session.
func (m *Manager) loadSession(ctx context.Context) Session {
	var session Session

	token, err := m.secure.GetSecure(ctx, storage.KeyAuthToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("auth: reading access token", slogKeyError, err)
	}

	refresh, err := m.secure.GetSecure(ctx, storage.KeyRefreshToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("auth: reading refresh token", slogKeyError, err)
	}

	var userID string
	if err := m.plain.Get(ctx, storage.KeyUserID, &userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("auth: reading user id", slogKeyError, err)
	}

	if token != "" && userID != "" {
		session = Session{UserID: userID, AccessToken: token, RefreshToken: refresh}
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	return session
}

// IsAuthenticated is a pure query over the in-memory session; no network
// or storage I/O.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Authenticated()
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// CurrentUser returns the locally known user, or nil when unauthenticated.
func (m *Manager) CurrentUser(ctx context.Context) *User {
	m.mu.RLock()
	session := m.session
	m.mu.RUnlock()

	if !session.Authenticated() {
		return nil
	}

	deviceID, err := m.secure.GetSecure(ctx, storage.KeyDeviceID)
	if err != nil {
		deviceID = ""
	}
	return &User{ID: session.UserID, DeviceID: deviceID}
}

// ValidateState checks the locally persisted session without touching the
// backend and reports whether the access token looks due for a refresh.
func (m *Manager) ValidateState(ctx context.Context) StateValidation {
	session := m.loadSession(ctx)
	if !session.Authenticated() {
		return StateValidation{}
	}

	return StateValidation{
		Valid:        true,
		User:         m.CurrentUser(ctx),
		NeedsRefresh: tokenNeedsRefresh(session.AccessToken, refreshLeeway),
	}
}

// SessionExpired clears the in-memory session. Wired as the transport's
// session-expired hook so a failed refresh downgrades IsAuthenticated
// immediately.
func (m *Manager) SessionExpired() {
	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()

	slog.Debug("auth: session expired")
}
