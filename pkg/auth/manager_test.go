package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flaitravel/mobile-core/pkg/api"
	"github.com/flaitravel/mobile-core/pkg/apperr"
	"github.com/flaitravel/mobile-core/pkg/storage"
)

// authBackend fakes the auth endpoints and counts requests so tests can
// assert that validation failures never reach the network.
type authBackend struct {
	t        *testing.T
	requests atomic.Int32
	refuse   bool
}

func (b *authBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.requests.Add(1)
	w.Header().Set("Content-Type", "application/json")

	if b.refuse && r.URL.Path == "/auth/refresh" {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "revoked"})
		return
	}

	switch r.URL.Path {
	case "/mobile/register", "/mobile/login":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": api.AuthPayload{
				UserID: "mobile:u1", JWT: "jwt-1", RefreshToken: "refresh-1",
			},
		})
	case "/mobile/devices":
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "not found"})
	}
}

func newTestManager(t *testing.T, backend http.Handler) (*Manager, *storage.Memory) {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := storage.NewMemory()

	var mgr *Manager
	client, err := api.New(api.Config{
		BaseURL: srv.URL,
		Secure:  store,
		Plain:   store,
		OnSessionExpired: func() {
			if mgr != nil {
				mgr.SessionExpired()
			}
		},
	})
	require.NoError(t, err)

	mgr = NewManager(client, store, store)
	return mgr, store
}

func validDevice() api.DeviceInfo {
	return api.DeviceInfo{Platform: "ios", Version: "1.0.0", AppVersion: "1.0.0", IsDevice: true}
}

func TestLogin_MissingCredentialsFailsBeforeNetwork(t *testing.T) {
	backend := &authBackend{t: t}
	mgr, _ := newTestManager(t, backend)

	_, err := mgr.Login(context.Background(), "", "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	assert.Equal(t, apperr.CodeMissingCredentials, apperr.CodeOf(err))
	assert.Zero(t, backend.requests.Load(), "validation must precede any network call")
}

func TestLogin_InvalidEmail(t *testing.T) {
	backend := &authBackend{t: t}
	mgr, _ := newTestManager(t, backend)

	_, err := mgr.Login(context.Background(), "not-an-email", "")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidEmail, apperr.CodeOf(err))
	assert.Zero(t, backend.requests.Load())

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email", appErr.Field)
}

func TestLogin_InvalidPhone(t *testing.T) {
	backend := &authBackend{t: t}
	mgr, _ := newTestManager(t, backend)

	_, err := mgr.Login(context.Background(), "", "12ab")
	assert.Equal(t, apperr.CodeInvalidPhone, apperr.CodeOf(err))
	assert.Zero(t, backend.requests.Load())
}

func TestLogin_EstablishesAndPersistsSession(t *testing.T) {
	mgr, store := newTestManager(t, &authBackend{t: t})
	ctx := context.Background()

	session, err := mgr.Login(ctx, "a@b.co", "")
	require.NoError(t, err)
	assert.True(t, session.Authenticated())
	assert.True(t, mgr.IsAuthenticated())

	tok, err := store.GetSecure(ctx, storage.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", tok)

	refresh, err := store.GetSecure(ctx, storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)

	var userID string
	require.NoError(t, store.Get(ctx, storage.KeyUserID, &userID))
	assert.Equal(t, "mobile:u1", userID)
}

func TestLogin_PhoneOnly(t *testing.T) {
	mgr, _ := newTestManager(t, &authBackend{t: t})

	session, err := mgr.Login(context.Background(), "", "+1 415 555 0100")
	require.NoError(t, err)
	assert.True(t, session.Authenticated())
}

func TestRegister_InvalidDeviceInfoFailsBeforeNetwork(t *testing.T) {
	backend := &authBackend{t: t}
	mgr, _ := newTestManager(t, backend)

	info := validDevice()
	info.Platform = ""

	_, err := mgr.Register(context.Background(), info)
	assert.Equal(t, apperr.CodeInvalidDeviceInfo, apperr.CodeOf(err))
	assert.Zero(t, backend.requests.Load())
}

func TestRegister_FillsDeviceIDAndEstablishes(t *testing.T) {
	mgr, store := newTestManager(t, &authBackend{t: t})
	ctx := context.Background()

	session, err := mgr.Register(ctx, validDevice())
	require.NoError(t, err)
	assert.True(t, session.Authenticated())

	deviceID, err := store.GetSecure(ctx, storage.KeyDeviceID)
	require.NoError(t, err)
	assert.NotEmpty(t, deviceID, "register must mint and persist a device id")
}

func TestEnsureDeviceID_Stable(t *testing.T) {
	mgr, _ := newTestManager(t, &authBackend{t: t})
	ctx := context.Background()

	first := mgr.EnsureDeviceID(ctx)
	second := mgr.EnsureDeviceID(ctx)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second, "device id must be stable across calls")
}

func TestLogout_ClearsEverything(t *testing.T) {
	mgr, store := newTestManager(t, &authBackend{t: t})
	ctx := context.Background()

	_, err := mgr.Register(ctx, validDevice())
	require.NoError(t, err)

	mgr.Logout(ctx)
	assert.False(t, mgr.IsAuthenticated())

	// Simulated restart: rehydration must come back unauthenticated and
	// the secure tier must no longer hold tokens.
	restored := mgr.Initialize(ctx)
	assert.False(t, restored.Authenticated())

	_, err = store.GetSecure(ctx, storage.KeyAuthToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetSecure(ctx, storage.KeyRefreshToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInitialize_RestoresPersistedSession(t *testing.T) {
	mgr, store := newTestManager(t, &authBackend{t: t})
	ctx := context.Background()

	require.NoError(t, store.SetSecure(ctx, storage.KeyAuthToken, "jwt-restored"))
	require.NoError(t, store.SetSecure(ctx, storage.KeyRefreshToken, "refresh-restored"))
	require.NoError(t, store.Set(ctx, storage.KeyUserID, "mobile:u9"))

	session := mgr.Initialize(ctx)
	assert.True(t, session.Authenticated())
	assert.Equal(t, "mobile:u9", session.UserID)
	assert.True(t, mgr.IsAuthenticated())
}

func TestInitialize_PartialStateStaysUnauthenticated(t *testing.T) {
	mgr, store := newTestManager(t, &authBackend{t: t})
	ctx := context.Background()

	// Token without user id is not a session.
	require.NoError(t, store.SetSecure(ctx, storage.KeyAuthToken, "jwt-orphan"))

	session := mgr.Initialize(ctx)
	assert.False(t, session.Authenticated())
	assert.False(t, mgr.IsAuthenticated())
}

func TestRefresh_RejectionDowngradesSession(t *testing.T) {
	backend := &authBackend{t: t, refuse: true}
	mgr, _ := newTestManager(t, backend)
	ctx := context.Background()

	_, err := mgr.Register(ctx, validDevice())
	require.NoError(t, err)
	require.True(t, mgr.IsAuthenticated())

	_, err = mgr.Refresh(ctx)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthRejected))
	assert.False(t, mgr.IsAuthenticated(), "failed refresh must leave the session unauthenticated")
}

func TestCurrentUser(t *testing.T) {
	mgr, _ := newTestManager(t, &authBackend{t: t})
	ctx := context.Background()

	assert.Nil(t, mgr.CurrentUser(ctx), "unauthenticated manager has no user")

	_, err := mgr.Register(ctx, validDevice())
	require.NoError(t, err)

	user := mgr.CurrentUser(ctx)
	require.NotNil(t, user)
	assert.Equal(t, "mobile:u1", user.ID)
	assert.NotEmpty(t, user.DeviceID)
}

func TestRegisterPushDevice(t *testing.T) {
	mgr, store := newTestManager(t, &authBackend{t: t})
	ctx := context.Background()

	_, err := mgr.Register(ctx, validDevice())
	require.NoError(t, err)

	require.NoError(t, mgr.RegisterPushDevice(ctx, "push-tok-1", "ios", "1.0.0"))
	assert.True(t, mgr.PushRegistered(ctx))

	stored, err := store.GetSecure(ctx, storage.KeyPushToken)
	require.NoError(t, err)
	assert.Equal(t, "push-tok-1", stored)
}

func TestRegisterPushDevice_RequiresToken(t *testing.T) {
	mgr, _ := newTestManager(t, &authBackend{t: t})
	assert.Error(t, mgr.RegisterPushDevice(context.Background(), "", "ios", "1.0.0"))
}
