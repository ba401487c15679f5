package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/flaitravel/mobile-core/pkg/apperr"
	"github.com/flaitravel/mobile-core/pkg/storage"
)

// pathRefresh is the token refresh endpoint. Its response carries tokens at
// the top level rather than inside the envelope's data object.
const pathRefresh = "/auth/refresh"

// refresher serializes token refreshes. At most one refresh call reaches
// the backend at a time; callers that observe a 401 while a refresh is in
// flight queue up and are released in FIFO order with the refresh outcome,
// then replay their own request with the new token.
type refresher struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []chan error
}

// forceRefresh makes await skip the stale-token check, for standalone
// refresh calls that must always hit the backend.
const forceRefresh = "\x00force"

// await runs refreshFn if no refresh is in flight, otherwise blocks until
// the in-flight refresh completes and returns its outcome. Exactly one
// caller (the leader) executes refreshFn. A leader whose staleToken no
// longer matches the stored token skips the backend call: another caller
// already rotated the tokens and the replay can proceed directly.
func (r *refresher) await(ctx context.Context, staleToken string, current func(context.Context) string, refreshFn func(context.Context) error) error {
	r.mu.Lock()
	if r.refreshing {
		ch := make(chan error, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()

		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.refreshing = true
	r.mu.Unlock()

	var err error
	if staleToken == forceRefresh || current(ctx) == staleToken {
		err = refreshFn(ctx)
	}

	r.mu.Lock()
	r.refreshing = false
	waiters := r.waiters
	r.waiters = nil
	r.mu.Unlock()

	// Release in enqueue order so replays start FIFO.
	for _, ch := range waiters {
		ch <- err
	}
	return err
}

// Refresh exchanges the stored refresh token for new tokens, using the same
// single-refresh guard as the 401 path. Safe to call standalone.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refresher.await(ctx, forceRefresh, c.currentToken, c.performRefresh)
}

// performRefresh is the leader-only refresh body: exchange the refresh
// token, persist both new tokens before any queued request replays, and on
// rejection tear the session down (logout semantics).
func (c *Client) performRefresh(ctx context.Context) error {
	refreshToken, err := c.secure.GetSecure(ctx, storage.KeyRefreshToken)
	if err != nil || refreshToken == "" {
		c.teardown(ctx)
		return apperr.New(apperr.KindAuthRejected, apperr.CodeNoRefreshToken,
			"no refresh token available")
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return fmt.Errorf("api: encoding refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathRefresh, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("api: building refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Transient failure: surface as network error without killing the
		// session; the caller may retry.
		return apperr.Wrap(apperr.KindNetwork, apperr.CodeNetworkError, "token refresh failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var refreshed refreshResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&refreshed); decodeErr != nil {
		refreshed = refreshResponse{}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !refreshed.Success || refreshed.JWT == "" {
		c.teardown(ctx)
		msg := refreshed.Error
		if msg == "" {
			msg = "token refresh failed"
		}
		return apperr.New(apperr.KindAuthRejected, apperr.CodeRefreshFailed, msg)
	}

	// Persist the new pair before queued requests replay.
	if err := c.secure.SetSecure(ctx, storage.KeyAuthToken, refreshed.JWT); err != nil {
		return apperr.Wrap(apperr.KindStorage, "", "persisting access token", err)
	}
	if refreshed.RefreshToken != "" {
		if err := c.secure.SetSecure(ctx, storage.KeyRefreshToken, refreshed.RefreshToken); err != nil {
			return apperr.Wrap(apperr.KindStorage, "", "persisting refresh token", err)
		}
	}

	slog.Debug("api: token refreshed")
	return nil
}

// inFlight reports whether a refresh is currently running. Test hook.
func (r *refresher) inFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshing
}
