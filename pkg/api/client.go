// Package api implements the authenticated HTTP transport for the Flai
// backend: JSON verbs over the response envelope, bearer-token injection
// from secure storage, 401-driven token refresh with request queuing, and
// the typed endpoint surface the stores call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/flaitravel/mobile-core/pkg/apperr"
	"github.com/flaitravel/mobile-core/pkg/storage"
)

const (
	// DefaultTimeout bounds a single request. Mobile networks are slow;
	// hosts on cellular links should raise this to 30s via Config.
	DefaultTimeout = 10 * time.Second

	// slogKeyError is the slog attribute key for error values.
	slogKeyError = "error"
)

// Doer issues HTTP requests. *http.Client satisfies it; tests and the
// dev-mode fake backend substitute their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the backend origin, e.g. "https://api.flai.travel".
	BaseURL string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. Nil means a default *http.Client
	// with Timeout applied.
	HTTPClient Doer

	// Secure is the secrets tier holding access and refresh tokens.
	Secure storage.SecureStore

	// Plain is the bulk tier; the client clears the persisted user id from
	// it when a failed refresh tears the session down.
	Plain storage.Store

	// OnSessionExpired is invoked after a failed refresh has torn the
	// session down, so in-memory session state can follow. Optional.
	OnSessionExpired func()
}

// Client is the authenticated transport.
type Client struct {
	baseURL   string
	http      Doer
	secure    storage.SecureStore
	plain     storage.Store
	refresher *refresher
	onExpired func()
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "", "api: base URL is required")
	}
	if cfg.Secure == nil {
		return nil, apperr.New(apperr.KindInvalidInput, "", "api: secure store is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		http:      httpClient,
		secure:    cfg.Secure,
		plain:     cfg.Plain,
		refresher: &refresher{},
		onExpired: cfg.OnSessionExpired,
	}, nil
}

// Get issues an authenticated GET and decodes the envelope.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	p := path
	if len(query) > 0 {
		p += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, p, nil)
}

// Post issues an authenticated POST and decodes the envelope.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues an authenticated PUT and decodes the envelope.
func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete issues an authenticated DELETE and decodes the envelope.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// do sends one request, handling the 401 refresh-and-replay path. The
// request that observes a 401 triggers (or joins) a refresh and is then
// retried exactly once with the new token; a second 401 surfaces as an
// auth rejection rather than looping.
func (c *Client) do(ctx context.Context, method, path string, body any) (*Envelope, error) {
	env, status, sentToken, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && sentToken != "" {
		if refreshErr := c.refresher.await(ctx, sentToken, c.currentToken, c.performRefresh); refreshErr != nil {
			return nil, refreshErr
		}

		env, status, _, err = c.send(ctx, method, path, body)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, apperr.New(apperr.KindAuthRejected, apperr.CodeRefreshFailed,
				"request rejected after token refresh")
		}
	}

	return c.checkEnvelope(env, status)
}

// send issues a single HTTP request. sentToken is the bearer token attached
// to the request, empty for unauthenticated calls; only authenticated
// requests participate in the refresh path.
func (c *Client) send(ctx context.Context, method, path string, body any) (env *Envelope, status int, sentToken string, err error) {
	var payload io.Reader
	if body != nil {
		raw, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return nil, 0, "", fmt.Errorf("api: encoding request body: %w", marshalErr)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, 0, "", fmt.Errorf("api: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	sentToken = c.currentToken(ctx)
	if sentToken != "" {
		req.Header.Set("Authorization", "Bearer "+sentToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, sentToken, apperr.Wrap(apperr.KindNetwork, apperr.CodeNetworkError,
			"request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	env = &Envelope{}
	if decodeErr := json.NewDecoder(resp.Body).Decode(env); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		// A 2xx with an unreadable body is a server fault; for error
		// statuses the status code already tells the story.
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, resp.StatusCode, sentToken, apperr.Wrap(apperr.KindServer, "",
				"malformed response", decodeErr)
		}
		env = &Envelope{}
	}

	return env, resp.StatusCode, sentToken, nil
}

// currentToken reads the stored access token; read failures mean "no token"
// per the storage degradation policy.
func (c *Client) currentToken(ctx context.Context) string {
	token, err := c.secure.GetSecure(ctx, storage.KeyAuthToken)
	if err != nil {
		return ""
	}
	return token
}

// checkEnvelope converts non-success responses into typed errors.
func (c *Client) checkEnvelope(env *Envelope, status int) (*Envelope, error) {
	if status == http.StatusUnauthorized {
		return nil, apperr.New(apperr.KindAuthRejected, "", errMessage(env, "unauthorized"))
	}
	if status < 200 || status >= 300 {
		return nil, apperr.Newf(apperr.KindServer, env.Code,
			"%s (status %d)", errMessage(env, "request failed"), status)
	}
	if !env.Success {
		return nil, apperr.New(apperr.KindServer, env.Code, errMessage(env, "request failed"))
	}
	return env, nil
}

// decodeData unmarshals an envelope's data object into out.
func decodeData(env *Envelope, out any) error {
	if len(env.Data) == 0 {
		return apperr.New(apperr.KindServer, "", "response missing data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Wrap(apperr.KindServer, "", "malformed response data", err)
	}
	return nil
}

// teardown clears persisted credentials after an irrecoverable refresh
// failure. Best effort: the session is dead either way.
func (c *Client) teardown(ctx context.Context) {
	if err := storage.ClearSecrets(ctx, c.secure); err != nil {
		slog.Warn("api: clearing secrets on teardown", slogKeyError, err)
	}
	if c.plain != nil {
		if err := c.plain.Delete(ctx, storage.KeyUserID); err != nil {
			slog.Warn("api: clearing user id on teardown", slogKeyError, err)
		}
	}
	if c.onExpired != nil {
		c.onExpired()
	}
}

func errMessage(env *Envelope, fallback string) string {
	switch {
	case env.Error != "":
		return env.Error
	case env.Message != "":
		return env.Message
	default:
		return fallback
	}
}
