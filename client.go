package goleviton

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
	"os"
	"strings"
	"sync"
	"time"

	"goleviton/internal/envcfg"
	v1 "goleviton/wire/v1"
)

// RefreshFunc re-establishes a session after the server reports the token as
// expired, typically by calling Login again or loading fresh credentials.
type RefreshFunc func(ctx context.Context) error

// Config contains REST client configuration.
type Config struct {
	// BaseURL is the REST API root.
	BaseURL string

	// HTTPClient issues the requests. Nil gets a default client with a
	// request timeout; redirects must be followed (energy endpoints
	// 307-redirect).
	HTTPClient *http.Client

	// UserAgent is sent on every request.
	UserAgent string

	// Logger receives structured request events. Nil gets a JSON logger on
	// stdout at info level.
	Logger *slog.Logger
}

// DefaultConfig returns stock configuration, overridable via LEVITON_*
// environment variables.
func DefaultConfig() Config {
	return Config{
		BaseURL:   envcfg.String("LEVITON_API_URL", DefaultBaseURL),
		UserAgent: envcfg.String("LEVITON_USER_AGENT", defaultUserAgent),
		HTTPClient: &http.Client{
			Timeout: envcfg.Duration("LEVITON_HTTP_TIMEOUT", 30*time.Second),
		},
	}
}

const defaultUserAgent = "goleviton/1"

// Client talks to the vendor REST API. It owns the session token and
// implements the push channel's TokenSource, so a channel bound to a Client
// always reads the latest token at handshake time.
//
// Safe for concurrent use.
type Client struct {
	httpc     *http.Client
	baseURL   string
	userAgent string
	log       *slog.Logger

	mu        sync.RWMutex
	token     *AuthToken
	refreshFn RefreshFunc
}

// NewClient constructs a Client from cfg, filling zero values with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return &Client{
		httpc:     cfg.HTTPClient,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		log:       cfg.Logger,
	}
}

// ---- session ----

// Login authenticates with email and password. code carries the optional
// two-factor value; pass "" when the account does not require one.
//
// Returns ErrTwoFactorRequired when a code is needed, ErrInvalidCode when
// the provided code is rejected, and ErrAuth for bad credentials.
func (c *Client) Login(ctx context.Context, email, password, code string) (AuthToken, error) {
	body := map[string]string{"email": email, "password": password}
	if code != "" {
		body["code"] = code
	}

	var tok AuthToken
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   loginPath,
		query:  url.Values{"include": {"user"}},
		body:   body,
	}, &tok)
	if err != nil {
		return AuthToken{}, err
	}

	c.mu.Lock()
	c.token = &tok
	c.mu.Unlock()
	return tok, nil
}

// RestoreSession installs a previously obtained token without a login round
// trip. The token is not validated here; the first authenticated call does
// that.
func (c *Client) RestoreSession(token, userID string) {
	c.mu.Lock()
	c.token = &AuthToken{Token: token, UserID: userID}
	c.mu.Unlock()
}

// Logout invalidates the token server-side and clears local session state.
// Local state is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	tok := c.token
	c.token = nil
	c.mu.Unlock()

	if tok == nil {
		return nil
	}

	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          logoutPath,
		query:         url.Values{"access_token": {tok.Token}},
		body:          map[string]string{},
		noAuth:        true,
		discardResult: true,
	}, nil)
	if err != nil {
		c.log.Debug("api.logout.fail", "err", err)
	}
	return err
}

// SetRefreshFunc installs the hook invoked when an authenticated call
// reports the token expired. After a successful refresh the failed request
// is retried once.
func (c *Client) SetRefreshFunc(fn RefreshFunc) {
	c.mu.Lock()
	c.refreshFn = fn
	c.mu.Unlock()
}

// Token returns the current session token, empty when unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token.Token
}

// UserID returns the authenticated user ID, empty when unauthenticated.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token.UserID
}

// Authenticated reports whether a session token is installed.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != nil
}

// SessionToken satisfies the push channel's TokenSource: it snapshots the
// current session material in the socket handshake shape.
func (c *Client) SessionToken() v1.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return v1.Token{}
	}
	return v1.Token{
		ID:      c.token.Token,
		TTL:     c.token.TTL,
		Created: c.token.Created,
		UserID:  c.token.UserID,
		User:    c.token.User,
	}
}

func (c *Client) ensureAuthenticated() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ErrNotAuthenticated
	}
	return nil
}

// ---- request plumbing ----

type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// filter, when non-nil, is JSON-encoded into the LoopBack filter
	// header.
	filter any

	// noAuth requests skip the authorization header (login, logout).
	noAuth bool

	// discardResult skips response decoding.
	discardResult bool
}

// do issues one API request, mapping vendor status codes onto the error
// taxonomy. On ErrTokenExpired it invokes the refresh hook (when installed)
// and retries once.
func (c *Client) do(ctx context.Context, req request, out any) error {
	err := c.doOnce(ctx, req, out)
	if err == nil || !errors.Is(err, ErrTokenExpired) {
		return err
	}

	c.mu.RLock()
	refresh := c.refreshFn
	c.mu.RUnlock()
	if refresh == nil {
		return err
	}

	c.log.Debug("api.token.refresh", "path", req.path)
	if rerr := refresh(ctx); rerr != nil {
		return fmt.Errorf("%w: refresh failed: %v", ErrTokenExpired, rerr)
	}
	return c.doOnce(ctx, req, out)
}

func (c *Client) doOnce(ctx context.Context, req request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("Accept", "application/json")
	hr.Header.Set("User-Agent", c.userAgent)

	authed := false
	if !req.noAuth {
		if tok := c.Token(); tok != "" {
			hr.Header.Set("Authorization", tok)
			authed = true
		}
	}

	if req.filter != nil {
		fb, err := json.Marshal(req.filter)
		if err != nil {
			return fmt.Errorf("encode filter header: %w", err)
		}
		hr.Header.Set("Filter", string(fb))
	}

	c.log.Debug("api.request", "method", req.method, "path", req.path)

	resp, err := c.httpc.Do(hr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("api.response", "method", req.method, "path", req.path, "status", resp.StatusCode)

	switch {
	case resp.StatusCode == statusTwoFactorRequired:
		return ErrTwoFactorRequired

	case resp.StatusCode == statusInvalidCode:
		return ErrInvalidCode

	case resp.StatusCode == http.StatusUnauthorized:
		msg := apiMessage(resp.Body, "Authorization Required")
		// An authenticated request rejected with 401 means the token went
		// stale; an unauthenticated one (login) means wrong credentials.
		if authed {
			return fmt.Errorf("%w: %s", ErrTokenExpired, msg)
		}
		return fmt.Errorf("%w: %s", ErrAuth, msg)

	case resp.StatusCode >= 500:
		msg := apiMessage(resp.Body, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return fmt.Errorf("%w: server error: %s", ErrConnection, msg)

	case resp.StatusCode >= 400:
		msg := apiMessage(resp.Body, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if req.discardResult || out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiMessage extracts the server's error.message, falling back to def.
func apiMessage(r io.Reader, def string) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil || body.Error.Message == "" {
		return def
	}
	return body.Error.Message
}
