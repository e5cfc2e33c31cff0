// Package apiclient is the authenticated HTTP client for the Brintelli API.
//
// Every request carries the current access token. A 401 triggers one token
// refresh, shared by all requests that hit the 401 at the same time, and
// the original request is retried once. When the refresh fails, or the
// retry is still unauthorized, the stored tokens are cleared, OnLogout is
// called and the request fails with ErrSessionExpired.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired means the refresh token is gone or rejected; the user
// has to log in again.
var ErrSessionExpired = errors.New("session expired; log in again")

const maxResponseBytes = 10 << 20

// APIError is a non-2xx response carrying the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%d %s, field %s)", e.Message, e.Status, e.Code, e.Field)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == code
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

// Client talks to one Brintelli server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenStore

	// OnLogout is called once per expiry, after the tokens are cleared.
	// Concurrent requests failing together count as one expiry; the next
	// login or refresh starts a new session.
	OnLogout func()

	refreshes singleflight.Group
	expired   atomic.Bool
}

// New returns a client for baseURL. tokens may be nil for an in-memory store.
func New(baseURL string, tokens TokenStore) *Client {
	if tokens == nil {
		tokens = &MemoryTokens{}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Tokens:  tokens,
	}
}

// Do sends an authenticated request and decodes the envelope's data into
// out (which may be nil). body, when non-nil, is sent as JSON.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := jsonBody(body)
	if err != nil {
		return err
	}

	sent := c.Tokens.Access()
	status, env, err := c.send(ctx, method, path, payload, sent)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		if err := c.refresh(ctx, sent); err != nil {
			return err
		}
		status, env, err = c.send(ctx, method, path, payload, c.Tokens.Access())
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.expire()
			return ErrSessionExpired
		}
	}
	return decode(status, env, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (int, envelope, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return 0, envelope{}, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, envelope{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, envelope{}, fmt.Errorf("reading response body: %w", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return 0, envelope{}, fmt.Errorf("parsing response JSON (HTTP %d, body: %s): %w", resp.StatusCode, truncate(string(raw), 200), err)
		}
	}
	return resp.StatusCode, env, nil
}

func decode(status int, env envelope, out any) error {
	if status < 200 || status > 299 || !env.Success {
		ae := &APIError{Status: status, Code: "http_error", Message: http.StatusText(status)}
		if env.Error != nil {
			ae.Code = env.Error.Code
			ae.Message = env.Error.Message
			ae.Field = env.Error.Field
		}
		return ae
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// refresh rotates the token pair. stale is the access token the failed
// request carried; if the store already holds a different one, another
// request has refreshed in the meantime and there is nothing to do.
func (c *Client) refresh(ctx context.Context, stale string) error {
	// the shared refresh must not die with whichever caller started it
	ctx = context.WithoutCancel(ctx)
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		if cur := c.Tokens.Access(); cur != "" && cur != stale {
			return nil, nil
		}
		rt := c.Tokens.Refresh()
		if rt == "" {
			c.expire()
			return nil, ErrSessionExpired
		}

		payload, err := jsonBody(map[string]string{"refreshToken": rt})
		if err != nil {
			return nil, err
		}
		status, env, err := c.send(ctx, http.MethodPost, "/api/auth/refresh", payload, "")
		if err != nil {
			return nil, err
		}
		var s Session
		if err := decode(status, env, &s); err != nil {
			c.expire()
			return nil, ErrSessionExpired
		}
		if err := c.setTokens(s.Token, s.RefreshToken); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// setTokens stores a new pair and re-arms the logout hook.
func (c *Client) setTokens(access, refresh string) error {
	if err := c.Tokens.Set(access, refresh); err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}
	c.expired.Store(false)
	return nil
}

func (c *Client) expire() {
	if !c.expired.CompareAndSwap(false, true) {
		return
	}
	_ = c.Tokens.Clear()
	if c.OnLogout != nil {
		c.OnLogout()
	}
}

func jsonBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return b, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
