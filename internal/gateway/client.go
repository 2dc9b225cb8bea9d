package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minttenant/tenantcore/internal/identity"
	"github.com/minttenant/tenantcore/internal/tenant"
)

// LoginPath is where the browser is sent after an authorization failure.
const LoginPath = "/login"

// signOutDelay lets in-flight UI state settle before the post-401
// navigation fires.
const defaultSignOutDelay = 100 * time.Millisecond

// Navigator moves the browser session to a new path.
type Navigator interface {
	Navigate(path string)
}

// StatusError is a non-2xx reply from the backend. The gateway always
// propagates it to the caller, including for 401s that also trigger the
// sign-out flow.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway: status %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("gateway: status %d", e.Code)
}

// Client wraps outbound calls to the backend for one browser session.
// Every request carries the tenant-identifying header and, when a session
// exists, a bearer credential from the identity provider.
type Client struct {
	base         string
	tenantHeader string
	tc           tenant.Context
	http         *http.Client
	provider     identity.Provider
	nav          Navigator
	signOutDelay time.Duration
}

func NewClient(base, tenantHeader string, tc tenant.Context, provider identity.Provider, nav Navigator) *Client {
	if tenantHeader == "" {
		tenantHeader = "x-tenant-id"
	}
	return &Client{
		base:         strings.TrimRight(base, "/"),
		tenantHeader: tenantHeader,
		tc:           tc,
		http:         &http.Client{Timeout: 15 * time.Second},
		provider:     provider,
		nav:          nav,
		signOutDelay: defaultSignOutDelay,
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+"/"+strings.TrimPrefix(path, "/"), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.tenantHeader, c.tc.ID)

	if s := c.provider.CurrentSession(); s != nil {
		// Fresh-enough token; forcing a refresh is the bootstrap's job.
		token, err := c.provider.Token(ctx, false)
		if err != nil {
			return fmt.Errorf("obtain credential: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
		return &StatusError{Code: resp.StatusCode, Detail: readDetail(resp)}
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Detail: readDetail(resp)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// handleUnauthorized clears the identity session (best effort) and, after a
// short delay, sends the browser to the login entry point. The rejected
// request still errors out to its caller.
func (c *Client) handleUnauthorized() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.provider.SignOut(ctx); err != nil {
		slog.Warn("sign-out after authorization failure", "error", err)
	}
	time.AfterFunc(c.signOutDelay, func() {
		c.nav.Navigate(LoginPath)
	})
}

func readDetail(resp *http.Response) string {
	var payload struct {
		Detail string `json:"detail"`
		Err    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Err
}
