package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minttenant/tenantcore/internal/config"
	"github.com/minttenant/tenantcore/internal/tenant"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := &config.Config{
		Identity: config.IdentityConfig{BaseURL: "http://identity.invalid", JWTSecret: "secret"},
		Upstream: config.UpstreamConfig{BaseURL: "http://configs.invalid", TenantHeader: "x-tenant-id"},
	}
	m := NewManager(cfg, nil, nil)
	t.Cleanup(m.Close)
	return m
}

func TestAttachCreatesAndReusesBrowserSession(t *testing.T) {
	m := newTestManager(t)

	var seen []*BrowserSession
	var seenTenants []tenant.Context
	h := m.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, FromContext(r.Context()))
		seenTenants = append(seenTenants, tenant.FromContext(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "http://tenant1.example.com/session", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if len(seen) != 1 || seen[0] == nil {
		t.Fatal("expected a browser session in context")
	}
	if seen[0].Tenant.ID != "tenant1" {
		t.Fatalf("expected tenant1 from host, got %q", seen[0].Tenant.ID)
	}
	// Handlers read the tenant back through the context accessor.
	if seenTenants[0].ID != "tenant1" {
		t.Fatalf("expected tenant1 in request context, got %q", seenTenants[0].ID)
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "tc_session" {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}

	// Second request with the cookie resolves the same session without
	// issuing a new one.
	req = httptest.NewRequest(http.MethodGet, "http://tenant1.example.com/session", nil)
	req.AddCookie(cookies[0])
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if len(seen) != 2 || seen[1].ID != seen[0].ID {
		t.Fatal("expected the cookie to resolve the existing session")
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("expected no new cookie on reuse")
	}
}

func TestAttachUnknownCookieMintsFreshSession(t *testing.T) {
	m := newTestManager(t)

	var got *BrowserSession
	h := m.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://tenant1.example.com/", nil)
	req.AddCookie(&http.Cookie{Name: "tc_session", Value: "evicted-or-bogus"})
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if got == nil || got.ID == "evicted-or-bogus" {
		t.Fatal("expected a fresh session for an unknown cookie")
	}
	if len(resp.Result().Cookies()) != 1 {
		t.Fatal("expected a replacement cookie")
	}
}

func TestAttachHonorsPendingRedirect(t *testing.T) {
	m := newTestManager(t)

	var bs *BrowserSession
	h := m.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://tenant1.example.com/dashboard", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	cookie := resp.Result().Cookies()[0]

	// An upstream 401 parks a navigation on the session.
	bs.nav.Navigate("/login")

	req = httptest.NewRequest(http.MethodGet, "http://tenant1.example.com/dashboard", nil)
	req.AddCookie(cookie)
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %s", loc)
	}

	// The redirect is consumed; the next request passes through.
	req = httptest.NewRequest(http.MethodGet, "http://tenant1.example.com/dashboard", nil)
	req.AddCookie(cookie)
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected pass-through after consuming redirect, got %d", resp.Code)
	}
}

func TestPostRequestsIgnorePendingRedirect(t *testing.T) {
	m := newTestManager(t)

	var bs *BrowserSession
	h := m.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://tenant1.example.com/", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	cookie := resp.Result().Cookies()[0]

	bs.nav.Navigate("/login")

	req = httptest.NewRequest(http.MethodPost, "http://tenant1.example.com/logout", nil)
	req.AddCookie(cookie)
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected POST to pass through, got %d", resp.Code)
	}
	// The parked redirect stays queued for the next page load.
	if target, ok := bs.PendingRedirect(); !ok || target != "/login" {
		t.Fatalf("expected redirect to remain parked, got (%q, %v)", target, ok)
	}
}
