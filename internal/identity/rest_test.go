package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minttenant/tenantcore/internal/models"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, sub, email string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func identityServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return srv
}

func TestSignInWithPassword(t *testing.T) {
	srv := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request: %s %s", r.URL.Path, r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  mintToken(t, "user-1", "a@example.com"),
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
		})
	})

	p := NewRestProvider(srv.URL, testSecret)

	var sessionEvents []*models.Session
	p.OnSessionChange(func(s *models.Session) { sessionEvents = append(sessionEvents, s) })
	tokenEvents := 0
	p.OnTokenChange(func(s *models.Session) { tokenEvents++ })

	s, err := p.SignInWithPassword(context.Background(), "a@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if s.ID != "user-1" || s.Email != "a@example.com" {
		t.Fatalf("unexpected session: %+v", s)
	}
	if cur := p.CurrentSession(); cur == nil || cur.ID != "user-1" {
		t.Fatalf("unexpected current session: %+v", cur)
	}

	if len(sessionEvents) != 1 || sessionEvents[0].ID != "user-1" {
		t.Fatalf("expected one session notification, got %+v", sessionEvents)
	}
	if tokenEvents != 1 {
		t.Fatalf("expected one token notification, got %d", tokenEvents)
	}

	tok, err := p.Token(context.Background(), false)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tok == "" {
		t.Fatal("expected cached access token")
	}
}

func TestTokenRefreshNotifiesWithoutSessionChange(t *testing.T) {
	grants := 0
	srv := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		grants++
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  mintToken(t, "user-1", "a@example.com"),
			RefreshToken: "refresh-next",
			ExpiresIn:    3600,
		})
	})

	p := NewRestProvider(srv.URL, testSecret)
	if _, err := p.SignInWithPassword(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	sessionEvents := 0
	p.OnSessionChange(func(*models.Session) { sessionEvents++ })
	tokenEvents := 0
	p.OnTokenChange(func(*models.Session) { tokenEvents++ })

	if _, err := p.Token(context.Background(), true); err != nil {
		t.Fatalf("forced refresh: %v", err)
	}

	if grants != 2 {
		t.Fatalf("expected sign-in plus refresh grants, got %d", grants)
	}
	// Same principal: token subscribers hear about it, session ones do not.
	if sessionEvents != 0 {
		t.Fatalf("expected no session notifications, got %d", sessionEvents)
	}
	if tokenEvents != 1 {
		t.Fatalf("expected one token notification, got %d", tokenEvents)
	}
}

func TestTokenWithoutSession(t *testing.T) {
	p := NewRestProvider("http://identity.invalid", testSecret)
	if _, err := p.Token(context.Background(), false); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSignOutClearsAndNotifies(t *testing.T) {
	var loggedOut bool
	srv := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/logout" {
			loggedOut = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  mintToken(t, "user-1", "a@example.com"),
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
		})
	})

	p := NewRestProvider(srv.URL, testSecret)
	if _, err := p.SignInWithPassword(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	var events []*models.Session
	p.OnSessionChange(func(s *models.Session) { events = append(events, s) })

	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if p.CurrentSession() != nil {
		t.Fatal("expected session to be cleared")
	}
	if len(events) != 1 || events[0] != nil {
		t.Fatalf("expected one nil session notification, got %+v", events)
	}
	if !loggedOut {
		t.Fatal("expected logout call to the identity API")
	}

	// Idempotent: a second sign-out is a no-op with no notification.
	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("second sign out: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected no further notifications, got %d", len(events))
	}
}

func TestSignInRejectsForeignSignature(t *testing.T) {
	srv := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: token, ExpiresIn: 3600})
	})

	p := NewRestProvider(srv.URL, testSecret)
	if _, err := p.SignInWithPassword(context.Background(), "a@example.com", "pw"); err == nil {
		t.Fatal("expected signature validation to fail")
	}
	if p.CurrentSession() != nil {
		t.Fatal("expected no session after failed validation")
	}
}

func TestSignInPropagatesProviderError(t *testing.T) {
	srv := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"msg": "invalid credentials"})
	})

	p := NewRestProvider(srv.URL, testSecret)
	_, err := p.SignInWithPassword(context.Background(), "a@example.com", "bad")
	if err == nil {
		t.Fatal("expected error")
	}
}
