package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minttenant/tenantcore/internal/models"
)

// tokenSlack is how close to expiry a cached credential may be before a
// non-forced Token call refreshes it anyway.
const tokenSlack = 30 * time.Second

// RestProvider implements Provider against a GoTrue-style identity API:
// password and refresh-token grants on /token, /signup, /recover and
// /logout. Access tokens are HS256 JWTs; the session identity is read from
// their claims.
type RestProvider struct {
	baseURL string
	secret  []byte
	http    *http.Client

	mu           sync.Mutex
	session      *models.Session
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	nextSub      int
	sessionSubs  map[int]func(*models.Session)
	tokenSubs    map[int]func(*models.Session)
}

func NewRestProvider(baseURL, jwtSecret string) *RestProvider {
	return &RestProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		secret:      []byte(jwtSecret),
		http:        &http.Client{Timeout: 10 * time.Second},
		sessionSubs: make(map[int]func(*models.Session)),
		tokenSubs:   make(map[int]func(*models.Session)),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (p *RestProvider) CurrentSession() *models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	s := *p.session
	return &s
}

func (p *RestProvider) OnSessionChange(cb func(*models.Session)) (cancel func()) {
	return p.subscribe(cb, true)
}

func (p *RestProvider) OnTokenChange(cb func(*models.Session)) (cancel func()) {
	return p.subscribe(cb, false)
}

func (p *RestProvider) subscribe(cb func(*models.Session), session bool) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	subs := p.tokenSubs
	if session {
		subs = p.sessionSubs
	}
	subs[id] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(subs, id)
	}
}

func (p *RestProvider) Token(ctx context.Context, force bool) (string, error) {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return "", ErrNoSession
	}
	if !force && p.accessToken != "" && time.Until(p.expiresAt) > tokenSlack {
		tok := p.accessToken
		p.mu.Unlock()
		return tok, nil
	}
	refresh := p.refreshToken
	p.mu.Unlock()

	if _, err := p.grant(ctx, "refresh_token", map[string]string{"refresh_token": refresh}); err != nil {
		return "", fmt.Errorf("refresh credential: %w", err)
	}

	p.mu.Lock()
	tok := p.accessToken
	p.mu.Unlock()
	return tok, nil
}

func (p *RestProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	return p.grant(ctx, "password", map[string]string{"email": email, "password": password})
}

func (p *RestProvider) SignUpWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var tr tokenResponse
	if err := p.post(ctx, "/signup", "", map[string]string{"email": email, "password": password}, &tr); err != nil {
		return nil, err
	}
	return p.adopt(tr)
}

func (p *RestProvider) SendPasswordReset(ctx context.Context, email string) error {
	return p.post(ctx, "/recover", "", map[string]string{"email": email}, nil)
}

func (p *RestProvider) SignInWithSocialProvider(ctx context.Context, provider, assertion string) (*models.Session, error) {
	return p.grant(ctx, "id_token", map[string]string{"provider": provider, "id_token": assertion})
}

func (p *RestProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	token := p.accessToken
	wasSignedIn := p.session != nil
	p.session = nil
	p.accessToken = ""
	p.refreshToken = ""
	p.expiresAt = time.Time{}
	subs := collect(p.sessionSubs)
	p.mu.Unlock()

	if wasSignedIn {
		for _, cb := range subs {
			cb(nil)
		}
	}
	if token == "" {
		return nil
	}
	if err := p.post(ctx, "/logout", token, nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// grant exchanges credentials on the /token endpoint and adopts the
// resulting session.
func (p *RestProvider) grant(ctx context.Context, grantType string, payload any) (*models.Session, error) {
	var tr tokenResponse
	if err := p.post(ctx, "/token?grant_type="+grantType, "", payload, &tr); err != nil {
		return nil, err
	}
	return p.adopt(tr)
}

func (p *RestProvider) adopt(tr tokenResponse) (*models.Session, error) {
	s, err := p.sessionFromToken(tr.AccessToken)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := p.session == nil || p.session.ID != s.ID
	p.session = s
	p.accessToken = tr.AccessToken
	p.refreshToken = tr.RefreshToken
	p.expiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	sessionSubs := collect(p.sessionSubs)
	tokenSubs := collect(p.tokenSubs)
	p.mu.Unlock()

	copied := *s
	if changed {
		for _, cb := range sessionSubs {
			cb(&copied)
		}
	}
	for _, cb := range tokenSubs {
		cb(&copied)
	}
	return &copied, nil
}

func (p *RestProvider) sessionFromToken(token string) (*models.Session, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("access token has no subject")
	}
	return &models.Session{ID: claims.Subject, Email: claims.Email}, nil
}

func (p *RestProvider) post(ctx context.Context, path, bearer string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Msg         string `json:"msg"`
			Description string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		detail := apiErr.Msg
		if detail == "" {
			detail = apiErr.Description
		}
		if detail == "" {
			detail = resp.Status
		}
		return fmt.Errorf("identity provider %s: %s", path, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode identity response: %w", err)
		}
	}
	return nil
}

func collect(subs map[int]func(*models.Session)) []func(*models.Session) {
	out := make([]func(*models.Session), 0, len(subs))
	for _, cb := range subs {
		out = append(out, cb)
	}
	return out
}
