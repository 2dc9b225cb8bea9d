package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minttenant/tenantcore/internal/cache"
	"github.com/minttenant/tenantcore/internal/config"
	"github.com/minttenant/tenantcore/internal/dashboard"
	"github.com/minttenant/tenantcore/internal/docstore"
	"github.com/minttenant/tenantcore/internal/gate"
	"github.com/minttenant/tenantcore/internal/gateway"
	"github.com/minttenant/tenantcore/internal/identity"
	"github.com/minttenant/tenantcore/internal/profile"
	"github.com/minttenant/tenantcore/internal/tenant"
	"github.com/minttenant/tenantcore/internal/tenantconfig"
)

const (
	cookieName  = "tc_session"
	idleTimeout = 30 * time.Minute
)

// BrowserSession is the per-browser wiring of the bootstrap pipeline: one
// identity provider, one gateway client bound to the resolved tenant, one
// gate, one feature editor. Nothing here is shared between browsers.
type BrowserSession struct {
	ID       string
	Tenant   tenant.Context
	Provider identity.Provider
	Boot     *identity.Bootstrap
	Gate     *gate.Gate
	Configs  *tenantconfig.Service
	Profiles *profile.Service
	Editor   *dashboard.Editor

	nav      *redirectSink
	stop     func()
	mu       sync.Mutex
	lastSeen time.Time
}

// PendingRedirect consumes a navigation requested by the gateway's
// authorization-failure flow, if one is queued.
func (b *BrowserSession) PendingRedirect() (string, bool) {
	return b.nav.consume()
}

func (b *BrowserSession) touch() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSeen = time.Now()
}

func (b *BrowserSession) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen.Before(cutoff)
}

// redirectSink implements gateway.Navigator for a server-driven browser:
// the target is parked until the next page request observes it.
type redirectSink struct {
	mu     sync.Mutex
	target string
}

func (s *redirectSink) Navigate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = path
}

func (s *redirectSink) consume() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.target
	s.target = ""
	return t, t != ""
}

// Manager owns the live browser sessions, keyed by an opaque cookie. Idle
// sessions are torn down, cancelling their provider subscriptions.
type Manager struct {
	cfg   *config.Config
	store docstore.Store
	cache *cache.Cache

	mu       sync.Mutex
	sessions map[string]*BrowserSession
	done     chan struct{}
}

func NewManager(cfg *config.Config, store docstore.Store, c *cache.Cache) *Manager {
	m := &Manager{
		cfg:      cfg,
		store:    store,
		cache:    c,
		sessions: make(map[string]*BrowserSession),
		done:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

func (m *Manager) Close() {
	close(m.done)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, bs := range m.sessions {
		bs.stop()
		delete(m.sessions, id)
	}
}

// Attach resolves (or creates) the browser session for the request cookie
// and threads it, plus the tenant context, through the request context.
func (m *Manager) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(cookieName); err == nil {
			id = c.Value
		}

		bs, fresh := m.lookup(id, r.Host)
		if fresh {
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    bs.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		bs.touch()

		// A 401 on an upstream call parks a navigation; page loads honor
		// it before anything else.
		if r.Method == http.MethodGet {
			if target, ok := bs.PendingRedirect(); ok {
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
		}

		ctx := With(r.Context(), bs)
		ctx = tenant.With(ctx, bs.Tenant)
		if s := bs.Provider.CurrentSession(); s != nil {
			ctx = tenant.WithSession(ctx, s)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) lookup(id, host string) (*BrowserSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		if bs, ok := m.sessions[id]; ok {
			return bs, false
		}
	}
	bs := m.build(host)
	m.sessions[bs.ID] = bs
	return bs, true
}

func (m *Manager) build(host string) *BrowserSession {
	tc := tenant.FromHost(host)
	provider := identity.NewRestProvider(m.cfg.Identity.BaseURL, m.cfg.Identity.JWTSecret)
	boot := identity.NewBootstrap(provider, m.store)
	nav := &redirectSink{}
	gw := gateway.NewClient(m.cfg.Upstream.BaseURL, m.cfg.Upstream.TenantHeader, tc, provider, nav)
	configs := tenantconfig.NewService(gw, m.cache, tc)
	g := gate.New(provider, boot, configs, gate.Options{MinSplash: gate.DefaultMinSplash})

	stopBoot := boot.Start()
	stopGate := g.Start()

	return &BrowserSession{
		ID:       uuid.NewString(),
		Tenant:   tc,
		Provider: provider,
		Boot:     boot,
		Gate:     g,
		Configs:  configs,
		Profiles: profile.NewService(gw),
		Editor:   dashboard.NewEditor(configs, g.ReloadConfig),
		nav:      nav,
		stop: func() {
			stopGate()
			stopBoot()
		},
		lastSeen: time.Now(),
	}
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-idleTimeout)
			m.mu.Lock()
			for id, bs := range m.sessions {
				if bs.idleSince(cutoff) {
					bs.stop()
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}
}

type ctxKey string

const sessionKey ctxKey = "browser_session"

func With(ctx context.Context, bs *BrowserSession) context.Context {
	return context.WithValue(ctx, sessionKey, bs)
}

func FromContext(ctx context.Context) *BrowserSession {
	bs, _ := ctx.Value(sessionKey).(*BrowserSession)
	return bs
}
