package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/minttenant/tenantcore/internal/api/handlers"
	"github.com/minttenant/tenantcore/internal/api/middleware"
	"github.com/minttenant/tenantcore/internal/audit"
	"github.com/minttenant/tenantcore/internal/cache"
	"github.com/minttenant/tenantcore/internal/config"
	"github.com/minttenant/tenantcore/internal/docstore"
	"github.com/minttenant/tenantcore/internal/docstore/postgres"
	"github.com/minttenant/tenantcore/internal/queue"
	"github.com/minttenant/tenantcore/internal/session"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	queue    *queue.Client
	store    docstore.Store
	sessions *session.Manager
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, qc *queue.Client, cfg *config.Config) *Router {
	var c *cache.Cache
	if rdb != nil {
		c = cache.NewCache(rdb)
	}
	store := postgres.New(db)
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		queue:    qc,
		store:    store,
		sessions: session.NewManager(cfg, store, c),
	}
}

// Close tears down the live browser sessions and their subscriptions.
func (rt *Router) Close() {
	rt.sessions.Close()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(float64(rt.cfg.Server.RateLimitRPS), rt.cfg.Server.RateLimitBurst)
	r.Use(rl.Limit)

	// Health endpoints (no session)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	auditSvc := audit.NewService(rt.db)

	authH := handlers.NewAuthHandler(rt.cfg, rt.store, rt.queue)
	sessH := handlers.NewSessionHandler()
	dashH := handlers.NewDashboardHandler(rt.cfg, rt.queue)
	adminH := handlers.NewAdminHandler(rt.cfg, auditSvc)

	// Everything below runs inside a browser session: the cookie resolves
	// the per-browser pipeline and the host resolves the tenant.
	r.Group(func(r chi.Router) {
		r.Use(rt.sessions.Attach)

		r.Get("/login", authH.LoginSurface)
		r.Post("/login", authH.SignIn)
		r.Post("/register", authH.Register)
		r.Post("/forgot", authH.Forgot)
		r.Post("/social", authH.Social)
		r.Post("/logout", authH.SignOut)

		r.Get("/session", sessH.State)
		r.Post("/session/notices/dismiss", sessH.DismissNotices)

		r.Get("/dashboard", dashH.View)
		r.Get("/dashboard/*", dashH.View)
		r.Post("/dashboard/features/edit", dashH.OpenEditor)
		r.Post("/dashboard/features/toggle", dashH.ToggleFeature)
		r.Post("/dashboard/features/commit", dashH.CommitFeatures)
		r.Post("/dashboard/features/cancel", dashH.CancelEditor)

		r.Get("/api/me", dashH.Me)
		r.Get("/api/audit", adminH.AuditLogs)

		r.Get("/*", sessH.CatchAll)
	})

	return r
}
