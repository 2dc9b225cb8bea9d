package tenantconfig

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minttenant/tenantcore/internal/cache"
	"github.com/minttenant/tenantcore/internal/gateway"
	"github.com/minttenant/tenantcore/internal/models"
	"github.com/minttenant/tenantcore/internal/tenant"
)

const cacheTTL = 5 * time.Minute

// Service talks to the tenant configuration service through the gateway.
// The redis cache holds a projection of server truth keyed by tenant; it is
// replaced wholesale on fetch and dropped after any feature write, never
// patched in place.
type Service struct {
	gw    *gateway.Client
	cache *cache.Cache
	tc    tenant.Context
}

func NewService(gw *gateway.Client, c *cache.Cache, tc tenant.Context) *Service {
	return &Service{gw: gw, cache: c, tc: tc}
}

// Fetch loads the tenant configuration.
func (s *Service) Fetch(ctx context.Context) (models.TenantConfig, error) {
	var cfg models.TenantConfig
	if s.cache != nil {
		if err := s.cache.Get(ctx, s.cacheKey(), &cfg); err == nil {
			return cfg, nil
		}
	}

	if err := s.gw.Get(ctx, gateway.ScopedPath(s.tc.ID, "/config"), &cfg); err != nil {
		return models.TenantConfig{}, fmt.Errorf("fetch tenant config: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cacheKey(), cfg, cacheTTL); err != nil {
			slog.Warn("tenant config cache write failed", "tenant", s.tc.ID, "error", err)
		}
	}
	return cfg, nil
}

// ReplaceFeatures commits the full feature map, replacing the server-side
// set, and invalidates the cached projection so the next read observes
// server truth.
func (s *Service) ReplaceFeatures(ctx context.Context, features map[string]bool) error {
	body := struct {
		Features map[string]bool `json:"features"`
	}{Features: features}

	if err := s.gw.Put(ctx, gateway.ScopedPath(s.tc.ID, "/features"), body, nil); err != nil {
		return fmt.Errorf("replace features: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.cacheKey()); err != nil {
			slog.Warn("tenant config cache invalidation failed", "tenant", s.tc.ID, "error", err)
		}
	}
	return nil
}

func (s *Service) cacheKey() string {
	return "tenant:" + s.tc.ID + ":config"
}
