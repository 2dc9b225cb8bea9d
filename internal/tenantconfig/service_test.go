package tenantconfig

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minttenant/tenantcore/internal/gateway"
	"github.com/minttenant/tenantcore/internal/identity"
	"github.com/minttenant/tenantcore/internal/models"
	"github.com/minttenant/tenantcore/internal/tenant"
)

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tc := tenant.Context{ID: "tenant1"}
	provider := identity.NewRestProvider("http://identity.invalid", "secret")
	gw := gateway.NewClient(srv.URL, "", tc, provider, noopNavigator{})
	return NewService(gw, nil, tc)
}

func TestFetchUsesTenantScopedRoute(t *testing.T) {
	var gotPath string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(models.TenantConfig{
			Layout:    models.LayoutSide,
			BrandName: "Acme",
			Features:  map[string]bool{"payroll": true},
		})
	})

	cfg, err := svc.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/tenant1/config" {
		t.Fatalf("expected /tenant1/config, got %s", gotPath)
	}
	if cfg.BrandName != "Acme" || !cfg.Features["payroll"] {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestFetchPropagatesUpstreamError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := svc.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestReplaceFeaturesSendsFullMap(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody struct {
		Features map[string]bool `json:"features"`
	}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})

	features := map[string]bool{"payroll": false, "leave": true}
	if err := svc.ReplaceFeatures(context.Background(), features); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/tenant1/features" {
		t.Fatalf("expected PUT /tenant1/features, got %s %s", gotMethod, gotPath)
	}
	if len(gotBody.Features) != 2 || gotBody.Features["leave"] != true {
		t.Fatalf("expected full feature map, got %+v", gotBody.Features)
	}
}
