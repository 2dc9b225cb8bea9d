package gate

import (
	"sync"

	"github.com/minttenant/tenantcore/internal/models"
)

// Theme is the explicit branding object handed to downstream rendering.
// It replaces any notion of a process-global style variable: one Theme per
// session, applied on Ready, torn down on sign-out.
type Theme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Brand     string `json:"brand"`
}

func ThemeFromConfig(cfg models.TenantConfig) Theme {
	return Theme{
		Primary:   cfg.PrimaryColor,
		Secondary: cfg.SecondaryColor,
		Brand:     cfg.BrandName,
	}
}

// ThemeHolder is the session-scoped slot the gate writes the theme into.
type ThemeHolder struct {
	mu sync.Mutex
	t  *Theme
}

func (h *ThemeHolder) Apply(t Theme) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.t = &t
}

func (h *ThemeHolder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.t = nil
}

func (h *ThemeHolder) Current() (Theme, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.t == nil {
		return Theme{}, false
	}
	return *h.t, true
}
