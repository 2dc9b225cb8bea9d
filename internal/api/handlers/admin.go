package handlers

import (
	"net/http"
	"strconv"

	"github.com/minttenant/tenantcore/internal/audit"
	"github.com/minttenant/tenantcore/internal/config"
	"github.com/minttenant/tenantcore/internal/dashboard"
	"github.com/minttenant/tenantcore/internal/models"
	"github.com/minttenant/tenantcore/internal/session"
	"github.com/minttenant/tenantcore/internal/tenant"
)

type AdminHandler struct {
	audits     *audit.Service
	privileged dashboard.RoleSet
}

func NewAdminHandler(cfg *config.Config, audits *audit.Service) *AdminHandler {
	return &AdminHandler{
		audits:     audits,
		privileged: dashboard.NewRoleSet(cfg.Branding.PrivilegedRoles...),
	}
}

// AuditLogs lists recent audit events for the session's tenant.
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	bs := session.FromContext(r.Context())
	prof, ok := bs.Gate.Profile()
	if !ok || !h.privileged.Contains(models.Role(prof.Role)) {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}
	if h.audits == nil {
		writeError(w, http.StatusServiceUnavailable, "audit log unavailable")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.audits.List(r.Context(), audit.Query{
		Tenant: tenant.FromContext(r.Context()).ID,
		Action: r.URL.Query().Get("action"),
		Limit:  limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
