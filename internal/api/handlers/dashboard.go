package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/minttenant/tenantcore/internal/config"
	"github.com/minttenant/tenantcore/internal/dashboard"
	"github.com/minttenant/tenantcore/internal/gate"
	"github.com/minttenant/tenantcore/internal/models"
	"github.com/minttenant/tenantcore/internal/queue"
	"github.com/minttenant/tenantcore/internal/session"
	"github.com/minttenant/tenantcore/internal/tenant"
)

type DashboardHandler struct {
	cfg        *config.Config
	queue      *queue.Client
	privileged dashboard.RoleSet
}

func NewDashboardHandler(cfg *config.Config, qc *queue.Client) *DashboardHandler {
	return &DashboardHandler{
		cfg:        cfg,
		queue:      qc,
		privileged: dashboard.NewRoleSet(cfg.Branding.PrivilegedRoles...),
	}
}

// View renders the variant view model for a Ready session; anything else
// is redirected to the login entry point.
func (h *DashboardHandler) View(w http.ResponseWriter, r *http.Request) {
	bs := session.FromContext(r.Context())
	st := bs.Gate.State()
	if target, ok := gate.Redirect(st, gate.DashboardPath); ok {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	cfg, ok := bs.Gate.Config()
	if !ok {
		// Ready implies a loaded config; this is a bug trap, not a path.
		writeError(w, http.StatusInternalServerError, "no tenant configuration")
		return
	}
	prof, _ := bs.Gate.Profile()
	theme, _ := bs.Gate.Theme()

	writeJSON(w, http.StatusOK, map[string]any{
		"view":    dashboard.Select(cfg, prof, h.privileged),
		"theme":   theme,
		"notices": bs.Gate.Notices(),
	})
}

// Me proxies the backend profile endpoint for the dashboard header.
func (h *DashboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	bs := session.FromContext(r.Context())
	if tenant.SessionFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	p, err := bs.Profiles.Me(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// OpenEditor snapshots the current feature set for editing.
func (h *DashboardHandler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.requirePrivileged(w, r)
	if !ok {
		return
	}

	cfg, loaded := bs.Gate.Config()
	if bs.Gate.State() != gate.StateReady || !loaded {
		writeError(w, http.StatusConflict, "dashboard is not ready")
		return
	}

	snap, err := bs.Editor.Open(cfg.Features)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": snap})
}

// ToggleFeature flips one flag in the local snapshot.
func (h *DashboardHandler) ToggleFeature(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.requirePrivileged(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "feature name is required")
		return
	}

	if err := bs.Editor.Toggle(req.Name); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	snap, _ := bs.Editor.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"features": snap})
}

// CommitFeatures replaces the tenant feature map with the snapshot. On
// failure the snapshot survives so the user can retry without re-entering
// toggles.
func (h *DashboardHandler) CommitFeatures(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.requirePrivileged(w, r)
	if !ok {
		return
	}

	if err := bs.Editor.Commit(r.Context()); err != nil {
		if errors.Is(err, dashboard.ErrEditorClosed) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		snap, _ := bs.Editor.Snapshot()
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":    "failed to save features",
			"features": snap,
		})
		return
	}

	h.audit(bs, "features.replace")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DashboardHandler) CancelEditor(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.requirePrivileged(w, r)
	if !ok {
		return
	}
	bs.Editor.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (h *DashboardHandler) requirePrivileged(w http.ResponseWriter, r *http.Request) (*session.BrowserSession, bool) {
	bs := session.FromContext(r.Context())
	prof, ok := bs.Gate.Profile()
	if !ok || !h.privileged.Contains(models.Role(prof.Role)) {
		writeError(w, http.StatusForbidden, "insufficient role")
		return nil, false
	}
	return bs, true
}

func (h *DashboardHandler) audit(bs *session.BrowserSession, action string) {
	if h.queue == nil {
		return
	}
	sessionID := ""
	if s := bs.Provider.CurrentSession(); s != nil {
		sessionID = s.ID
	}
	err := h.queue.EnqueueAuditRecord(queue.AuditRecordPayload{
		Tenant:    bs.Tenant.ID,
		SessionID: sessionID,
		Action:    action,
	})
	if err != nil {
		slog.Warn("audit enqueue failed", "action", action, "error", err)
	}
}
