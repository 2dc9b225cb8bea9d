package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/minttenant/tenantcore/internal/config"
	"github.com/minttenant/tenantcore/internal/docstore"
	"github.com/minttenant/tenantcore/internal/gate"
	"github.com/minttenant/tenantcore/internal/models"
	"github.com/minttenant/tenantcore/internal/queue"
	"github.com/minttenant/tenantcore/internal/session"
)

type AuthHandler struct {
	cfg   *config.Config
	store docstore.Store
	queue *queue.Client
}

func NewAuthHandler(cfg *config.Config, store docstore.Store, qc *queue.Client) *AuthHandler {
	return &AuthHandler{cfg: cfg, store: store, queue: qc}
}

// LoginSurface describes the login/registration/forgot surface. A Ready
// session is bounced straight to the dashboard.
func (h *AuthHandler) LoginSurface(w http.ResponseWriter, r *http.Request) {
	bs := session.FromContext(r.Context())
	st := bs.Gate.State()
	if target, ok := gate.Redirect(st, gate.LoginPath); ok {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	mode := r.URL.Query().Get("mode")
	switch mode {
	case "register", "forgot":
	default:
		mode = "login"
	}
	// A signed-in but unprovisioned identity lands on registration
	// completion, pre-seeded with the host-derived tenant.
	if st == gate.StateRegistrationIncomplete {
		mode = "register"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":            mode,
		"state":           st.String(),
		"tenants":         h.cfg.Branding.RegistrationTenants,
		"defaultTenant":   bs.Tenant.ID,
		"backgroundImage": h.cfg.Branding.BackgroundImageURL,
		"brandColor":      h.cfg.Branding.AccentColor,
		"notices":         bs.Gate.Notices(),
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	bs := session.FromContext(r.Context())
	s, err := bs.Provider.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}

	h.audit(bs, s.ID, "session.sign_in")
	writeJSON(w, http.StatusOK, map[string]string{"state": bs.Gate.State().String()})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Tenant   string `json:"tenant"`
}

// Register creates the identity (unless one is already signed in and
// merely unprovisioned) and writes the provisioning record to the
// document store, then re-evaluates completeness.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bs := session.FromContext(r.Context())

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleEmployee
	}
	switch role {
	case models.RoleEmployee, models.RoleHR, models.RoleAdmin:
	default:
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	tenantID := req.Tenant
	if tenantID == "" {
		tenantID = bs.Tenant.ID
	}
	if len(h.cfg.Branding.RegistrationTenants) > 0 && !slices.Contains(h.cfg.Branding.RegistrationTenants, tenantID) {
		writeError(w, http.StatusBadRequest, "unknown tenant")
		return
	}

	s := bs.Provider.CurrentSession()
	if s == nil {
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}
		var err error
		s, err = bs.Provider.SignUpWithPassword(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, http.StatusBadRequest, "sign-up failed")
			return
		}
	}

	p := models.UserProfile{Email: s.Email, Role: role, Tenant: tenantID}
	if err := docstore.PutUserProfile(r.Context(), h.store, s.ID, p); err != nil {
		slog.Error("profile provisioning failed", "session_id", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store profile")
		return
	}
	bs.Boot.Refresh()

	h.audit(bs, s.ID, "session.register")
	writeJSON(w, http.StatusOK, map[string]string{"state": bs.Gate.State().String()})
}

func (h *AuthHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	bs := session.FromContext(r.Context())
	if err := bs.Provider.SendPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, http.StatusBadGateway, "failed to send reset link")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reset link sent"})
}

type socialRequest struct {
	Provider  string `json:"provider"`
	Assertion string `json:"assertion"`
}

// Social exchanges a social provider assertion for a session and lazily
// provisions a default profile on first sign-in.
func (h *AuthHandler) Social(w http.ResponseWriter, r *http.Request) {
	var req socialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Provider == "" || req.Assertion == "" {
		writeError(w, http.StatusBadRequest, "provider and assertion are required")
		return
	}

	bs := session.FromContext(r.Context())
	s, err := bs.Provider.SignInWithSocialProvider(r.Context(), req.Provider, req.Assertion)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "social sign-in failed")
		return
	}

	if _, err := docstore.GetUserProfile(r.Context(), h.store, s.ID); errors.Is(err, docstore.ErrNotFound) {
		p := models.UserProfile{Email: s.Email, Role: models.RoleEmployee, Tenant: bs.Tenant.ID}
		if err := docstore.PutUserProfile(r.Context(), h.store, s.ID, p); err != nil {
			slog.Warn("lazy profile provisioning failed", "session_id", s.ID, "error", err)
		} else {
			bs.Boot.Refresh()
		}
	}

	h.audit(bs, s.ID, "session.social_sign_in")
	writeJSON(w, http.StatusOK, map[string]string{"state": bs.Gate.State().String()})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	bs := session.FromContext(r.Context())
	sessionID := ""
	if s := bs.Provider.CurrentSession(); s != nil {
		sessionID = s.ID
	}

	if err := bs.Provider.SignOut(r.Context()); err != nil {
		slog.Warn("sign-out failed", "error", err)
	}

	h.audit(bs, sessionID, "session.sign_out")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) audit(bs *session.BrowserSession, sessionID, action string) {
	if h.queue == nil {
		return
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
