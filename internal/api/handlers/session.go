package handlers

import (
	"net/http"

	"github.com/minttenant/tenantcore/internal/gate"
	"github.com/minttenant/tenantcore/internal/session"
)

// SessionHandler exposes the gate state for polling clients and routes
// unmatched page requests.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// State reports the current gate state plus everything a shell needs to
// paint: theme, profile (if resolved), pending notices.
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	bs := session.FromContext(r.Context())

	body := map[string]any{
		"state":   bs.Gate.State().String(),
		"tenant":  bs.Tenant.ID,
		"notices": bs.Gate.Notices(),
	}
	if s := bs.Provider.CurrentSession(); s != nil {
		body["email"] = s.Email
	}
	if p, ok := bs.Gate.Profile(); ok {
		body["profile"] = p
	}
	if t, ok := bs.Gate.Theme(); ok {
		body["theme"] = t
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *SessionHandler) DismissNotices(w http.ResponseWriter, r *http.Request) {
	bs := session.FromContext(r.Context())
	bs.Gate.DismissNotices()
	w.WriteHeader(http.StatusNoContent)
}

// CatchAll sends any unmatched path to wherever the gate says the browser
// belongs.
func (h *SessionHandler) CatchAll(w http.ResponseWriter, r *http.Request) {
	bs := session.FromContext(r.Context())
	if target, ok := gate.Redirect(bs.Gate.State(), r.URL.Path); ok {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	writeError(w, http.StatusNotFound, "not found")
}
