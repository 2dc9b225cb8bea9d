package gate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/minttenant/tenantcore/internal/identity"
	"github.com/minttenant/tenantcore/internal/models"
)

// State is the combined verdict over identity session, profile
// completeness and tenant configuration for one browser session.
type State int

const (
	StateSplash State = iota
	StateLoginRequired
	StateRegistrationIncomplete
	StateConfigLoading
	StateReady
	StateConfigError
)

func (s State) String() string {
	switch s {
	case StateLoginRequired:
		return "login_required"
	case StateRegistrationIncomplete:
		return "registration_incomplete"
	case StateConfigLoading:
		return "config_loading"
	case StateReady:
		return "ready"
	case StateConfigError:
		return "config_error"
	default:
		return "splash"
	}
}

// ConfigFetcher loads the tenant configuration for the session's tenant.
type ConfigFetcher interface {
	Fetch(ctx context.Context) (models.TenantConfig, error)
}

// Options tune a Gate. The zero value gives the production defaults except
// MinSplash, which must be set explicitly to be non-zero.
type Options struct {
	// MinSplash holds the splash state for at least this long so instant
	// auth resolution does not flicker.
	MinSplash time.Duration
	Notifier  Notifier
}

// DefaultMinSplash is the production minimum splash duration.
const DefaultMinSplash = 200 * time.Millisecond

// Gate drives one browser session through the bootstrap pipeline:
// session resolution, profile completeness, then tenant configuration.
// Ready and ConfigError are terminal until the session itself changes;
// a session change resets every cached projection wholesale so nothing
// leaks across sign-ins.
type Gate struct {
	provider     identity.Provider
	bootstrap    *identity.Bootstrap
	configs      ConfigFetcher
	notifier     Notifier
	theme        *ThemeHolder
	minSplash    time.Duration
	fetchTimeout time.Duration

	mu              sync.Mutex
	state           State
	authResolved    bool
	splashDone      bool
	sessionID       string
	signal          identity.ProfileSignal
	epoch           uint64
	config          *models.TenantConfig
	configRequested bool
	configFailed    bool
	shownNotices    map[string]bool
	notices         []Notice
	cancels         []func()
}

func New(provider identity.Provider, boot *identity.Bootstrap, configs ConfigFetcher, opts Options) *Gate {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	g := &Gate{
		provider:     provider,
		bootstrap:    boot,
		configs:      configs,
		notifier:     notifier,
		theme:        &ThemeHolder{},
		minSplash:    opts.MinSplash,
		fetchTimeout: 15 * time.Second,
		shownNotices: make(map[string]bool),
	}
	if g.minSplash <= 0 {
		g.splashDone = true
	}
	return g
}

// Start subscribes to session and profile notifications, arms the splash
// timer and evaluates whatever session is already present. The returned
// stop function tears the subscriptions down.
func (g *Gate) Start() (stop func()) {
	if g.minSplash > 0 {
		timer := time.AfterFunc(g.minSplash, func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.splashDone = true
			g.reevaluate()
		})
		g.cancels = append(g.cancels, func() { timer.Stop() })
	}

	cancelSession := g.provider.OnSessionChange(g.onSession)
	cancelProfile := g.bootstrap.OnChange(g.onProfile)
	g.cancels = append(g.cancels, cancelSession, cancelProfile)

	g.onSession(g.provider.CurrentSession())

	return func() {
		for _, c := range g.cancels {
			c()
		}
	}
}

// State returns the current verdict.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Config returns the loaded tenant configuration when the gate is Ready.
func (g *Gate) Config() (models.TenantConfig, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.config == nil {
		return models.TenantConfig{}, false
	}
	return *g.config, true
}

// Profile returns the complete profile backing the current session.
func (g *Gate) Profile() (models.UserProfile, bool) {
	return g.bootstrap.Profile()
}

// Theme returns the session-scoped theme, present only after Ready.
func (g *Gate) Theme() (Theme, bool) {
	return g.theme.Current()
}

// ReloadConfig drops the cached configuration and re-runs the fetch, used
// after a committed feature write so the dashboard reflects server truth.
func (g *Gate) ReloadConfig() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessionID == "" {
		return
	}
	g.config = nil
	g.configFailed = false
	g.configRequested = false
	delete(g.shownNotices, noticeConfigError)
	g.reevaluate()
}

func (g *Gate) onSession(s *models.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authResolved = true

	id := ""
	if s != nil {
		id = s.ID
	}
	if id != g.sessionID {
		// New principal (or sign-out): every per-session projection is
		// replaced, and in-flight work for the old session is fenced off
		// by the epoch bump.
		g.sessionID = id
		g.epoch++
		g.signal = identity.ProfileUnknown
		g.config = nil
		g.configRequested = false
		g.configFailed = false
		g.shownNotices = make(map[string]bool)
		g.theme.Clear()
	}
	// Provider subscribers are notified in no particular order: the
	// bootstrap may have fetched the profile for this session before the
	// gate heard about the session at all, and that push was dropped by the
	// stale-session guard. Pull its current verdict instead of waiting for
	// a re-delivery that will never come.
	if snapID, sig := g.bootstrap.Snapshot(); snapID == g.sessionID {
		g.signal = sig
	}
	g.reevaluate()
}

func (g *Gate) onProfile(sessionID string, sig identity.ProfileSignal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sessionID != g.sessionID {
		return
	}
	g.signal = sig
	g.reevaluate()
}

// reevaluate recomputes the state from current inputs. Identical inputs
// always land on the same state. Callers hold g.mu.
func (g *Gate) reevaluate() {
	switch {
	case !g.authResolved || !g.splashDone:
		g.setState(StateSplash)
	case g.sessionID == "":
		g.setState(StateLoginRequired)
	case g.signal == identity.ProfileUnknown:
		g.setState(StateSplash)
	case g.signal == identity.ProfileIncomplete:
		g.setState(StateRegistrationIncomplete)
		g.noticeOnce(noticeIncomplete, LevelError, "Account is incomplete. Please contact your admin.")
	case g.config != nil:
		g.setState(StateReady)
	case g.configFailed:
		g.setState(StateConfigError)
	default:
		if !g.configRequested {
			g.configRequested = true
			go g.fetchConfig(g.epoch)
		}
		g.setState(StateConfigLoading)
	}
}

func (g *Gate) fetchConfig(epoch uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), g.fetchTimeout)
	defer cancel()
	cfg, err := g.configs.Fetch(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if epoch != g.epoch {
		// The session changed while the fetch was in flight; this result
		// belongs to a principal we have already left behind.
		return
	}
	if err != nil {
		slog.Warn("tenant config fetch failed", "session_id", g.sessionID, "error", err)
		g.configFailed = true
		g.noticeOnce(noticeConfigError, LevelError, "Failed to load tenant config")
		g.reevaluate()
		return
	}
	g.config = &cfg
	g.theme.Apply(ThemeFromConfig(cfg))
	g.reevaluate()
}

func (g *Gate) setState(st State) {
	if st == g.state {
		return
	}
	slog.Debug("session gate transition", "from", g.state.String(), "to", st.String(), "session_id", g.sessionID)
	g.state = st
}
