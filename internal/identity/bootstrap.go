package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minttenant/tenantcore/internal/docstore"
	"github.com/minttenant/tenantcore/internal/models"
)

// ProfileSignal is the tri-state completeness verdict over the stored user
// profile. A fetch failure collapses into ProfileIncomplete: the routing
// layer treats both the same, only the log distinguishes them.
type ProfileSignal int

const (
	ProfileUnknown ProfileSignal = iota
	ProfileComplete
	ProfileIncomplete
)

func (s ProfileSignal) String() string {
	switch s {
	case ProfileComplete:
		return "complete"
	case ProfileIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// Bootstrap observes identity provider notifications for one browser
// session: it eagerly refreshes the credential on token change and fetches
// the user profile from the document store exactly once per session
// transition. Refresh failures are logged and never block anything.
type Bootstrap struct {
	provider     Provider
	store        docstore.Store
	fetchTimeout time.Duration

	refreshing atomic.Bool

	mu        sync.Mutex
	sessionID string
	signal    ProfileSignal
	profile   *models.UserProfile
	fetchGen  uint64
	nextSub   int
	subs      map[int]func(sessionID string, sig ProfileSignal)
}

func NewBootstrap(p Provider, store docstore.Store) *Bootstrap {
	return &Bootstrap{
		provider:     p,
		store:        store,
		fetchTimeout: 10 * time.Second,
		subs:         make(map[int]func(string, ProfileSignal)),
	}
}

// Start subscribes to provider notifications and evaluates the session
// already present, if any. The returned stop function tears down the
// subscriptions.
func (b *Bootstrap) Start() (stop func()) {
	cancelToken := b.provider.OnTokenChange(b.onTokenChange)
	cancelSession := b.provider.OnSessionChange(b.onSessionChange)
	b.onSessionChange(b.provider.CurrentSession())
	return func() {
		cancelToken()
		cancelSession()
	}
}

// Signal returns the current completeness verdict.
func (b *Bootstrap) Signal() ProfileSignal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signal
}

// Snapshot returns the tracked session and its completeness verdict as one
// consistent pair, for listeners that subscribe or hear about a session
// after the profile fetch already finished.
func (b *Bootstrap) Snapshot() (sessionID string, sig ProfileSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionID, b.signal
}

// Profile returns the fetched profile when the signal is complete.
func (b *Bootstrap) Profile() (models.UserProfile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.profile == nil {
		return models.UserProfile{}, false
	}
	return *b.profile, true
}

// OnChange registers cb for completeness transitions. The session
// identifier lets listeners discard signals for a session they have
// already left behind.
func (b *Bootstrap) OnChange(cb func(sessionID string, sig ProfileSignal)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = cb
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Refresh re-runs the profile fetch for the current session. Used after
// the registering client writes the provisioning record, so completeness
// is re-evaluated without waiting for a session transition.
func (b *Bootstrap) Refresh() {
	b.mu.Lock()
	id := b.sessionID
	if id == "" {
		b.mu.Unlock()
		return
	}
	b.signal = ProfileUnknown
	b.profile = nil
	b.fetchGen++
	gen := b.fetchGen
	subs := b.collectSubs()
	b.mu.Unlock()
	for _, cb := range subs {
		cb(id, ProfileUnknown)
	}
	go b.fetchProfile(id, gen)
}

func (b *Bootstrap) onTokenChange(s *models.Session) {
	if s == nil {
		return
	}
	// The forced refresh itself raises a token-change notification; the
	// in-flight flag keeps that from cascading into another refresh.
	if !b.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer b.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), b.fetchTimeout)
		defer cancel()
		if _, err := b.provider.Token(ctx, true); err != nil {
			slog.Warn("eager credential refresh failed", "session_id", s.ID, "error", err)
		}
	}()
}

func (b *Bootstrap) onSessionChange(s *models.Session) {
	b.mu.Lock()
	if s == nil {
		if b.sessionID == "" {
			b.mu.Unlock()
			return
		}
		b.sessionID = ""
		b.signal = ProfileUnknown
		b.profile = nil
		subs := b.collectSubs()
		b.mu.Unlock()
		for _, cb := range subs {
			cb("", ProfileUnknown)
		}
		return
	}
	if s.ID == b.sessionID {
		// One profile fetch per session transition, never per notification.
		b.mu.Unlock()
		return
	}
	b.sessionID = s.ID
	b.signal = ProfileUnknown
	b.profile = nil
	b.fetchGen++
	gen := b.fetchGen
	subs := b.collectSubs()
	b.mu.Unlock()
	for _, cb := range subs {
		cb(s.ID, ProfileUnknown)
	}
	go b.fetchProfile(s.ID, gen)
}

func (b *Bootstrap) fetchProfile(sessionID string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), b.fetchTimeout)
	defer cancel()
	profile, err := docstore.GetUserProfile(ctx, b.store, sessionID)

	sig := ProfileIncomplete
	var keep *models.UserProfile
	switch {
	case err == nil && profile.Complete():
		sig = ProfileComplete
		keep = &profile
	case err == nil:
		slog.Info("user profile incomplete", "session_id", sessionID, "has_role", profile.Role != "", "has_tenant", profile.Tenant != "")
	case errors.Is(err, docstore.ErrNotFound):
		slog.Info("user profile missing", "session_id", sessionID)
	default:
		// Transient store failure: fold into the most conservative verdict.
		slog.Warn("user profile fetch failed", "session_id", sessionID, "error", err)
	}

	b.mu.Lock()
	if b.sessionID != sessionID || b.fetchGen != gen {
		// A later session or refresh superseded this fetch; its result must
		// not land.
		b.mu.Unlock()
		return
	}
	b.signal = sig
	b.profile = keep
	subs := b.collectSubs()
	b.mu.Unlock()
	for _, cb := range subs {
		cb(sessionID, sig)
	}
}

func (b *Bootstrap) collectSubs() []func(string, ProfileSignal) {
	out := make([]func(string, ProfileSignal), 0, len(b.subs))
	for _, cb := range b.subs {
		out = append(out, cb)
	}
	return out
}
