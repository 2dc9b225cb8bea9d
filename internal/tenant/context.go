package tenant

import (
	"context"

	"github.com/minttenant/tenantcore/internal/models"
)

// Context is the explicit tenant value threaded through every component
// and service call. Constructed once per browser session from the request
// host; nothing reads the tenant from process-global state.
type Context struct {
	ID string
}

// FromHost builds the tenant context for a request host.
func FromHost(host string) Context {
	return Context{ID: Resolve(host)}
}

type ctxKey string

const (
	tenantKey  ctxKey = "tenant"
	sessionKey ctxKey = "session"
)

func With(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, tenantKey, tc)
}

func FromContext(ctx context.Context) Context {
	tc, _ := ctx.Value(tenantKey).(Context)
	return tc
}

func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}
