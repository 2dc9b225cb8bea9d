package identity

import (
	"context"
	"errors"

	"github.com/minttenant/tenantcore/internal/models"
)

var ErrNoSession = errors.New("no active session")

// Provider is the identity provider boundary. Implementations own the
// credential lifecycle; callers only ever see the opaque bearer token
// through Token.
//
// Callbacks registered with OnSessionChange and OnTokenChange run
// synchronously on the notifying goroutine and must not block. Both return
// a cancel handle that removes the subscription.
type Provider interface {
	// CurrentSession returns the signed-in principal, or nil.
	CurrentSession() *models.Session
	// OnSessionChange fires on sign-in and sign-out transitions; the
	// callback receives nil on sign-out.
	OnSessionChange(cb func(*models.Session)) (cancel func())
	// OnTokenChange fires whenever a credential is issued or refreshed.
	OnTokenChange(cb func(*models.Session)) (cancel func())
	// Token returns a bearer credential for the current session, refreshing
	// it first when force is set or the cached one is near expiry.
	Token(ctx context.Context, force bool) (string, error)

	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUpWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	// SignInWithSocialProvider exchanges an assertion minted by the named
	// social provider for a first-party session.
	SignInWithSocialProvider(ctx context.Context, provider, assertion string) (*models.Session, error)
	SignOut(ctx context.Context) error
}
