package profile

import (
	"context"
	"fmt"

	"github.com/minttenant/tenantcore/internal/gateway"
	"github.com/minttenant/tenantcore/internal/models"
)

// Service reads the authenticated user's profile from the backend profile
// endpoint, used by dashboard headers.
type Service struct {
	gw *gateway.Client
}

func NewService(gw *gateway.Client) *Service {
	return &Service{gw: gw}
}

func (s *Service) Me(ctx context.Context) (models.UserProfile, error) {
	var p models.UserProfile
	if err := s.gw.Get(ctx, "auth/me", &p); err != nil {
		return models.UserProfile{}, fmt.Errorf("fetch current user: %w", err)
	}
	return p, nil
}
