package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minttenant/tenantcore/internal/models"
)

// GetUserProfile loads the provisioning record for a session identifier.
// Returns ErrNotFound when no profile exists.
func GetUserProfile(ctx context.Context, s Store, sessionID string) (models.UserProfile, error) {
	raw, err := s.GetDocument(ctx, CollectionUsers, sessionID)
	if err != nil {
		return models.UserProfile{}, err
	}
	var p models.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.UserProfile{}, fmt.Errorf("decode user profile %s: %w", sessionID, err)
	}
	return p, nil
}

// PutUserProfile writes the full provisioning record for a session
// identifier, replacing any prior value.
func PutUserProfile(ctx context.Context, s Store, sessionID string, p models.UserProfile) error {
	if err := s.SetDocument(ctx, CollectionUsers, sessionID, p); err != nil {
		return fmt.Errorf("store user profile %s: %w", sessionID, err)
	}
	return nil
}
