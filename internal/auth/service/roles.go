package service

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/tokengate/internal/auth/domain"
	"github.com/aussiebroadwan/tokengate/internal/auth/store"
)

type RolesService struct {
	Store store.Store
}

var _ RoleLookup = (*RolesService)(nil)

// RolesFor returns the role names currently granted to the user with userID.
// A username that no longer matches that id is treated as a missing user.
func (s *RolesService) RolesFor(ctx context.Context, userID int64, username string) ([]string, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Username != username {
		return nil, fmt.Errorf("user %d is now %q: %w", userID, u.Username, store.ErrNotFound)
	}
	return u.Roles, nil
}

// ListAll returns all roles in the system.
func (s *RolesService) ListAll(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}
