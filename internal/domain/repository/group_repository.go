package repository

import (
	"context"

	"github.com/sharecycle/accounts/internal/domain/entity"
)

// GroupRepository is the narrow slice of the group store the deletion
// cascade needs.
type GroupRepository interface {
	FindGroupsContaining(ctx context.Context, accountID string) ([]*entity.Group, error)
	RemoveMembership(ctx context.Context, groupID, accountID string) error
	// MembershipCount counts an account's memberships in one group.
	MembershipCount(ctx context.Context, groupID, accountID string) (int, error)
}
