package postgres

import (
	"context"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
)

type GroupRepository struct {
	db DB
}

func NewGroupRepository(db DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) FindGroupsContaining(ctx context.Context, accountID string) ([]*entity.Group, error) {
	rows, err := r.db.Query(ctx, `
		SELECT g.id, g.name, g.created_at
		FROM groups g
		JOIN group_memberships m ON m.group_id = g.id
		WHERE m.account_id = $1
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Group
	for rows.Next() {
		g := &entity.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GroupRepository) RemoveMembership(ctx context.Context, groupID, accountID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM group_memberships
		WHERE group_id = $1 AND account_id = $2
	`, groupID, accountID)
	return err
}

func (r *GroupRepository) MembershipCount(ctx context.Context, groupID, accountID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM group_memberships
		WHERE group_id = $1 AND account_id = $2
	`, groupID, accountID).Scan(&n)
	return n, err
}

var _ repository.GroupRepository = (*GroupRepository)(nil)
