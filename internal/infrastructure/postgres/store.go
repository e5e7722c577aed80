package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharecycle/accounts/internal/domain/repository"
)

// Store implements repository.Store on a pgx pool. Repositories asked
// for outside InTx run in auto-commit mode; inside InTx they share one
// transaction.
type Store struct {
	pool *pgxpool.Pool
	repoSet
}

type repoSet struct {
	accounts *AccountRepository
	codes    *VerificationCodeRepository
	groups   *GroupRepository
}

func (s repoSet) Accounts() repository.AccountRepository       { return s.accounts }
func (s repoSet) Codes() repository.VerificationCodeRepository { return s.codes }
func (s repoSet) Groups() repository.GroupRepository           { return s.groups }

func newRepoSet(db DB) repoSet {
	return repoSet{
		accounts: NewAccountRepository(db),
		codes:    NewVerificationCodeRepository(db),
		groups:   NewGroupRepository(db),
	}
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, repoSet: newRepoSet(pool)}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.RepoSet) error) error {
	return WithTx(ctx, s.pool, func(ctx context.Context, tx DB) error {
		return fn(ctx, newRepoSet(tx))
	})
}

var _ repository.Store = (*Store)(nil)
