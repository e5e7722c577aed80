package repository

import (
	"context"

	"github.com/sharecycle/accounts/internal/domain/entity"
)

// AccountRepository defines the account persistence operations.
//
// Case-insensitive lookups are performed at query time; the storage
// layer only enforces exact-case uniqueness on email. A case-folded
// collision ("a@x.com" vs "A@x.com") is therefore not prevented at
// write time.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	// GetByEmail is the case-insensitive natural-key lookup used for
	// authentication. Returns ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	// FindBySimilarEmail is a case-insensitive exact match returning
	// zero or more accounts.
	FindBySimilarEmail(ctx context.Context, email string) ([]*entity.Account, error)
	// Active returns accounts with deleted=false and is_active=true.
	Active(ctx context.Context) ([]*entity.Account, error)
	// Unverified returns accounts with mail_verified=false.
	Unverified(ctx context.Context) ([]*entity.Account, error)
	// ByEmails returns accounts whose canonical email is in the given
	// set (exact match).
	ByEmails(ctx context.Context, emails []string) ([]*entity.Account, error)
	Update(ctx context.Context, a *entity.Account) error
}
