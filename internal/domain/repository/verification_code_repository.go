package repository

import (
	"context"

	"github.com/sharecycle/accounts/internal/domain/entity"
)

// VerificationCodeRepository is the code issuer contract. Codes are
// single-purpose and single-active-per-purpose: callers delete existing
// codes of a purpose before creating a new one, inside the same
// transaction.
type VerificationCodeRepository interface {
	Create(ctx context.Context, accountID string, purpose entity.CodePurpose) (*entity.VerificationCode, error)
	// Get returns the pending code for (account, purpose) or
	// ErrNotFound.
	Get(ctx context.Context, accountID string, purpose entity.CodePurpose) (*entity.VerificationCode, error)
	// GetByCode resolves a raw code of the given purpose, used by the
	// public confirm endpoints. Returns ErrNotFound if absent.
	GetByCode(ctx context.Context, code string, purpose entity.CodePurpose) (*entity.VerificationCode, error)
	DeleteAll(ctx context.Context, accountID string, purpose entity.CodePurpose) error
}
