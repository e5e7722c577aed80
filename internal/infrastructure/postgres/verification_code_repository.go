package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/pkg/helpers"
)

type VerificationCodeRepository struct {
	db DB
}

func NewVerificationCodeRepository(db DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: db}
}

func (r *VerificationCodeRepository) Create(ctx context.Context, accountID string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	code, err := helpers.GenVerificationCode()
	if err != nil {
		return nil, err
	}
	vc := &entity.VerificationCode{AccountID: accountID, Purpose: purpose, Code: code}
	row := r.db.QueryRow(ctx, `
		INSERT INTO verification_codes (account_id, purpose, code)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, accountID, purpose, code)
	if err := row.Scan(&vc.ID, &vc.CreatedAt); err != nil {
		return nil, err
	}
	return vc, nil
}

func (r *VerificationCodeRepository) Get(ctx context.Context, accountID string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	return r.one(ctx, `
		SELECT id, account_id, purpose, code, created_at
		FROM verification_codes
		WHERE account_id = $1 AND purpose = $2
	`, accountID, purpose)
}

func (r *VerificationCodeRepository) GetByCode(ctx context.Context, code string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	return r.one(ctx, `
		SELECT id, account_id, purpose, code, created_at
		FROM verification_codes
		WHERE code = $1 AND purpose = $2
	`, code, purpose)
}

func (r *VerificationCodeRepository) DeleteAll(ctx context.Context, accountID string, purpose entity.CodePurpose) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM verification_codes
		WHERE account_id = $1 AND purpose = $2
	`, accountID, purpose)
	return err
}

func (r *VerificationCodeRepository) one(ctx context.Context, query string, args ...any) (*entity.VerificationCode, error) {
	vc := &entity.VerificationCode{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&vc.ID, &vc.AccountID, &vc.Purpose, &vc.Code, &vc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return vc, nil
}

var _ repository.VerificationCodeRepository = (*VerificationCodeRepository)(nil)
