package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
)

const accountColumns = `
	id, email, unverified_email, mail_verified, password_hash,
	display_name, description, language, mobile_number,
	address, latitude, longitude,
	is_active, is_staff, is_superuser,
	deleted, deleted_at, current_group_id, photo_path,
	created_at, updated_at`

type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (
			email, unverified_email, mail_verified, password_hash,
			display_name, description, language, mobile_number,
			address, latitude, longitude,
			is_active, is_staff, is_superuser, current_group_id, photo_path
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULLIF($15, ''), $16)
		RETURNING id, created_at, updated_at
	`,
		nullIfEmpty(a.Email), nullIfEmpty(a.UnverifiedEmail), a.MailVerified, a.PasswordHash,
		a.DisplayName, a.Description, a.Language, a.MobileNumber,
		a.Address, a.Latitude, a.Longitude,
		a.IsActive, a.IsStaff, a.IsSuperuser, a.CurrentGroupID, a.PhotoPath)

	return row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.one(ctx, `SELECT`+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.one(ctx, `SELECT`+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *AccountRepository) FindBySimilarEmail(ctx context.Context, email string) ([]*entity.Account, error) {
	return r.many(ctx, `SELECT`+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *AccountRepository) Active(ctx context.Context) ([]*entity.Account, error) {
	return r.many(ctx, `SELECT`+accountColumns+` FROM accounts WHERE deleted = FALSE AND is_active = TRUE`)
}

func (r *AccountRepository) Unverified(ctx context.Context) ([]*entity.Account, error) {
	return r.many(ctx, `SELECT`+accountColumns+` FROM accounts WHERE mail_verified = FALSE`)
}

func (r *AccountRepository) ByEmails(ctx context.Context, emails []string) ([]*entity.Account, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	return r.many(ctx, `SELECT`+accountColumns+` FROM accounts WHERE email = ANY($1)`, emails)
}

func (r *AccountRepository) Update(ctx context.Context, a *entity.Account) error {
	a.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET email = $1, unverified_email = $2, mail_verified = $3, password_hash = $4,
		    display_name = $5, description = $6, language = $7, mobile_number = $8,
		    address = $9, latitude = $10, longitude = $11,
		    is_active = $12, is_staff = $13, is_superuser = $14,
		    deleted = $15, deleted_at = $16, current_group_id = NULLIF($17, ''), photo_path = $18,
		    updated_at = $19
		WHERE id = $20
	`,
		nullIfEmpty(a.Email), nullIfEmpty(a.UnverifiedEmail), a.MailVerified, a.PasswordHash,
		a.DisplayName, a.Description, a.Language, a.MobileNumber,
		a.Address, a.Latitude, a.Longitude,
		a.IsActive, a.IsStaff, a.IsSuperuser,
		a.Deleted, a.DeletedAt, a.CurrentGroupID, a.PhotoPath,
		a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) one(ctx context.Context, query string, args ...any) (*entity.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AccountRepository) many(ctx context.Context, query string, args ...any) ([]*entity.Account, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	var email, unverifiedEmail, currentGroupID, photoPath *string
	err := row.Scan(
		&a.ID, &email, &unverifiedEmail, &a.MailVerified, &a.PasswordHash,
		&a.DisplayName, &a.Description, &a.Language, &a.MobileNumber,
		&a.Address, &a.Latitude, &a.Longitude,
		&a.IsActive, &a.IsStaff, &a.IsSuperuser,
		&a.Deleted, &a.DeletedAt, &currentGroupID, &photoPath,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Email = deref(email)
	a.UnverifiedEmail = deref(unverifiedEmail)
	a.CurrentGroupID = deref(currentGroupID)
	a.PhotoPath = deref(photoPath)
	return a, nil
}

// nullIfEmpty maps the entity's empty-string convention onto the
// nullable email columns, so the partial unique index on email ignores
// scrubbed accounts.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
