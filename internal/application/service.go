// Package application implements the account domain operations: account
// creation, email verification, password reset and change, and
// soft-deletion with personal-data scrubbing.
//
// Every state-transition runs inside one store transaction. Notification
// emails are enqueued after the transaction commits: a delivery failure
// never rolls back committed data.
package application

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/config"
	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/pkg/helpers"
	"github.com/sharecycle/accounts/pkg/mailer"
)

var (
	ErrEmailRequired      = errors.New("the email field must be set")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
)

// IgnoreList is the bounce/ignore list maintained by the mail-provider
// webhook subsystem.
type IgnoreList interface {
	IgnoredAddresses(ctx context.Context) ([]string, error)
}

// PhotoStore holds account photos and their generated size renditions.
type PhotoStore interface {
	Store(ctx context.Context, accountID string, r io.Reader, filename, contentType string) (string, error)
	DeleteAll(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

// ProfileIndexer mirrors profiles into the search index.
type ProfileIndexer interface {
	Index(ctx context.Context, a *entity.Account) error
	Remove(ctx context.Context, accountID string) error
}

type Service struct {
	Store  repository.Store
	Ignore IgnoreList
	Photos PhotoStore
	Index  ProfileIndexer
	Outbox mailer.Outbox
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
	Cfg    *config.Config
}

func NewService(store repository.Store, ignore IgnoreList, photos PhotoStore, index ProfileIndexer, outbox mailer.Outbox, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		Store:  store,
		Ignore: ignore,
		Photos: photos,
		Index:  index,
		Outbox: outbox,
		JWT:    jwt,
		Redis:  rdb,
		Logger: logger,
		Cfg:    cfg,
	}
}

// normalizeEmail trims whitespace and lowercases the domain part. The
// local part keeps its case: similarly cased sign-ups are rejected at
// lookup time instead.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
	Language    string
	Inactive    bool
}

// CreateUser creates an account and triggers the welcome flow: a fresh
// EMAIL_VERIFICATION code and a verification email to the new address.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	// An empty password stays empty: the account then has no usable
	// password and cannot authenticate until a reset sets one.
	var hash string
	if in.Password != "" {
		var err error
		hash, err = helpers.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
	}

	lang := in.Language
	if lang == "" {
		lang = "en"
	}
	a := &entity.Account{
		Email:           email,
		UnverifiedEmail: email,
		PasswordHash:    hash,
		DisplayName:     in.DisplayName,
		Language:        lang,
		IsActive:        !in.Inactive,
	}

	var code *entity.VerificationCode
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		if err := tx.Accounts().Create(ctx, a); err != nil {
			return err
		}
		var err error
		code, err = s.unverifyMail(ctx, tx, a)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.sendMailVerification(ctx, a, code.Code)
	s.indexProfile(ctx, a)
	return a, nil
}

// CreateSuperuser creates an elevated account; the email doubles as the
// display name.
func (s *Service) CreateSuperuser(ctx context.Context, email, password string) (*entity.Account, error) {
	a, err := s.CreateUser(ctx, CreateUserInput{Email: email, Password: password, DisplayName: email})
	if err != nil {
		return nil, err
	}
	a.IsStaff = true
	a.IsSuperuser = true
	if err := s.Store.Accounts().Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByCanonicalKey is the case-insensitive natural-key lookup used for
// authentication. It assumes no two accounts share a case-folded email;
// the storage layer does not structurally guarantee that.
func (s *Service) GetByCanonicalKey(ctx context.Context, email string) (*entity.Account, error) {
	a, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// FindBySimilarEmail returns all accounts matching the email
// case-insensitively.
func (s *Service) FindBySimilarEmail(ctx context.Context, email string) ([]*entity.Account, error) {
	return s.Store.Accounts().FindBySimilarEmail(ctx, email)
}

// Active returns accounts that are neither deleted nor deactivated.
func (s *Service) Active(ctx context.Context) ([]*entity.Account, error) {
	return s.Store.Accounts().Active(ctx)
}

// UnverifiedOrIgnored returns accounts with unverified mail plus those
// whose address is on the provider bounce list.
func (s *Service) UnverifiedOrIgnored(ctx context.Context) ([]*entity.Account, error) {
	unverified, err := s.Store.Accounts().Unverified(ctx)
	if err != nil {
		return nil, err
	}

	ignored, err := s.Ignore.IgnoredAddresses(ctx)
	if err != nil {
		return nil, err
	}
	flagged, err := s.Store.Accounts().ByEmails(ctx, ignored)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(unverified))
	out := make([]*entity.Account, 0, len(unverified)+len(flagged))
	for _, a := range unverified {
		seen[a.ID] = true
		out = append(out, a)
	}
	for _, a := range flagged {
		if !seen[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetProfile loads an account by id.
func (s *Service) GetProfile(ctx context.Context, accountID string) (*entity.Account, error) {
	a, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) indexProfile(ctx context.Context, a *entity.Account) {
	if s.Index == nil {
		return
	}
	_ = s.Index.Index(ctx, a)
}

func (s *Service) logError(err error, msg string, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Error(msg)
}
