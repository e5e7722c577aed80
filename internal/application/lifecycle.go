package application

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/pkg/helpers"
)

// RequestMeta carries request context (for security notices in emails).
// The zero value is valid and simply omits the details.
type RequestMeta struct {
	IP        string
	UserAgent string
	At        time.Time
}

// unverifyMail replaces the pending EMAIL_VERIFICATION code and marks
// the mail unverified. Runs inside the caller's transaction.
func (s *Service) unverifyMail(ctx context.Context, tx repository.RepoSet, a *entity.Account) (*entity.VerificationCode, error) {
	if err := tx.Codes().DeleteAll(ctx, a.ID, entity.EmailVerification); err != nil {
		return nil, err
	}
	code, err := tx.Codes().Create(ctx, a.ID, entity.EmailVerification)
	if err != nil {
		return nil, err
	}
	a.MailVerified = false
	if err := tx.Accounts().Update(ctx, a); err != nil {
		return nil, err
	}
	return code, nil
}

// VerifyEmail consumes the pending EMAIL_VERIFICATION code, promotes
// the unverified email to canonical, and marks the mail verified.
// Fails with repository.ErrNotFound when no code is pending.
func (s *Service) VerifyEmail(ctx context.Context, accountID string) (*entity.Account, error) {
	var a *entity.Account
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		var err error
		a, err = tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if _, err := tx.Codes().Get(ctx, a.ID, entity.EmailVerification); err != nil {
			return err
		}
		if err := tx.Codes().DeleteAll(ctx, a.ID, entity.EmailVerification); err != nil {
			return err
		}
		a.Email = a.UnverifiedEmail
		a.MailVerified = true
		return tx.Accounts().Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	s.indexProfile(ctx, a)
	return a, nil
}

// ConfirmEmail resolves a raw verification code from the public confirm
// endpoint and verifies the owning account's email.
func (s *Service) ConfirmEmail(ctx context.Context, code string) (*entity.Account, error) {
	vc, err := s.Store.Codes().GetByCode(ctx, code, entity.EmailVerification)
	if err != nil {
		return nil, err
	}
	return s.VerifyEmail(ctx, vc.AccountID)
}

// UpdateEmail stages a new address for verification. The old canonical
// address gets a change notice; the new one gets a verification code.
func (s *Service) UpdateEmail(ctx context.Context, accountID, newEmail string) (*entity.Account, error) {
	newEmail = normalizeEmail(newEmail)
	if newEmail == "" {
		return nil, ErrEmailRequired
	}

	var (
		a        *entity.Account
		oldEmail string
		code     *entity.VerificationCode
	)
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		var err error
		a, err = tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		oldEmail = a.Email
		a.UnverifiedEmail = newEmail
		code, err = s.unverifyMail(ctx, tx, a)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.sendChangeMailNotice(ctx, a, oldEmail, newEmail)
	s.sendMailVerification(ctx, a, code.Code)
	return a, nil
}

// RestoreEmail cancels a pending email change: the pending code is
// dropped and the canonical address becomes the unverified slot again.
func (s *Service) RestoreEmail(ctx context.Context, accountID string) (*entity.Account, error) {
	var a *entity.Account
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		var err error
		a, err = tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if err := tx.Codes().DeleteAll(ctx, a.ID, entity.EmailVerification); err != nil {
			return err
		}
		a.UnverifiedEmail = a.Email
		a.MailVerified = true
		return tx.Accounts().Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ResendMailVerification reissues the pending code and re-sends the
// verification email to the unverified address.
func (s *Service) ResendMailVerification(ctx context.Context, accountID string) error {
	var (
		a    *entity.Account
		code *entity.VerificationCode
	)
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		var err error
		a, err = tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		code, err = s.unverifyMail(ctx, tx, a)
		return err
	})
	if err != nil {
		return err
	}
	s.sendMailVerification(ctx, a, code.Code)
	return nil
}

// UpdateLanguage sets the account's language tag.
func (s *Service) UpdateLanguage(ctx context.Context, accountID, language string) (*entity.Account, error) {
	a, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	a.Language = language
	if err := s.Store.Accounts().Update(ctx, a); err != nil {
		return nil, err
	}
	s.indexProfile(ctx, a)
	return a, nil
}

// SendAccountDeletionCode replaces any prior ACCOUNT_DELETE code and
// mails a deep link embedding the fresh one.
func (s *Service) SendAccountDeletionCode(ctx context.Context, accountID string) error {
	var (
		a    *entity.Account
		code *entity.VerificationCode
	)
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		var err error
		a, err = tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if err := tx.Codes().DeleteAll(ctx, a.ID, entity.AccountDelete); err != nil {
			return err
		}
		code, err = tx.Codes().Create(ctx, a.ID, entity.AccountDelete)
		return err
	})
	if err != nil {
		return err
	}
	s.sendAccountDeleteRequest(ctx, a, code.Code)
	return nil
}

// ResetPassword replaces any prior PASSWORD_RESET code and mails a deep
// link embedding the fresh one.
func (s *Service) ResetPassword(ctx context.Context, accountID string, meta RequestMeta) error {
	var (
		a    *entity.Account
		code *entity.VerificationCode
	)
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		var err error
		a, err = tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if err := tx.Codes().DeleteAll(ctx, a.ID, entity.PasswordReset); err != nil {
			return err
		}
		code, err = tx.Codes().Create(ctx, a.ID, entity.PasswordReset)
		return err
	})
	if err != nil {
		return err
	}
	s.sendPasswordReset(ctx, a, code.Code, meta)
	return nil
}

// RequestPasswordReset is the email-address entry point used by the
// public endpoint.
func (s *Service) RequestPasswordReset(ctx context.Context, email string, meta RequestMeta) error {
	a, err := s.GetByCanonicalKey(ctx, email)
	if err != nil {
		return err
	}
	return s.ResetPassword(ctx, a.ID, meta)
}

// ChangePassword stores a new credential hash, drops any pending
// PASSWORD_RESET code, and sends a confirmation email.
func (s *Service) ChangePassword(ctx context.Context, accountID, newPassword string, meta RequestMeta) error {
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}

	var a *entity.Account
	err = s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		var err error
		a, err = tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		a.PasswordHash = hash
		if err := tx.Accounts().Update(ctx, a); err != nil {
			return err
		}
		return tx.Codes().DeleteAll(ctx, a.ID, entity.PasswordReset)
	})
	if err != nil {
		return err
	}
	s.sendPasswordChange(ctx, a, meta)
	return nil
}

// ConfirmPasswordReset resolves a PASSWORD_RESET code and sets the new
// password for the owning account.
func (s *Service) ConfirmPasswordReset(ctx context.Context, code, newPassword string, meta RequestMeta) error {
	vc, err := s.Store.Codes().GetByCode(ctx, code, entity.PasswordReset)
	if err != nil {
		return err
	}
	return s.ChangePassword(ctx, vc.AccountID, newPassword, meta)
}

// Delete tombstones the account: memberships removed, personal fields
// scrubbed, photo and search document dropped. The row itself stays so
// historic references remain valid. deleted_at is set exactly once.
func (s *Service) Delete(ctx context.Context, accountID string) error {
	var (
		a         *entity.Account
		recipient string
		photoPath string
	)
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repository.RepoSet) error {
		var err error
		a, err = tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		groups, err := tx.Groups().FindGroupsContaining(ctx, a.ID)
		if err != nil {
			return err
		}
		for _, g := range groups {
			if err := tx.Groups().RemoveMembership(ctx, g.ID, a.ID); err != nil {
				return err
			}
		}

		for _, purpose := range []entity.CodePurpose{entity.EmailVerification, entity.AccountDelete, entity.PasswordReset} {
			if err := tx.Codes().DeleteAll(ctx, a.ID, purpose); err != nil {
				return err
			}
		}

		recipient = a.Email
		photoPath = a.PhotoPath

		a.Description = ""
		a.PasswordHash = ""
		a.Email = ""
		a.UnverifiedEmail = ""
		a.MailVerified = false
		a.IsActive = false
		a.IsStaff = false
		a.CurrentGroupID = ""
		a.PhotoPath = ""
		a.Deleted = true
		if a.DeletedAt == nil {
			now := time.Now()
			a.DeletedAt = &now
		}
		return tx.Accounts().Update(ctx, a)
	})
	if err != nil {
		return err
	}

	if photoPath != "" && s.Photos != nil {
		if err := s.Photos.DeleteAll(ctx, photoPath); err != nil {
			s.logError(err, "photo deletion failed during account delete", logrus.Fields{"account_id": a.ID})
		}
	}
	if s.Index != nil {
		_ = s.Index.Remove(ctx, a.ID)
	}
	s.sendAccountDeleteSuccess(ctx, a, recipient)
	return nil
}

// ConfirmDeletion resolves an ACCOUNT_DELETE code and deletes the
// owning account.
func (s *Service) ConfirmDeletion(ctx context.Context, code string) error {
	vc, err := s.Store.Codes().GetByCode(ctx, code, entity.AccountDelete)
	if err != nil {
		return err
	}
	return s.Delete(ctx, vc.AccountID)
}

type UpdateProfileInput struct {
	DisplayName    string
	Description    *string
	MobileNumber   *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	CurrentGroupID *string
}

// UpdateProfile applies the non-nil profile fields.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, in UpdateProfileInput) (*entity.Account, error) {
	a, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if in.DisplayName != "" {
		name := in.DisplayName
		if len(name) > entity.MaxDisplayNameLength {
			name = name[:entity.MaxDisplayNameLength]
		}
		a.DisplayName = name
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.MobileNumber != nil {
		a.MobileNumber = *in.MobileNumber
	}
	if in.Address != nil {
		a.Address = *in.Address
	}
	if in.Latitude != nil {
		a.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		a.Longitude = in.Longitude
	}
	if in.CurrentGroupID != nil {
		a.CurrentGroupID = *in.CurrentGroupID
	}
	if err := s.Store.Accounts().Update(ctx, a); err != nil {
		return nil, err
	}
	s.indexProfile(ctx, a)
	return a, nil
}

// UploadPhoto stores a new photo, replacing and deleting the previous
// one with its renditions.
func (s *Service) UploadPhoto(ctx context.Context, accountID string, r io.Reader, filename, contentType string) (string, error) {
	a, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return "", err
	}

	oldPath := a.PhotoPath
	objectPath, err := s.Photos.Store(ctx, accountID, r, filename, contentType)
	if err != nil {
		return "", err
	}
	a.PhotoPath = objectPath
	if err := s.Store.Accounts().Update(ctx, a); err != nil {
		return "", err
	}

	if oldPath != "" {
		if err := s.Photos.DeleteAll(ctx, oldPath); err != nil {
			s.logError(err, "old photo deletion failed", logrus.Fields{"account_id": a.ID})
		}
	}
	s.indexProfile(ctx, a)
	return s.Photos.PublicURL(objectPath), nil
}

// DeletePhoto removes the photo original and all renditions.
func (s *Service) DeletePhoto(ctx context.Context, accountID string) error {
	a, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return err
	}
	if a.PhotoPath == "" {
		return nil
	}
	if err := s.Photos.DeleteAll(ctx, a.PhotoPath); err != nil {
		return err
	}
	a.PhotoPath = ""
	if err := s.Store.Accounts().Update(ctx, a); err != nil {
		return err
	}
	s.indexProfile(ctx, a)
	return nil
}
