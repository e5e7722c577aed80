package entity

import "time"

// CodePurpose identifies what a verification code is good for. Purposes
// are mutually independent per account: issuing a new PASSWORD_RESET
// code leaves a pending EMAIL_VERIFICATION code alone.
type CodePurpose string

const (
	EmailVerification CodePurpose = "EMAIL_VERIFICATION"
	AccountDelete     CodePurpose = "ACCOUNT_DELETE"
	PasswordReset     CodePurpose = "PASSWORD_RESET"
)

// VerificationCode is a single-use token tied to an account and a
// purpose. At most one code per (account, purpose) is active; reissuing
// replaces the previous one.
type VerificationCode struct {
	ID        string
	AccountID string
	Purpose   CodePurpose
	Code      string
	CreatedAt time.Time
}
