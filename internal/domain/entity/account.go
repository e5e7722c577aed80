package entity

import (
	"time"
)

// MaxDisplayNameLength caps the display name at the same length the
// sign-up form enforces.
const MaxDisplayNameLength = 80

// Account is the aggregate root for the user-account domain.
// Passwords are stored as bcrypt hashes in PasswordHash; an empty hash
// means the password is unusable (scrubbed accounts).
//
// Email is the confirmed, canonical address. UnverifiedEmail holds a
// pending address until it is confirmed and promoted. Both may be empty
// for deleted accounts.
type Account struct {
	ID string

	Email           string
	UnverifiedEmail string
	MailVerified    bool

	PasswordHash string
	DisplayName  string
	Description  string
	Language     string
	MobileNumber string

	// Location
	Address   string
	Latitude  *float64
	Longitude *float64

	IsActive    bool
	IsStaff     bool
	IsSuperuser bool

	// Tombstone state. Deleted accounts keep their row so historic
	// references (pickups, messages) stay intact, but all personal
	// fields are scrubbed. DeletedAt is set exactly once.
	Deleted   bool
	DeletedAt *time.Time

	CurrentGroupID string

	// PhotoPath is the object path of the original photo in the image
	// store; renditions live under a derived prefix.
	PhotoPath string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasUsablePassword reports whether the account can authenticate with a
// password at all.
func (a *Account) HasUsablePassword() bool {
	return a.PasswordHash != ""
}

// HasPerm resolves object permissions. Temporarily only admins have
// access; there is no role model yet.
func (a *Account) HasPerm(perm string) bool {
	return a.IsSuperuser
}

// HasModulePerms resolves module-level permissions the same way as
// HasPerm.
func (a *Account) HasModulePerms(module string) bool {
	return a.IsSuperuser
}
