package repository

import "context"

// RepoSet bundles the repositories that participate in account
// transactions, all bound to the same database handle.
type RepoSet interface {
	Accounts() AccountRepository
	Codes() VerificationCodeRepository
	Groups() GroupRepository
}

// Store is the unit-of-work entry point. Repositories obtained from the
// Store directly run in auto-commit mode; InTx binds a RepoSet to one
// transaction so that either all row mutations commit or none do.
type Store interface {
	RepoSet
	InTx(ctx context.Context, fn func(ctx context.Context, tx RepoSet) error) error
}
