package repository

import (
	"context"

	"github.com/sharecycle/accounts/internal/domain/entity"
)

// EmailEventRepository records delivery events from the mail provider
// and exposes the resulting bounce/ignore list.
type EmailEventRepository interface {
	Record(ctx context.Context, ev *entity.EmailEvent) error
	// IgnoredAddresses returns the distinct addresses that had a
	// bounce-class event and should be treated as unverified.
	IgnoredAddresses(ctx context.Context) ([]string, error)
}
