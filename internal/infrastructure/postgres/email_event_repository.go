package postgres

import (
	"context"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
)

type EmailEventRepository struct {
	db DB
}

func NewEmailEventRepository(db DB) *EmailEventRepository {
	return &EmailEventRepository{db: db}
}

func (r *EmailEventRepository) Record(ctx context.Context, ev *entity.EmailEvent) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO email_events (address, event, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, ev.Address, ev.Event, ev.Payload)
	return row.Scan(&ev.ID, &ev.CreatedAt)
}

func (r *EmailEventRepository) IgnoredAddresses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT address FROM email_events
		WHERE event = ANY($1)
	`, entity.IgnoreEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

var _ repository.EmailEventRepository = (*EmailEventRepository)(nil)
