package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// TicketAuditRepository stores a trail of tickets opened through this service.
type TicketAuditRepository interface {
	Record(ctx context.Context, entry *domain.TicketAudit) error
	ListRecent(ctx context.Context, limit int) ([]domain.TicketAudit, error)
}

type ticketAuditRepository struct {
	pool *pgxpool.Pool
}

// NewTicketAuditRepository builds repository.
func NewTicketAuditRepository(pool *pgxpool.Pool) TicketAuditRepository {
	return &ticketAuditRepository{pool: pool}
}

// Record inserts the entry once; a redelivered event with the same id is ignored.
func (r *ticketAuditRepository) Record(ctx context.Context, entry *domain.TicketAudit) error {
	const query = `
        INSERT INTO ticket_audit (id, ticket_id, ticket_number, customer_id, customer_email, organization_id, group_id, article_type, created_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.TicketNumber,
		entry.CustomerID,
		entry.CustomerEmail,
		entry.OrganizationID,
		entry.GroupID,
		entry.ArticleType,
		entry.CreatedBy,
		entry.CreatedAt,
	)
	return err
}

func (r *ticketAuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.TicketAudit, error) {
	const query = `
        SELECT id, ticket_id, ticket_number, customer_id, customer_email, organization_id, group_id, article_type, created_by, created_at
        FROM ticket_audit ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAudit
	for rows.Next() {
		var entry domain.TicketAudit
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.TicketNumber,
			&entry.CustomerID,
			&entry.CustomerEmail,
			&entry.OrganizationID,
			&entry.GroupID,
			&entry.ArticleType,
			&entry.CreatedBy,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
