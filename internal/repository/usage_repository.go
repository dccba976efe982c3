package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-assistant/internal/domain"
)

// UsageRepository stores generative-text consumption.
type UsageRepository interface {
	Record(ctx context.Context, record *domain.UsageRecord) error
	Totals(ctx context.Context) ([]domain.UsageTotals, error)
}

type usageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository builds repository.
func NewUsageRepository(pool *pgxpool.Pool) UsageRepository {
	return &usageRepository{pool: pool}
}

func (r *usageRepository) Record(ctx context.Context, record *domain.UsageRecord) error {
	const query = `
        INSERT INTO completion_usage (id, operation, model, input_tokens, output_tokens, total_tokens, cost, currency, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.Operation,
		record.Model,
		record.Usage.InputTokens,
		record.Usage.OutputTokens,
		record.Usage.TotalTokens,
		record.Usage.Cost,
		record.Usage.Currency,
		record.CreatedAt,
	)
	return err
}

func (r *usageRepository) Totals(ctx context.Context) ([]domain.UsageTotals, error) {
	const query = `
        SELECT model, COUNT(*), COALESCE(SUM(input_tokens),0), COALESCE(SUM(output_tokens),0),
            COALESCE(SUM(cost),0), MAX(currency)
        FROM completion_usage GROUP BY model ORDER BY model`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UsageTotals
	for rows.Next() {
		var totals domain.UsageTotals
		if err := rows.Scan(
			&totals.Model,
			&totals.Calls,
			&totals.InputTokens,
			&totals.OutputTokens,
			&totals.Cost,
			&totals.Currency,
		); err != nil {
			return nil, err
		}
		result = append(result, totals)
	}
	return result, rows.Err()
}
