package navdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fundlens/internal/contracts"
)

// HoldingRepository implements contracts.HoldingRepository
// ⭐ SSOT: 보유 포지션 저장/조회는 여기서만
type HoldingRepository struct {
	pool *pgxpool.Pool
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(pool *pgxpool.Pool) *HoldingRepository {
	return &HoldingRepository{pool: pool}
}

// List returns all holdings, largest first
func (r *HoldingRepository) List(ctx context.Context) ([]contracts.Holding, error) {
	query := `
		SELECT code, name, amount::float8, fund_type, updated_at
		FROM holdings
		ORDER BY amount DESC, code ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []contracts.Holding
	for rows.Next() {
		var h contracts.Holding
		if err := rows.Scan(&h.Code, &h.Name, &h.Amount, &h.Type, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// Upsert saves one holding
func (r *HoldingRepository) Upsert(ctx context.Context, h contracts.Holding) error {
	query := `
		INSERT INTO holdings (code, name, amount, fund_type, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			amount = EXCLUDED.amount,
			fund_type = EXCLUDED.fund_type,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, h.Code, h.Name, h.Amount, h.Type); err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

// Delete removes one holding; ErrNotFound when absent
func (r *HoldingRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM holdings WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return nil
}
