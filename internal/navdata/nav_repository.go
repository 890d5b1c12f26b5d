package navdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fundlens/internal/contracts"
)

// ErrNotFound fund is not tracked
var ErrNotFound = errors.New("navdata: fund not found")

// NavRepository implements contracts.NavRepository
// ⭐ SSOT: NAV 데이터 저장/조회는 여기서만
type NavRepository struct {
	pool *pgxpool.Pool
}

// NewNavRepository creates a new NAV repository
func NewNavRepository(pool *pgxpool.Pool) *NavRepository {
	return &NavRepository{pool: pool}
}

// GetSeries retrieves NAVs of code within [from, to] in ascending order.
// Zero from/to leave that side open.
func (r *NavRepository) GetSeries(ctx context.Context, code string, from, to time.Time) (*contracts.FundSeries, error) {
	series := &contracts.FundSeries{Code: code}

	err := r.pool.QueryRow(ctx, `SELECT name FROM funds WHERE code = $1`, code).Scan(&series.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}

	query := `
		SELECT nav_date, nav::float8, daily_change::float8
		FROM fund_nav
		WHERE code = $1
		  AND ($2::date IS NULL OR nav_date >= $2)
		  AND ($3::date IS NULL OR nav_date <= $3)
		ORDER BY nav_date ASC
	`

	rows, err := r.pool.Query(ctx, query, code, nullDate(from), nullDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query nav: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			date   time.Time
			nav    float64
			change *float64
		)
		if err := rows.Scan(&date, &nav, &change); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		series.Points = append(series.Points, contracts.NetValuePoint{
			Date:   date.Format(contracts.DateLayout),
			Value:  nav,
			Change: change,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return series, nil
}

// GetLatestDate returns the newest stored NAV date (zero time when none)
func (r *NavRepository) GetLatestDate(ctx context.Context, code string) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(nav_date) FROM fund_nav WHERE code = $1`, code).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest nav date: %w", err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

// SaveBatch upserts points of code (registering the fund when missing)
// and returns the number of rows written.
func (r *NavRepository) SaveBatch(ctx context.Context, code string, points []contracts.NetValuePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO funds (code) VALUES ($1) ON CONFLICT (code) DO NOTHING`, code)

	queued := 0
	for _, p := range points {
		date, ok := p.Time()
		if !ok || p.Value <= 0 {
			continue
		}
		batch.Queue(`
			INSERT INTO fund_nav (code, nav_date, nav, daily_change)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code, nav_date) DO UPDATE SET
				nav = EXCLUDED.nav,
				daily_change = EXCLUDED.daily_change
		`, code, date, p.Value, p.Change)
		queued++
	}
	if queued == 0 {
		return 0, nil
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	// funds upsert + nav rows
	for i := 0; i < queued+1; i++ {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("failed to save nav batch: %w", err)
		}
	}
	return queued, nil
}

// ListCodes returns every tracked fund code
func (r *NavRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM funds ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	defer rows.Close()

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan fund codes: %w", err)
	}
	return codes, nil
}

// SaveFund registers a fund or refreshes its name/type (empty values keep the old ones)
func (r *NavRepository) SaveFund(ctx context.Context, code, name, fundType string) error {
	query := `
		INSERT INTO funds (code, name, fund_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), funds.name),
			fund_type = COALESCE(NULLIF(EXCLUDED.fund_type, ''), funds.fund_type),
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, code, name, fundType); err != nil {
		return fmt.Errorf("failed to save fund: %w", err)
	}
	return nil
}

func nullDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
