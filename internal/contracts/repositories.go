package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// NavRepository manages fund NAV history
type NavRepository interface {
	GetSeries(ctx context.Context, code string, from, to time.Time) (*FundSeries, error)
	GetLatestDate(ctx context.Context, code string) (time.Time, error)
	SaveBatch(ctx context.Context, code string, points []NetValuePoint) (int, error)
	ListCodes(ctx context.Context) ([]string, error)
	SaveFund(ctx context.Context, code, name, fundType string) error
}

// HoldingRepository manages user holdings
type HoldingRepository interface {
	List(ctx context.Context) ([]Holding, error)
	Upsert(ctx context.Context, holding Holding) error
	Delete(ctx context.Context, code string) error
}
