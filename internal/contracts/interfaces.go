package contracts

import "context"

// HistoryFetcher pulls NAV history from an upstream source
// ⭐ SSOT: 외부 NAV 소스 인터페이스
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, code string, pageIndex, pageSize int) ([]NetValuePoint, int, error)
}

// QuoteFetcher pulls merged real-time quotes
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, code string) (*FundQuote, error)
	FetchQuotes(ctx context.Context, codes []string) (map[string]*FundQuote, error)
}
