package navdata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/fundlens/internal/contracts"
)

// MemoryStore is an in-process NavRepository + HoldingRepository.
// Used for offline analysis (points loaded from a file) and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	funds    map[string]fundMeta
	nav      map[string]map[string]contracts.NetValuePoint // code → date → point
	holdings map[string]contracts.Holding
}

type fundMeta struct {
	name     string
	fundType string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		funds:    make(map[string]fundMeta),
		nav:      make(map[string]map[string]contracts.NetValuePoint),
		holdings: make(map[string]contracts.Holding),
	}
}

// GetSeries implements contracts.NavRepository
func (m *MemoryStore) GetSeries(_ context.Context, code string, from, to time.Time) (*contracts.FundSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.funds[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	series := &contracts.FundSeries{Code: code, Name: meta.name}
	for _, p := range m.nav[code] {
		t, ok := p.Time()
		if !ok {
			continue
		}
		if (!from.IsZero() && t.Before(from)) || (!to.IsZero() && t.After(to)) {
			continue
		}
		series.Points = append(series.Points, p)
	}
	series.Points = contracts.SortedPoints(series.Points)
	return series, nil
}

// GetLatestDate implements contracts.NavRepository
func (m *MemoryStore) GetLatestDate(_ context.Context, code string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	for _, p := range m.nav[code] {
		if t, ok := p.Time(); ok && t.After(latest) {
			latest = t
		}
	}
	return latest, nil
}

// SaveBatch implements contracts.NavRepository
func (m *MemoryStore) SaveBatch(_ context.Context, code string, points []contracts.NetValuePoint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.funds[code]; !ok {
		m.funds[code] = fundMeta{}
	}
	if m.nav[code] == nil {
		m.nav[code] = make(map[string]contracts.NetValuePoint)
	}

	saved := 0
	for _, p := range points {
		if _, ok := p.Time(); !ok || p.Value <= 0 {
			continue
		}
		m.nav[code][p.Date] = p
		saved++
	}
	return saved, nil
}

// ListCodes implements contracts.NavRepository
func (m *MemoryStore) ListCodes(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	codes := make([]string, 0, len(m.funds))
	for code := range m.funds {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// SaveFund implements contracts.NavRepository
func (m *MemoryStore) SaveFund(_ context.Context, code, name, fundType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta := m.funds[code]
	if name != "" {
		meta.name = name
	}
	if fundType != "" {
		meta.fundType = fundType
	}
	m.funds[code] = meta
	return nil
}

// LoadSeries replaces a fund's points (offline input)
func (m *MemoryStore) LoadSeries(series contracts.FundSeries) {
	m.mu.Lock()
	m.funds[series.Code] = fundMeta{name: series.Name}
	m.nav[series.Code] = make(map[string]contracts.NetValuePoint, len(series.Points))
	m.mu.Unlock()

	_, _ = m.SaveBatch(context.Background(), series.Code, series.Points)
}

// List implements contracts.HoldingRepository
func (m *MemoryStore) List(_ context.Context) ([]contracts.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]contracts.Holding, 0, len(m.holdings))
	for _, h := range m.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

// Upsert implements contracts.HoldingRepository
func (m *MemoryStore) Upsert(_ context.Context, h contracts.Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h.UpdatedAt = time.Now()
	m.holdings[h.Code] = h
	return nil
}

// Delete implements contracts.HoldingRepository
func (m *MemoryStore) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holdings[code]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	delete(m.holdings, code)
	return nil
}

var (
	_ contracts.NavRepository     = (*MemoryStore)(nil)
	_ contracts.HoldingRepository = (*MemoryStore)(nil)
	_ contracts.NavRepository     = (*NavRepository)(nil)
	_ contracts.HoldingRepository = (*HoldingRepository)(nil)
)
