package navdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/contracts"
)

// daily builds n consecutive daily points ending at end
func daily(end time.Time, n int) []contracts.NetValuePoint {
	out := make([]contracts.NetValuePoint, n)
	for i := range out {
		out[i] = contracts.NetValuePoint{
			Date:  end.AddDate(0, 0, i-(n-1)).Format(contracts.DateLayout),
			Value: 1 + float64(i)*0.001,
		}
	}
	return out
}

func TestQualityGate_Check(t *testing.T) {
	asOf := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	gapped := append(daily(asOf.AddDate(0, 0, -40), 20), daily(asOf, 20)...)

	store := NewMemoryStore()
	store.LoadSeries(contracts.FundSeries{Code: "000001", Name: "정상", Points: daily(asOf, 60)})
	store.LoadSeries(contracts.FundSeries{Code: "000002", Name: "지연", Points: daily(asOf.AddDate(0, 0, -10), 60)})
	store.LoadSeries(contracts.FundSeries{Code: "000003", Name: "신규", Points: daily(asOf, 5)})
	store.LoadSeries(contracts.FundSeries{Code: "000004", Name: "결측", Points: gapped})
	require.NoError(t, store.SaveFund(context.Background(), "000005", "빈 펀드", ""))

	gate := NewQualityGate(store, QualityConfig{})
	snap, err := gate.Check(context.Background(), asOf.Add(15*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "2024-12-31", snap.Date)
	assert.Equal(t, 5, snap.TotalFunds)
	assert.Equal(t, 1, snap.ValidFunds)
	require.Len(t, snap.Funds, 5)

	byCode := map[string]FundQuality{}
	for _, f := range snap.Funds {
		byCode[f.Code] = f
	}
	assert.Empty(t, byCode["000001"].Issues)
	assert.Equal(t, []string{"stale"}, byCode["000002"].Issues)
	assert.Equal(t, 10, byCode["000002"].StaleDays)
	assert.Equal(t, []string{"short_history"}, byCode["000003"].Issues)
	assert.Equal(t, 1, byCode["000004"].Gaps)
	assert.Equal(t, []string{"gaps"}, byCode["000004"].Issues)
	assert.Equal(t, []string{"no_data"}, byCode["000005"].Issues)

	assert.InDelta(t, 3.0/5, snap.Coverage["fresh"], 1e-9)
	assert.InDelta(t, 3.0/5, snap.Coverage["history"], 1e-9)
	assert.Greater(t, snap.QualityScore, 0.0)
	assert.Less(t, snap.QualityScore, 0.8)
	assert.False(t, snap.Passed)
}

func TestQualityGate_Empty(t *testing.T) {
	snap, err := NewQualityGate(NewMemoryStore(), QualityConfig{}).Check(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, snap.TotalFunds)
	assert.Zero(t, snap.QualityScore)
	assert.False(t, snap.Passed)
}
