package realtime

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/realtime/cache"
	"github.com/wonny/fundlens/pkg/metrics"
)

type fakeFetcher struct {
	mu      sync.Mutex
	single  int
	batches [][]string
	fail    map[string]bool
}

func (f *fakeFetcher) FetchQuote(_ context.Context, code string) (*contracts.FundQuote, error) {
	f.mu.Lock()
	f.single++
	f.mu.Unlock()
	if f.fail[code] {
		return nil, errors.New("upstream down")
	}
	return &contracts.FundQuote{Code: code, NAV: 1.5, CurrentValue: 1.5, UpdatedAt: time.Now()}, nil
}

func (f *fakeFetcher) FetchQuotes(_ context.Context, codes []string) (map[string]*contracts.FundQuote, error) {
	f.mu.Lock()
	f.batches = append(f.batches, codes)
	f.mu.Unlock()
	out := make(map[string]*contracts.FundQuote, len(codes))
	for _, c := range codes {
		if f.fail[c] {
			continue
		}
		out[c] = &contracts.FundQuote{Code: c, NAV: 2, CurrentValue: 2, UpdatedAt: time.Now()}
	}
	return out, nil
}

func TestQuoteService_CachesQuote(t *testing.T) {
	f := &fakeFetcher{}
	m := metrics.New()
	svc := NewQuoteService(f, cache.NewQuoteCache(30*time.Second, nil), nil, m, nil)

	q1, err := svc.Quote(context.Background(), "000001")
	require.NoError(t, err)
	q2, err := svc.Quote(context.Background(), "000001")
	require.NoError(t, err)

	assert.Same(t, q1, q2)
	assert.Equal(t, 1, f.single)
	assert.Equal(t, cache.Stats{TotalCount: 1}, svc.Stats())
}

func TestQuoteService_QuotesFetchesMissesOnly(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"000003": true}}
	svc := NewQuoteService(f, cache.NewQuoteCache(30*time.Second, nil), nil, nil, nil)

	_, err := svc.Quote(context.Background(), "000001")
	require.NoError(t, err)

	quotes, err := svc.Quotes(context.Background(), []string{"000001", "000002", "000003"})
	require.NoError(t, err)

	assert.Len(t, quotes, 2)
	assert.Equal(t, 1.5, quotes["000001"].NAV, "served from cache")
	assert.Equal(t, [][]string{{"000002", "000003"}}, f.batches)
}

func TestQuoteService_Error(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"000009": true}}
	svc := NewQuoteService(f, cache.NewQuoteCache(time.Second, nil), nil, nil, nil)

	_, err := svc.Quote(context.Background(), "000009")
	assert.Error(t, err)
	assert.Equal(t, 0, svc.CleanStale())
}

func TestSubscription(t *testing.T) {
	s := newSubscription(2, func(c string) bool { return len(c) == 6 })

	s.add([]string{" 000002", "bad", "000001", "000001", "000003"})
	assert.Equal(t, []string{"000001", "000002"}, s.codes(), "capped at 2, invalid skipped")

	s.remove([]string{"000001"})
	s.add([]string{"000003"})
	assert.Equal(t, []string{"000002", "000003"}, s.codes())

	s.wake()
	s.wake() // non-blocking
	assert.Len(t, s.changed, 1)
}

func TestStream_PushesQuotes(t *testing.T) {
	f := &fakeFetcher{}
	svc := NewQuoteService(f, cache.NewQuoteCache(30*time.Second, nil), nil, nil, nil)
	m := metrics.New()
	stream := NewStream(svc, time.Hour, 10, nil, m, nil)

	srv := httptest.NewServer(stream)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?codes=000001,000002"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, MessageQuotes, first.Type)
	assert.Len(t, first.Quotes, 2)

	require.NoError(t, conn.WriteJSON(Command{Action: ActionSubscribe, Codes: []string{"000003"}}))

	var second Message
	require.NoError(t, conn.ReadJSON(&second))
	assert.Len(t, second.Quotes, 3)

	require.NoError(t, conn.WriteJSON(Command{Action: "bogus"}))

	var third Message
	require.NoError(t, conn.ReadJSON(&third))
	assert.Equal(t, MessageError, third.Type)
}
