package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crypto-fomo-bot/internal/domain"
	"crypto-fomo-bot/internal/fomo"

	"go.opentelemetry.io/otel/trace"
)

type stubSource struct {
	mu         sync.Mutex
	markets    []*domain.MarketSnapshot
	marketsErr error
	ratios     map[string]float64
	listCalls  int
	ratioCalls []string
}

func (s *stubSource) Markets(_ context.Context, _, _ int) ([]*domain.MarketSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return s.markets, s.marketsErr
}

func (s *stubSource) BaselineSpikeRatio(_ context.Context, coinID string, _ float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratioCalls = append(s.ratioCalls, coinID)
	if r, ok := s.ratios[coinID]; ok {
		return r
	}
	return 1.0
}

func (s *stubSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

type stubSink struct {
	inserted [][]*domain.FomoAlert
	err      error
}

func (s *stubSink) InsertAlerts(_ context.Context, alerts []*domain.FomoAlert) error {
	s.inserted = append(s.inserted, alerts)
	return s.err
}

type stubNotifier struct {
	broadcast []*domain.FomoAlert
}

func (s *stubNotifier) BroadcastAlert(_ context.Context, alert *domain.FomoAlert) error {
	s.broadcast = append(s.broadcast, alert)
	return nil
}

func marketRowFor(id, symbol string, rank int, volume float64) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		CoinID:        id,
		Symbol:        symbol,
		Name:          id,
		PriceUSD:      0.05,
		Change1hPct:   1.5,
		Change24hPct:  8.0,
		Volume24h:     volume,
		MarketCap:     volume * 10,
		MarketCapRank: rank,
	}
}

func newTestScanner(source MarketSource, sink AlertSink, notifier AlertNotifier, cfg ScanConfig) *FomoScanner {
	return NewFomoScanner(trace.NewNoopTracerProvider().Tracer("test"), source, fomo.NewEngine(0), sink, notifier, cfg)
}

func TestScannerShortlistFilters(t *testing.T) {
	t.Parallel()

	source := &stubSource{
		markets: []*domain.MarketSnapshot{
			marketRowFor("bitcoin", "btc", 1, 3e10),       // large cap
			marketRowFor("tether", "usdt", 3, 5e10),       // stablecoin
			marketRowFor("dustcoin", "dust", 2000, 1000),  // illiquid
			marketRowFor("moonbeam", "glmr", 300, 4e6),
			marketRowFor("kadena", "kda", 250, 6e6),
		},
	}
	scanner := newTestScanner(source, nil, nil, ScanConfig{TopNExclude: 15, MaxDetail: 1, MinScore: 101})

	scanner.scanOnce(context.Background())

	if len(source.ratioCalls) != 1 {
		t.Fatalf("expected 1 ratio call after filtering and cap, got %v", source.ratioCalls)
	}
	if source.ratioCalls[0] != "moonbeam" {
		t.Errorf("expected first surviving candidate moonbeam, got %s", source.ratioCalls[0])
	}
}

func TestScannerPersistsAndBroadcastsBest(t *testing.T) {
	t.Parallel()

	source := &stubSource{
		markets: []*domain.MarketSnapshot{
			marketRowFor("moonbeam", "glmr", 300, 4e6),
			marketRowFor("kadena", "kda", 800, 6e6),
			marketRowFor("sleeper", "slp", 400, 2e6),
		},
		ratios: map[string]float64{
			"moonbeam": 6.0,
			"kadena":   11.0,
			"sleeper":  1.0,
		},
	}
	sink := &stubSink{}
	notifier := &stubNotifier{}
	scanner := newTestScanner(source, sink, notifier, ScanConfig{TopNExclude: 15, MinScore: 60})

	scanner.scanOnce(context.Background())

	if len(sink.inserted) != 1 {
		t.Fatalf("expected one batch insert, got %d", len(sink.inserted))
	}
	batch := sink.inserted[0]
	if len(batch) != 2 {
		t.Fatalf("expected 2 alerts above threshold, got %d", len(batch))
	}
	for _, a := range batch {
		if a.Score < 60 {
			t.Errorf("alert %s below threshold: %d", a.CoinID, a.Score)
		}
	}

	if len(notifier.broadcast) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(notifier.broadcast))
	}
	if notifier.broadcast[0].CoinID != "kadena" {
		t.Errorf("expected highest-scoring alert kadena broadcast, got %s", notifier.broadcast[0].CoinID)
	}
}

func TestScannerNoAlertsNoWrites(t *testing.T) {
	t.Parallel()

	source := &stubSource{
		markets: []*domain.MarketSnapshot{marketRowFor("sleeper", "slp", 400, 2e6)},
	}
	sink := &stubSink{}
	notifier := &stubNotifier{}
	scanner := newTestScanner(source, sink, notifier, ScanConfig{TopNExclude: 15, MinScore: 95})

	scanner.scanOnce(context.Background())

	if len(sink.inserted) != 0 {
		t.Errorf("expected no inserts, got %d", len(sink.inserted))
	}
	if len(notifier.broadcast) != 0 {
		t.Errorf("expected no broadcasts, got %d", len(notifier.broadcast))
	}
}

func TestScannerMarketFetchFailure(t *testing.T) {
	t.Parallel()

	source := &stubSource{marketsErr: errors.New("api down")}
	sink := &stubSink{}
	scanner := newTestScanner(source, sink, nil, ScanConfig{})

	scanner.scanOnce(context.Background())

	if len(sink.inserted) != 0 {
		t.Errorf("expected no inserts on fetch failure, got %d", len(sink.inserted))
	}
}

func TestScannerStartStopsOnCancel(t *testing.T) {
	t.Parallel()

	source := &stubSource{}
	scanner := newTestScanner(source, nil, nil, ScanConfig{IntervalSecs: 3600})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scanner.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for source.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("scanner never ran initial scan")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop after cancel")
	}
}
