package provider

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crypto-fomo-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func testProvider(baseURL string) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
		tracer:  testTracer,
		limiter: NewTokenBucket(100, time.Millisecond),
	}
}

const marketsBody = `[
	{
		"id": "tron",
		"symbol": "trx",
		"name": "TRON",
		"current_price": 0.284,
		"market_cap": 26000000000,
		"market_cap_rank": 9,
		"total_volume": 1500000000,
		"price_change_percentage_1h_in_currency": 0.8,
		"price_change_percentage_24h_in_currency": 12.75
	}
]`

// Seven daily points; the last one is excluded from the baseline, so
// the average is 200 and a current volume of 1000 is a 5x spike.
const chartBody = `{
	"total_volumes": [
		[1000, 150], [2000, 200], [3000, 250], [4000, 180],
		[5000, 220], [6000, 200], [7000, 900]
	]
}`

func TestSnapshotParsesMarketRow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/coins/markets"):
			w.Write([]byte(marketsBody))
		case strings.HasPrefix(r.URL.Path, "/coins/tron/market_chart"):
			w.Write([]byte(chartBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	snap, err := p.Snapshot(context.Background(), "TRX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.CoinID != "tron" || snap.Symbol != "trx" {
		t.Fatalf("unexpected identity: %+v", snap)
	}
	if snap.PriceUSD != 0.284 || snap.Volume24h != 1.5e9 || snap.MarketCapRank != 9 {
		t.Fatalf("unexpected market fields: %+v", snap)
	}
	if snap.Change1hPct != 0.8 || snap.Change24hPct != 12.75 {
		t.Fatalf("unexpected change fields: %+v", snap)
	}

	wantRatio := 1.5e9 / 200.0
	if math.Abs(snap.VolumeSpikeRatio-wantRatio) > 1e-9 {
		t.Fatalf("expected spike ratio %.2f, got %.2f", wantRatio, snap.VolumeSpikeRatio)
	}
}

func TestSnapshotOptionalNullFieldsNormalized(t *testing.T) {
	t.Parallel()

	body := `[{"id": "newcoin", "symbol": "new", "name": "New Coin",
		"current_price": 0.001, "market_cap": null, "market_cap_rank": null,
		"total_volume": 50000,
		"price_change_percentage_1h_in_currency": null,
		"price_change_percentage_24h_in_currency": null}]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/coins/markets") {
			w.Write([]byte(body))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	snap, err := p.Snapshot(context.Background(), "newcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Change1hPct != 0 || snap.Change24hPct != 0 {
		t.Fatalf("absent changes must read as zero: %+v", snap)
	}
	if snap.MarketCapRank != domain.UnrankedSentinel {
		t.Fatalf("absent rank must become the unranked sentinel, got %d", snap.MarketCapRank)
	}
	// Chart endpoint 404s: ratio degrades to neutral.
	if snap.VolumeSpikeRatio != 1.0 {
		t.Fatalf("expected neutral spike ratio, got %.2f", snap.VolumeSpikeRatio)
	}
}

func TestSnapshotRejectsMissingPriceOrVolume(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{
			name: "null price",
			body: `[{"id": "ghostcoin", "symbol": "gho", "name": "Ghost Coin",
				"current_price": null, "total_volume": 50000}]`,
		},
		{
			name: "null volume",
			body: `[{"id": "ghostcoin", "symbol": "gho", "name": "Ghost Coin",
				"current_price": 0.001, "total_volume": null}]`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := testProvider(srv.URL)
			snap, err := p.Snapshot(context.Background(), "ghostcoin")
			if !errors.Is(err, domain.ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got snap=%+v err=%v", snap, err)
			}
		})
	}
}

func TestMarketsSkipsRowsMissingPriceOrVolume(t *testing.T) {
	t.Parallel()

	body := `[
		{"id": "tron", "symbol": "trx", "name": "TRON",
			"current_price": 0.284, "market_cap_rank": 9, "total_volume": 1500000000},
		{"id": "ghostcoin", "symbol": "gho", "name": "Ghost Coin",
			"current_price": null, "total_volume": 50000},
		{"id": "kadena", "symbol": "kda", "name": "Kadena",
			"current_price": 0.55, "market_cap_rank": 180, "total_volume": 42000000}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	snapshots, err := p.Markets(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected the unparseable row to be dropped, got %d snapshots", len(snapshots))
	}
	if snapshots[0].CoinID != "tron" || snapshots[1].CoinID != "kadena" {
		t.Fatalf("unexpected surviving rows: %s, %s", snapshots[0].CoinID, snapshots[1].CoinID)
	}
}

func TestSnapshotUnknownCoin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	if _, err := p.Snapshot(context.Background(), "no-such-coin"); !errors.Is(err, domain.ErrUnsupportedCoin) {
		t.Fatalf("expected ErrUnsupportedCoin, got %v", err)
	}
}

func TestMarketsPage(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(marketsBody))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	snapshots, err := p.Markets(context.Background(), 1, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	if snapshots[0].VolumeSpikeRatio != 1.0 {
		t.Fatalf("markets list must carry the neutral ratio, got %.2f", snapshots[0].VolumeSpikeRatio)
	}
	if !strings.Contains(gotQuery, "order=volume_desc") || !strings.Contains(gotQuery, "per_page=250") {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
}

func TestSpikeRatioShortHistory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_volumes": [[1000, 100], [2000, 200]]}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	if ratio := p.BaselineSpikeRatio(context.Background(), "thincoin", 1e6); ratio != 1.0 {
		t.Fatalf("expected neutral ratio for short history, got %.2f", ratio)
	}
}

func TestDoRequestStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	if _, err := p.Markets(context.Background(), 1, 100); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
