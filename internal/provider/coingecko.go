package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"crypto-fomo-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// baselineDays is the trailing window used for the average-volume
// baseline behind the volume spike ratio.
const baselineDays = 7

// CoinGeckoProvider fetches market snapshots from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *TokenBucket
}

// NewCoinGeckoProvider creates a provider with built-in pacing.
// Limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewTokenBucket(8, 7500*time.Millisecond),
	}
}

// marketRow mirrors one entry of the /coins/markets response. Pointer
// fields distinguish absent values from zeros.
type marketRow struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	CurrentPrice  *float64 `json:"current_price"`
	MarketCap     *float64 `json:"market_cap"`
	MarketCapRank *int     `json:"market_cap_rank"`
	TotalVolume   *float64 `json:"total_volume"`
	Change1hPct   *float64 `json:"price_change_percentage_1h_in_currency"`
	Change24hPct  *float64 `json:"price_change_percentage_24h_in_currency"`
}

// Snapshot fetches a complete market snapshot for one coin, including
// the volume spike ratio against the trailing baseline.
func (p *CoinGeckoProvider) Snapshot(ctx context.Context, coinQuery string) (*domain.MarketSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.snapshot")
	defer span.End()

	id := domain.ResolveCoinID(coinQuery)
	if id == "" {
		return nil, fmt.Errorf("%w: empty coin query", domain.ErrUnsupportedCoin)
	}

	reqURL := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s&price_change_percentage=1h,24h",
		p.baseURL, url.QueryEscape(id))

	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot for %s: %w", id, err)
	}

	var rows []marketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse snapshot for %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCoin, id)
	}

	snap, err := snapshotFromRow(rows[0])
	if err != nil {
		return nil, err
	}
	snap.VolumeSpikeRatio = p.spikeRatio(ctx, id, snap.Volume24h)
	return snap, nil
}

// Markets fetches one page of the volume-ordered market list. Spike
// ratios are left at the neutral 1.0; the scanner fills them in for the
// coins it shortlists, one market-chart call each.
func (p *CoinGeckoProvider) Markets(ctx context.Context, page, perPage int) ([]*domain.MarketSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.markets")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 250 {
		perPage = 250
	}

	reqURL := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=volume_desc&per_page=%d&page=%d&price_change_percentage=1h,24h",
		p.baseURL, perPage, page)

	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch markets page %d: %w", page, err)
	}

	var rows []marketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse markets page %d: %w", page, err)
	}

	snapshots := make([]*domain.MarketSnapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := snapshotFromRow(row)
		if err != nil {
			log.Printf("skipping market row %s: %v", row.ID, err)
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// BaselineSpikeRatio recomputes the spike ratio for a coin whose
// current volume is already known, without refetching the market row.
func (p *CoinGeckoProvider) BaselineSpikeRatio(ctx context.Context, coinID string, currentVolume float64) float64 {
	ctx, span := p.tracer.Start(ctx, "coingecko.baseline-spike-ratio")
	defer span.End()

	return p.spikeRatio(ctx, domain.ResolveCoinID(coinID), currentVolume)
}

// spikeRatio divides current volume by the trailing average volume,
// excluding the most recent point. Any fetch or data problem degrades
// to the neutral ratio 1.0 rather than failing the snapshot.
func (p *CoinGeckoProvider) spikeRatio(ctx context.Context, id string, currentVolume float64) float64 {
	reqURL := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		p.baseURL, url.PathEscape(id), baselineDays)

	body, err := p.doRequest(ctx, reqURL)
	if err != nil {
		log.Printf("baseline volume fetch for %s failed, assuming no spike: %v", id, err)
		return 1.0
	}

	var raw struct {
		TotalVolumes [][]float64 `json:"total_volumes"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("baseline volume parse for %s failed, assuming no spike: %v", id, err)
		return 1.0
	}

	if len(raw.TotalVolumes) < 3 {
		return 1.0
	}

	sum := 0.0
	count := 0
	for _, point := range raw.TotalVolumes[:len(raw.TotalVolumes)-1] {
		if len(point) < 2 {
			continue
		}
		sum += point[1]
		count++
	}
	if count == 0 {
		return 1.0
	}
	avg := sum / float64(count)
	if avg <= 0 {
		return 1.0
	}
	return currentVolume / avg
}

// snapshotFromRow converts one API row into a snapshot. Price and volume
// are mandatory; a row missing either cannot be scored, so it is rejected
// instead of being normalized to zero. Rank and the change percentages
// remain optional.
func snapshotFromRow(row marketRow) (*domain.MarketSnapshot, error) {
	if row.CurrentPrice == nil {
		return nil, fmt.Errorf("%w: %s has no current price", domain.ErrInvalidSnapshot, row.ID)
	}
	if row.TotalVolume == nil {
		return nil, fmt.Errorf("%w: %s has no 24h volume", domain.ErrInvalidSnapshot, row.ID)
	}

	snap := &domain.MarketSnapshot{
		CoinID:           row.ID,
		Symbol:           row.Symbol,
		Name:             row.Name,
		PriceUSD:         *row.CurrentPrice,
		Volume24h:        *row.TotalVolume,
		MarketCapRank:    domain.UnrankedSentinel,
		VolumeSpikeRatio: 1.0,
		FetchedAtUnix:    time.Now().Unix(),
	}
	if row.MarketCap != nil {
		snap.MarketCap = *row.MarketCap
	}
	if row.MarketCapRank != nil && *row.MarketCapRank > 0 {
		snap.MarketCapRank = *row.MarketCapRank
	}
	if row.Change1hPct != nil {
		snap.Change1hPct = *row.Change1hPct
	}
	if row.Change24hPct != nil {
		snap.Change24hPct = *row.Change24hPct
	}
	return snap, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
