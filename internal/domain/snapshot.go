package domain

import "time"

// UnrankedSentinel marks coins with no market-cap rank reported by the
// data provider. Treated as deep micro-cap territory by the scorer.
const UnrankedSentinel = 999999

// MarketSnapshot is a normalized point-in-time view of one coin's market
// data, built at the provider boundary. Change percentages default to 0
// when the provider omits them; a missing rank becomes UnrankedSentinel.
type MarketSnapshot struct {
	CoinID        string  `json:"coin_id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	PriceUSD      float64 `json:"price_usd"`
	Change1hPct   float64 `json:"change_1h_pct"`
	Change24hPct  float64 `json:"change_24h_pct"`
	Volume24h     float64 `json:"volume_24h"`
	MarketCap     float64 `json:"market_cap"`
	MarketCapRank int     `json:"market_cap_rank"`

	// VolumeSpikeRatio is current 24h volume divided by the trailing
	// baseline average volume. 1.0 means no spike.
	VolumeSpikeRatio float64 `json:"volume_spike_ratio"`

	FetchedAtUnix int64 `json:"fetched_at_unix"`
}

// Signal is the categorical tier attached to a FOMO score.
type Signal string

const (
	SignalStealthAccumulation Signal = "Stealth Accumulation"
	SignalHighConviction      Signal = "High Conviction"
	SignalEarlyMomentum       Signal = "Early Momentum"
	SignalVolumeBuilding      Signal = "Volume Building"
	SignalAlreadyPumping      Signal = "Already Pumping"
	SignalModerateActivity    Signal = "Moderate Activity"
	SignalWatchList           Signal = "Watch List"
	SignalLowActivity         Signal = "Low Activity"
)

// Breakdown factor names reported in ScoreResult.Breakdown.
const (
	FactorVolumeSpike     = "volume_spike"
	FactorPriceMove       = "price_move"
	FactorMomentum1h      = "momentum_1h"
	FactorLiquidity       = "liquidity"
	FactorThinHighPrice   = "thin_high_price"
	FactorRankNovelty     = "rank_novelty"
	FactorLargeCapDamping = "large_cap_damping"
)

// ScoreResult is the outcome of scoring one snapshot.
type ScoreResult struct {
	Score     int                `json:"score"`
	Signal    Signal             `json:"signal"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// FomoAlert is a persisted record of a high-scoring coin found by the
// periodic market scan.
type FomoAlert struct {
	ID           int64     `json:"id"`
	CoinID       string    `json:"coin_id"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	Signal       Signal    `json:"signal"`
	PriceUSD     float64   `json:"price_usd"`
	Change24hPct float64   `json:"change_24h_pct"`
	VolumeSpike  float64   `json:"volume_spike"`
	CreatedAt    time.Time `json:"created_at"`
}
