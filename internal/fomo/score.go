package fomo

import (
	"fmt"
	"math"

	"crypto-fomo-bot/internal/domain"
)

// DefaultLargeCapRankThreshold is the market-cap rank at or below which
// a coin is treated as a large cap: no novelty bonus, damped score.
const DefaultLargeCapRankThreshold = 50

// largeCapDamping is applied to the full raw score of large-cap coins.
// Sheer volume size on a top-ranked coin is business as usual, not a
// FOMO opportunity, so the whole signal is suppressed.
const largeCapDamping = 0.55

// Engine computes FOMO opportunity scores. It is pure: no I/O, no
// clock, safe for concurrent use.
type Engine struct {
	largeCapRank int
}

// NewEngine creates a scoring engine. largeCapRank <= 0 selects the
// default threshold.
func NewEngine(largeCapRank int) *Engine {
	if largeCapRank <= 0 {
		largeCapRank = DefaultLargeCapRankThreshold
	}
	return &Engine{largeCapRank: largeCapRank}
}

// Score maps a market snapshot to a 0-100 opportunity score with a
// signal tier and a per-factor breakdown. It fails with
// domain.ErrInvalidSnapshot when price or volume is negative or
// non-finite, or when any other numeric field is non-finite.
func (e *Engine) Score(snap *domain.MarketSnapshot) (*domain.ScoreResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", domain.ErrInvalidSnapshot)
	}
	if err := validate(snap); err != nil {
		return nil, err
	}

	rank := snap.MarketCapRank
	if rank <= 0 {
		rank = domain.UnrankedSentinel
	}

	volumeScore := volumeSpikeScore(snap.VolumeSpikeRatio)
	priceMove := priceMoveScore(snap.Change24hPct, snap.VolumeSpikeRatio)
	momentum := momentumScore(snap.Change1hPct, snap.Change24hPct)
	liquidity := liquidityScore(snap.Volume24h)
	thinPenalty := thinHighPricePenalty(snap.PriceUSD, snap.Volume24h)
	novelty := rankNoveltyBonus(rank, e.largeCapRank)

	raw := volumeScore + priceMove + momentum + liquidity + thinPenalty + novelty

	damping := 0.0
	if rank <= e.largeCapRank {
		damped := raw * largeCapDamping
		damping = damped - raw
		raw = damped
	}

	total := clamp(raw, 0, 100)
	score := int(math.Round(total))

	return &domain.ScoreResult{
		Score:  score,
		Signal: signalFor(score, snap.Change24hPct),
		Breakdown: map[string]float64{
			domain.FactorVolumeSpike:     volumeScore,
			domain.FactorPriceMove:       priceMove,
			domain.FactorMomentum1h:      momentum,
			domain.FactorLiquidity:       liquidity,
			domain.FactorThinHighPrice:   thinPenalty,
			domain.FactorRankNovelty:     novelty,
			domain.FactorLargeCapDamping: damping,
		},
	}, nil
}

func validate(snap *domain.MarketSnapshot) error {
	if !isFinite(snap.PriceUSD) || snap.PriceUSD < 0 {
		return fmt.Errorf("%w: price %v", domain.ErrInvalidSnapshot, snap.PriceUSD)
	}
	if !isFinite(snap.Volume24h) || snap.Volume24h < 0 {
		return fmt.Errorf("%w: volume %v", domain.ErrInvalidSnapshot, snap.Volume24h)
	}
	if !isFinite(snap.VolumeSpikeRatio) || snap.VolumeSpikeRatio < 0 {
		return fmt.Errorf("%w: volume spike ratio %v", domain.ErrInvalidSnapshot, snap.VolumeSpikeRatio)
	}
	if !isFinite(snap.Change1hPct) || !isFinite(snap.Change24hPct) {
		return fmt.Errorf("%w: non-finite change percentage", domain.ErrInvalidSnapshot)
	}
	if !isFinite(snap.MarketCap) || snap.MarketCap < 0 {
		return fmt.Errorf("%w: market cap %v", domain.ErrInvalidSnapshot, snap.MarketCap)
	}
	return nil
}

// volumeSpikeScore maps the spike ratio to the 0-60 base score. Tiers
// are linearly interpolated and continuous at the boundaries.
func volumeSpikeScore(ratio float64) float64 {
	switch {
	case ratio >= 10:
		return 60
	case ratio >= 5:
		return 45 + 3*(ratio-5)
	case ratio >= 2.5:
		return 30 + 6*(ratio-2.5)
	case ratio >= 1.5:
		return 15 + 15*(ratio-1.5)
	default:
		return 10 * ratio
	}
}

// priceMoveScore rewards quiet accumulation (small move on real volume)
// and penalizes coins that have already pumped.
func priceMoveScore(change24h, ratio float64) float64 {
	abs := math.Abs(change24h)
	switch {
	case abs < 2 && ratio >= 3:
		return 25
	case abs >= 2 && abs <= 15:
		return 10
	case abs > 50:
		return -25
	case abs > 25:
		return -15
	default:
		return 0
	}
}

func momentumScore(change1h, change24h float64) float64 {
	switch {
	case change1h > 0 && change24h > 0:
		return math.Min(10, change1h*2)
	case change1h < -2:
		return -math.Min(15, math.Abs(change1h)*2)
	case change1h < 0 && change24h > 0:
		// Small pullback inside an up day reads as noise, not reversal.
		return 1
	default:
		return 0
	}
}

func liquidityScore(volume float64) float64 {
	switch {
	case volume > 10_000_000:
		return 5
	case volume > 5_000_000:
		return 3
	case volume > 1_000_000:
		return 1
	case volume < 100_000:
		return -20
	case volume < 500_000:
		return -10
	default:
		return 0
	}
}

// thinHighPricePenalty guards against thinly traded high-price coins
// whose percentage changes are mostly rounding artifacts.
func thinHighPricePenalty(price, volume float64) float64 {
	switch {
	case price > 1000 && volume < 1_000_000:
		return -25
	case price > 100 && volume < 500_000:
		return -15
	default:
		return 0
	}
}

func rankNoveltyBonus(rank, largeCapRank int) float64 {
	switch {
	case rank <= largeCapRank:
		return 0
	case rank > 1000:
		return 15
	case rank > 500:
		return 10
	case rank > 200:
		return 6
	default:
		return 3
	}
}

// signalFor derives the tier label, first match wins.
func signalFor(score int, change24h float64) domain.Signal {
	abs := math.Abs(change24h)
	switch {
	case score >= 90 && abs < 5:
		return domain.SignalStealthAccumulation
	case score >= 85:
		return domain.SignalHighConviction
	case score >= 75:
		return domain.SignalEarlyMomentum
	case score >= 60:
		return domain.SignalVolumeBuilding
	case score >= 40 && change24h > 20:
		return domain.SignalAlreadyPumping
	case score >= 35:
		return domain.SignalModerateActivity
	case score >= 20:
		return domain.SignalWatchList
	default:
		return domain.SignalLowActivity
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
