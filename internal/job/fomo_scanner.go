package job

import (
	"context"
	"log"
	"time"

	"crypto-fomo-bot/internal/domain"
	"crypto-fomo-bot/internal/fomo"

	"go.opentelemetry.io/otel/trace"
)

// scanMinVolume filters out coins too illiquid to be worth a
// market-chart call during the scan.
const scanMinVolume = 500_000

// MarketSource lists the market and resolves spike ratios for
// shortlisted coins.
type MarketSource interface {
	Markets(ctx context.Context, page, perPage int) ([]*domain.MarketSnapshot, error)
	BaselineSpikeRatio(ctx context.Context, coinID string, currentVolume float64) float64
}

// AlertSink persists scan results. Nil disables persistence.
type AlertSink interface {
	InsertAlerts(ctx context.Context, alerts []*domain.FomoAlert) error
}

// AlertNotifier pushes the best alert of a scan to subscribers. Nil
// disables broadcasting.
type AlertNotifier interface {
	BroadcastAlert(ctx context.Context, alert *domain.FomoAlert) error
}

type ScanConfig struct {
	IntervalSecs int
	MinScore     int
	TopNExclude  int
	MaxDetail    int
}

// FomoScanner periodically sweeps the market list, scores candidate
// coins, and surfaces everything above the alert threshold.
type FomoScanner struct {
	tracer   trace.Tracer
	source   MarketSource
	engine   *fomo.Engine
	alerts   AlertSink
	notifier AlertNotifier

	interval    time.Duration
	minScore    int
	topNExclude int
	maxDetail   int
}

func NewFomoScanner(
	tracer trace.Tracer,
	source MarketSource,
	engine *fomo.Engine,
	alerts AlertSink,
	notifier AlertNotifier,
	cfg ScanConfig,
) *FomoScanner {
	if cfg.IntervalSecs <= 0 {
		cfg.IntervalSecs = 2 * 3600
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = 75
	}
	if cfg.MaxDetail <= 0 {
		cfg.MaxDetail = 25
	}
	return &FomoScanner{
		tracer:      tracer,
		source:      source,
		engine:      engine,
		alerts:      alerts,
		notifier:    notifier,
		interval:    time.Duration(cfg.IntervalSecs) * time.Second,
		minScore:    cfg.MinScore,
		topNExclude: cfg.TopNExclude,
		maxDetail:   cfg.MaxDetail,
	}
}

// Start runs the scan loop. Blocks until ctx is cancelled.
func (s *FomoScanner) Start(ctx context.Context) {
	log.Println("FOMO scanner starting...")

	s.scanOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("FOMO scanner stopped")
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

func (s *FomoScanner) scanOnce(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "fomo-scanner.scan")
	defer span.End()

	markets, err := s.source.Markets(ctx, 1, 250)
	if err != nil {
		log.Printf("market list fetch failed: %v", err)
		return
	}

	candidates := s.shortlist(markets)
	alerts := make([]*domain.FomoAlert, 0, len(candidates))

	for _, snap := range candidates {
		snap.VolumeSpikeRatio = s.source.BaselineSpikeRatio(ctx, snap.CoinID, snap.Volume24h)

		result, err := s.engine.Score(snap)
		if err != nil {
			log.Printf("scoring %s failed: %v", snap.CoinID, err)
			continue
		}
		if result.Score < s.minScore {
			continue
		}
		alerts = append(alerts, &domain.FomoAlert{
			CoinID:       snap.CoinID,
			Symbol:       snap.Symbol,
			Name:         snap.Name,
			Score:        result.Score,
			Signal:       result.Signal,
			PriceUSD:     snap.PriceUSD,
			Change24hPct: snap.Change24hPct,
			VolumeSpike:  snap.VolumeSpikeRatio,
		})
	}

	log.Printf("FOMO scan: %d coins listed, %d shortlisted, %d alerts", len(markets), len(candidates), len(alerts))
	if len(alerts) == 0 {
		return
	}

	if s.alerts != nil {
		if err := s.alerts.InsertAlerts(ctx, alerts); err != nil {
			log.Printf("alert persist failed: %v", err)
		}
	}

	if s.notifier != nil {
		best := alerts[0]
		for _, a := range alerts[1:] {
			if a.Score > best.Score {
				best = a
			}
		}
		if err := s.notifier.BroadcastAlert(ctx, best); err != nil {
			log.Printf("alert broadcast failed: %v", err)
		}
	}
}

// shortlist drops stablecoins, top-ranked large caps, and illiquid
// coins, then caps the list to bound market-chart calls per scan. The
// market list arrives volume-ordered, so the cap keeps the most liquid
// candidates.
func (s *FomoScanner) shortlist(markets []*domain.MarketSnapshot) []*domain.MarketSnapshot {
	candidates := make([]*domain.MarketSnapshot, 0, s.maxDetail)
	for _, snap := range markets {
		if domain.IsStablecoin(snap.Symbol) {
			continue
		}
		if snap.MarketCapRank > 0 && snap.MarketCapRank <= s.topNExclude {
			continue
		}
		if snap.Volume24h < scanMinVolume {
			continue
		}
		candidates = append(candidates, snap)
		if len(candidates) >= s.maxDetail {
			break
		}
	}
	return candidates
}
