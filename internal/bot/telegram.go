package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"crypto-fomo-bot/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// ScanService is the slice of the FOMO service the bot drives.
type ScanService interface {
	Scan(ctx context.Context, userID int64, coinQuery string) (*domain.ScanOutcome, error)
	Balance(ctx context.Context, userID int64) (*domain.BalanceSummary, error)
	CreditPackage(ctx context.Context, userID int64, packageKey string) (int, error)
}

// Subscribers tracks chats that want scan alerts.
type Subscribers interface {
	Add(ctx context.Context, chatID int64) error
	Remove(ctx context.Context, chatID int64) error
	List(ctx context.Context) ([]int64, error)
}

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type Bot struct {
	tb     *tele.Bot
	sender messageSender
	svc    ScanService
	subs   Subscribers
}

// StartTelegramBot wires the command handlers and starts long polling.
// Returns nil when TELEGRAM_BOT_TOKEN is unset so callers can run
// API-only.
func StartTelegramBot(svc ScanService, subs Subscribers) *Bot {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	tb, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b := &Bot{tb: tb, sender: tb, svc: svc, subs: subs}
	b.registerHandlers()

	log.Println("Telegram bot started")
	go tb.Start()
	return b
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.tb.Handle("/start", func(c tele.Context) error {
		return c.Send(helpText())
	})

	b.tb.Handle("/help", func(c tele.Context) error {
		return c.Send(helpText())
	})

	b.tb.Handle("/fomo", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /fomo <coin>\nExample: /fomo doge")
		}
		outcome, err := b.svc.Scan(context.Background(), c.Sender().ID, args[0])
		if err != nil {
			return c.Send(scanErrorText(args[0], err))
		}
		return c.Send(formatOutcome(outcome))
	})

	b.tb.Handle("/balance", func(c tele.Context) error {
		summary, err := b.svc.Balance(context.Background(), c.Sender().ID)
		if err != nil {
			return c.Send("Balance is unavailable right now, try again in a minute.")
		}
		return c.Send(formatBalance(summary))
	})

	b.tb.Handle("/buy", func(c tele.Context) error {
		menu := &tele.ReplyMarkup{}
		rows := make([]tele.Row, 0, len(domain.TokenPackages))
		for _, pkg := range domain.TokenPackages {
			label := fmt.Sprintf("%s - %d scans for %d ⭐", pkg.Title, pkg.Tokens, pkg.Stars)
			rows = append(rows, menu.Row(menu.Data(label, "buy", pkg.Key)))
		}
		menu.Inline(rows...)
		return c.Send("Pick a token package:", menu)
	})

	b.tb.Handle(&tele.Btn{Unique: "buy"}, func(c tele.Context) error {
		pkg, ok := domain.PackageByKey(c.Data())
		if !ok {
			return c.Respond(&tele.CallbackResponse{Text: "Unknown package"})
		}
		if err := c.Respond(); err != nil {
			return err
		}
		return c.Send(&tele.Invoice{
			Title:       pkg.Title,
			Description: fmt.Sprintf("%d FOMO scans", pkg.Tokens),
			Payload:     pkg.Key,
			Currency:    "XTR",
			Prices:      []tele.Price{{Label: pkg.Title, Amount: pkg.Stars}},
		})
	})

	b.tb.Handle(tele.OnCheckout, func(c tele.Context) error {
		return c.Accept()
	})

	b.tb.Handle(tele.OnPayment, func(c tele.Context) error {
		payment := c.Message().Payment
		balance, err := b.svc.CreditPackage(context.Background(), c.Sender().ID, payment.Payload)
		if err != nil {
			log.Printf("crediting payment %q for user %d failed: %v", payment.Payload, c.Sender().ID, err)
			return c.Send("Payment received but crediting failed. Contact support with /help.")
		}
		return c.Send(fmt.Sprintf("Payment received! Token balance: %d. Happy scanning.", balance))
	})

	b.tb.Handle("/subscribe", func(c tele.Context) error {
		if err := b.subs.Add(context.Background(), c.Chat().ID); err != nil {
			return c.Send("Could not subscribe right now, try again later.")
		}
		return c.Send("Subscribed. You will get an alert when the scanner spots a high-FOMO coin.")
	})

	b.tb.Handle("/unsubscribe", func(c tele.Context) error {
		if err := b.subs.Remove(context.Background(), c.Chat().ID); err != nil {
			return c.Send("Could not unsubscribe right now, try again later.")
		}
		return c.Send("Unsubscribed. No more alerts.")
	})
}

// BroadcastAlert sends an alert to every subscriber. Chats that reject
// the message (blocked bot, deleted chat) are dropped from the list.
func (b *Bot) BroadcastAlert(ctx context.Context, alert *domain.FomoAlert) error {
	chats, err := b.subs.List(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}

	text := formatAlert(alert)
	for _, chatID := range chats {
		if _, err := b.sender.Send(tele.ChatID(chatID), text); err != nil {
			log.Printf("broadcast to chat %d failed, removing subscriber: %v", chatID, err)
			if err := b.subs.Remove(ctx, chatID); err != nil {
				log.Printf("removing subscriber %d failed: %v", chatID, err)
			}
		}
	}
	return nil
}

var signalEmoji = map[domain.Signal]string{
	domain.SignalStealthAccumulation: "🔍",
	domain.SignalHighConviction:      "🚀",
	domain.SignalEarlyMomentum:       "⚡",
	domain.SignalVolumeBuilding:      "📈",
	domain.SignalAlreadyPumping:      "🔥",
	domain.SignalModerateActivity:    "👀",
	domain.SignalWatchList:           "📋",
	domain.SignalLowActivity:         "😴",
}

func formatOutcome(outcome *domain.ScanOutcome) string {
	if !outcome.Allowed {
		switch outcome.Reason {
		case domain.DenyCooldown:
			return fmt.Sprintf("Slow down - try again in %d second(s).", outcome.RetryAfterSecs)
		default:
			return "No scans remaining. Use /buy to get more tokens, or wait for tomorrow's free scans."
		}
	}

	snap := outcome.Snapshot
	result := outcome.Result
	lines := []string{
		fmt.Sprintf("%s %s (%s)", signalEmoji[result.Signal], snap.Name, strings.ToUpper(snap.Symbol)),
		fmt.Sprintf("FOMO score: %d/100 - %s", result.Score, result.Signal),
		fmt.Sprintf("Price: $%s (24h %+.2f%%)", formatPrice(snap.PriceUSD), snap.Change24hPct),
		fmt.Sprintf("Volume: $%.0f (%.1fx average)", snap.Volume24h, snap.VolumeSpikeRatio),
	}
	if outcome.Spend != nil && outcome.Spend.Message != "" {
		lines = append(lines, "", outcome.Spend.Message)
	}
	return strings.Join(lines, "\n")
}

func formatBalance(summary *domain.BalanceSummary) string {
	return strings.Join([]string{
		"Your balance:",
		fmt.Sprintf("Tokens: %d", summary.Purchased),
		fmt.Sprintf("Free scans today: %d", summary.DailyRemaining),
		fmt.Sprintf("Bonus scans: %d", summary.BonusRemaining),
		fmt.Sprintf("Total available: %d", summary.TotalAvailable),
	}, "\n")
}

func formatAlert(alert *domain.FomoAlert) string {
	return strings.Join([]string{
		fmt.Sprintf("%s FOMO alert: %s (%s)", signalEmoji[alert.Signal], alert.Name, strings.ToUpper(alert.Symbol)),
		fmt.Sprintf("Score: %d/100 - %s", alert.Score, alert.Signal),
		fmt.Sprintf("Price: $%s (24h %+.2f%%)", formatPrice(alert.PriceUSD), alert.Change24hPct),
		fmt.Sprintf("Volume spike: %.1fx average", alert.VolumeSpike),
		"",
		"Check it with /fomo before it moves.",
	}, "\n")
}

func scanErrorText(coinQuery string, err error) string {
	if errors.Is(err, domain.ErrUnsupportedCoin) {
		return fmt.Sprintf("Unknown coin %q. Try the CoinGecko id, e.g. /fomo bitcoin", coinQuery)
	}
	return fmt.Sprintf("Scan for %s failed, try again in a minute.", coinQuery)
}

// formatPrice keeps sub-cent coins readable without printing eight
// decimals for everything.
func formatPrice(price float64) string {
	switch {
	case price >= 1:
		return fmt.Sprintf("%.2f", price)
	case price >= 0.01:
		return fmt.Sprintf("%.4f", price)
	default:
		return fmt.Sprintf("%.8f", price)
	}
}

func helpText() string {
	return strings.Join([]string{
		"Crypto FOMO bot - scan any coin for FOMO signals.",
		"",
		"/fomo <coin> - run a FOMO scan (e.g. /fomo doge)",
		"/balance - show remaining scans and tokens",
		"/buy - buy token packages with Telegram Stars",
		"/subscribe - get alerts from the market scanner",
		"/unsubscribe - stop alerts",
		"/ping - check the bot is alive",
		"",
		"You start with 3 bonus scans plus 5 free scans per day.",
	}, "\n")
}
