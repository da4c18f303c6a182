// Package notify delivers operator notifications over Telegram.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/strategy"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/trader"
)

// Telegram sends messages to a single operator chat. A send failure is
// logged and swallowed; notifications never fail the trading loop.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// New connects to the Telegram bot API. An empty token returns (nil, nil);
// callers treat a nil *Telegram as notifications disabled.
func New(token string, chatID int64, log zerolog.Logger) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram connect: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn().Err(err).Msg("telegram send failed")
	}
}

// TradeOpened implements trader.Notifier.
func (t *Telegram) TradeOpened(o *strategy.Opportunity, count, costCents int, paper bool) {
	mode := "LIVE"
	if paper {
		mode = "PAPER"
	}
	t.send(fmt.Sprintf(
		"📈 [%s] Opened %s %s\n%s\n%d @ %d¢ (cost $%.2f)\nedge %.1f¢, confidence %.0f%%",
		mode, o.Side, o.Ticker, o.Describe(),
		count, o.PriceCents, float64(costCents)/100,
		o.AdjustedEdgeCents, o.Confidence*100,
	))
}

// PositionSettled implements trader.Notifier.
func (t *Telegram) PositionSettled(p trader.Position, result string, pnlCents int) {
	icon := "✅"
	if pnlCents < 0 {
		icon = "❌"
	}
	t.send(fmt.Sprintf(
		"%s Settled %s %s\nresult: %s, P&L $%.2f",
		icon, p.Side, p.Ticker, result, float64(pnlCents)/100,
	))
}

// Alert implements trader.Notifier.
func (t *Telegram) Alert(level trader.AlertLevel, msg string) {
	icons := map[trader.AlertLevel]string{
		trader.AlertInfo:     "ℹ️",
		trader.AlertWarning:  "⚠️",
		trader.AlertError:    "🔴",
		trader.AlertCritical: "🚨",
	}
	t.send(fmt.Sprintf("%s %s", icons[level], msg))
}

// DailySummary sends the end-of-day recap.
func (t *Telegram) DailySummary(trades, wins, losses, pnlCents, openPositions int) {
	t.send(fmt.Sprintf(
		"📊 Daily summary\nsettled: %d (%d won / %d lost)\nP&L: $%.2f\nopen positions: %d",
		trades, wins, losses, float64(pnlCents)/100, openPositions,
	))
}
