package trader

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/brendanplayford/kalshi-weather-trader/internal/config"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/prob"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/strategy"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/weather"
)

// AlertLevel grades operator alerts.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertError    AlertLevel = "error"
	AlertCritical AlertLevel = "critical"
)

// Notifier delivers operator notifications. Implementations must never
// fail the trading loop.
type Notifier interface {
	TradeOpened(o *strategy.Opportunity, count, costCents int, paper bool)
	PositionSettled(p Position, result string, pnlCents int)
	Alert(level AlertLevel, msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) TradeOpened(*strategy.Opportunity, int, int, bool) {}
func (NopNotifier) PositionSettled(Position, string, int)             {}
func (NopNotifier) Alert(AlertLevel, string)                          {}

// TradeLog receives durable records of placed trades and settlements.
type TradeLog interface {
	LogTrade(p Position) error
	LogSettlement(p Position, result string, pnlCents int, settledAt time.Time) error
}

// NopTradeLog discards records.
type NopTradeLog struct{}

func (NopTradeLog) LogTrade(Position) error                            { return nil }
func (NopTradeLog) LogSettlement(Position, string, int, time.Time) error { return nil }

// Executor walks ranked opportunities through the risk gates and places
// whatever survives.
type Executor struct {
	venue    Venue
	state    *State
	breaker  *Breaker
	params   config.Params
	notifier Notifier
	tradeLog TradeLog
	log      zerolog.Logger
	now      func() time.Time
}

// NewExecutor wires the executor. Nil notifier and tradeLog default to
// no-ops.
func NewExecutor(venue Venue, state *State, breaker *Breaker, params config.Params, notifier Notifier, tradeLog TradeLog, log zerolog.Logger) *Executor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if tradeLog == nil {
		tradeLog = NopTradeLog{}
	}
	return &Executor{
		venue:    venue,
		state:    state,
		breaker:  breaker,
		params:   params,
		notifier: notifier,
		tradeLog: tradeLog,
		log:      log,
		now:      time.Now,
	}
}

// Execute runs the gate sequence over opportunities (already ranked best
// first) and returns how many trades were placed.
func (e *Executor) Execute(opportunities []strategy.Opportunity) int {
	now := e.now()

	if tripped, reason := e.breaker.Tripped(now); tripped {
		e.log.Warn().Str("reason", reason).Msg("circuit breaker open, no trading")
		if e.breaker.ShouldAlert(now) {
			e.notifier.Alert(AlertCritical, "Circuit breaker open: "+reason)
		}
		return 0
	}

	balance, err := e.venue.BalanceCents()
	if err != nil {
		e.log.Error().Err(err).Msg("balance fetch failed, skipping cycle")
		return 0
	}

	venueEvents, venueOpen, err := e.venue.OpenPositions()
	if err != nil {
		e.log.Error().Err(err).Msg("position fetch failed, skipping cycle")
		return 0
	}

	// The dedup set is the union of what the venue reports and what local
	// state knows; the two can drift after a restart or a manual trade.
	held := e.state.Positions()
	heldTickers := make(map[string]bool, len(held))
	heldEvents := make(map[string]bool, len(held)+len(venueEvents))
	for event := range venueEvents {
		heldEvents[event] = true
	}
	openCount := venueOpen
	if len(held) > openCount {
		openCount = len(held)
	}
	groupCounts := make(map[string]int)
	cityDates := make(map[string]bool)
	for _, p := range held {
		heldTickers[p.Ticker] = true
		if p.EventTicker != "" {
			heldEvents[p.EventTicker] = true
		}
		if st, ok := weather.Stations[p.City]; ok {
			groupCounts[st.CorrelationGroup()]++
		}
		cityDates[p.City+"|"+p.TargetDate] = true
	}

	placed := 0
	for i := range opportunities {
		o := &opportunities[i]

		if e.state.TradesToday(now) >= e.params.MaxDailyTrades {
			e.log.Info().Msg("daily trade limit reached")
			break
		}
		if openCount+placed >= e.params.MaxOpenPositions {
			e.log.Info().Msg("open position limit reached")
			break
		}

		if e.duplicate(o, heldTickers, heldEvents) {
			continue
		}

		group := ""
		if st, ok := weather.Stations[o.City]; ok {
			group = st.CorrelationGroup()
		}
		if group != "" && groupCounts[group] >= e.params.MaxPerGroup {
			e.log.Debug().Str("ticker", o.Ticker).Str("group", group).
				Msg("skip: correlation group full")
			continue
		}
		if cityDates[o.City+"|"+o.TargetDate] {
			e.log.Debug().Str("ticker", o.Ticker).Msg("skip: city already traded for date")
			continue
		}

		// Size on the model's own fair value, not the market-anchored
		// blend. Sizing against the blend double-counts the market.
		fairP := float64(o.ModelFairCents) / 100
		count := prob.KellySize(fairP, o.PriceCents, balance, e.params.KellyFraction, e.params.MaxContracts)
		if count == 0 {
			e.log.Debug().Str("ticker", o.Ticker).Msg("skip: Kelly sized to zero")
			continue
		}

		cost := o.PriceCents * count
		if cost > e.params.MaxCostPerTradeCents {
			count = e.params.MaxCostPerTradeCents / o.PriceCents
			if count == 0 {
				continue
			}
			cost = o.PriceCents * count
		}

		if balance-cost < e.params.BalanceBufferCents {
			e.log.Debug().Str("ticker", o.Ticker).Int("balance", balance).
				Int("cost", cost).Msg("skip: balance buffer")
			continue
		}

		orderID, err := e.venue.PlaceBuy(o.Ticker, o.Side, count, o.PriceCents)
		if err != nil {
			e.log.Error().Err(err).Str("ticker", o.Ticker).Msg("order failed")
			continue
		}

		paper := e.venue.Name() == "paper"
		pos := Position{
			Ticker:      o.Ticker,
			EventTicker: o.EventTicker,
			City:        o.City,
			Side:        o.Side,
			PriceCents:  o.PriceCents,
			Count:       count,
			CostCents:   cost,
			TradeTime:   now.Format(time.RFC3339),
			TargetDate:  o.TargetDate,
			OrderID:     orderID,
			Paper:       paper,
		}
		if o.Ensemble != nil {
			pos.Forecasts = o.Ensemble.Forecasts
		}
		if err := e.state.AddPosition(pos, now); err != nil {
			e.log.Error().Err(err).Str("ticker", o.Ticker).Msg("persist position")
		}
		if err := e.tradeLog.LogTrade(pos); err != nil {
			e.log.Warn().Err(err).Str("ticker", o.Ticker).Msg("trade log write")
		}

		e.log.Info().Str("ticker", o.Ticker).Str("side", string(o.Side)).
			Int("count", count).Int("price", o.PriceCents).Int("cost", cost).
			Float64("adjusted_edge", o.AdjustedEdgeCents).
			Str("contract", o.Describe()).Msg("trade placed")
		if !paper || e.params.PaperNotifications {
			e.notifier.TradeOpened(o, count, cost, paper)
		}

		heldTickers[o.Ticker] = true
		heldEvents[o.EventTicker] = true
		if group != "" {
			groupCounts[group]++
		}
		cityDates[o.City+"|"+o.TargetDate] = true
		balance -= cost
		placed++
	}
	return placed
}

// duplicate reports whether the opportunity overlaps something already
// held: same ticker, same event, or a ticker under a held event's prefix.
func (e *Executor) duplicate(o *strategy.Opportunity, heldTickers, heldEvents map[string]bool) bool {
	if heldTickers[o.Ticker] || heldEvents[o.EventTicker] {
		return true
	}
	for event := range heldEvents {
		if event != "" && len(o.Ticker) > len(event) && o.Ticker[:len(event)] == event {
			return true
		}
	}
	return false
}
