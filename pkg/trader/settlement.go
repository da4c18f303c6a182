package trader

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/forecast"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/weather"
)

// MarketSource fetches one market's current status and result.
type MarketSource interface {
	GetMarket(ticker string) (*rest.Market, error)
}

// ObservationFunc returns the observed high in °F for a station and date.
type ObservationFunc func(ctx context.Context, station *weather.Station, date time.Time) (float64, error)

// Settler polls open positions for settlement, books realized P&L, and
// feeds the observed high back into provider accuracy.
type Settler struct {
	markets     MarketSource
	observe     ObservationFunc
	state       *State
	accuracy    *forecast.AccuracyStore
	notifier    Notifier
	tradeLog    TradeLog
	paperNotify bool
	log         zerolog.Logger
	now         func() time.Time
}

// NewSettler wires the settlement engine. Nil observe disables accuracy
// feedback; nil notifier and tradeLog default to no-ops.
func NewSettler(markets MarketSource, observe ObservationFunc, state *State, accuracy *forecast.AccuracyStore, notifier Notifier, tradeLog TradeLog, paperNotify bool, log zerolog.Logger) *Settler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if tradeLog == nil {
		tradeLog = NopTradeLog{}
	}
	return &Settler{
		markets:     markets,
		observe:     observe,
		state:       state,
		accuracy:    accuracy,
		notifier:    notifier,
		tradeLog:    tradeLog,
		paperNotify: paperNotify,
		log:         log,
		now:         time.Now,
	}
}

// SettleAll checks every open position once. One position's failure never
// blocks the rest. Returns the number settled.
func (s *Settler) SettleAll(ctx context.Context) int {
	settled := 0
	for _, p := range s.state.Positions() {
		ok, err := s.settleOne(ctx, p)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", p.Ticker).Msg("settlement check failed")
			continue
		}
		if ok {
			settled++
		}
	}
	return settled
}

func (s *Settler) settleOne(ctx context.Context, p Position) (bool, error) {
	market, err := s.markets.GetMarket(p.Ticker)
	if err != nil {
		return false, fmt.Errorf("fetch market: %w", err)
	}
	if market.Result == "" {
		return false, nil
	}

	won := market.Result == string(p.Side)
	var pnl int
	if won {
		pnl = (100 - p.PriceCents) * p.Count
	} else {
		pnl = -p.PriceCents * p.Count
	}

	now := s.now()
	if err := s.state.ClosePosition(p.Ticker, pnl, now); err != nil {
		return false, fmt.Errorf("close position: %w", err)
	}
	if err := s.tradeLog.LogSettlement(p, market.Result, pnl, now); err != nil {
		s.log.Warn().Err(err).Str("ticker", p.Ticker).Msg("settlement log write")
	}

	s.log.Info().Str("ticker", p.Ticker).Str("result", market.Result).
		Bool("won", won).Int("pnl", pnl).Int("total_pnl", s.state.TotalPnL()).
		Msg("position settled")
	if !p.Paper || s.paperNotify {
		s.notifier.PositionSettled(p, market.Result, pnl)
	}

	s.recordAccuracy(ctx, p)
	return true, nil
}

// recordAccuracy grades every provider snapshot in the position against
// the NOAA observed high for the settlement date. Failures only cost the
// feedback, never the settlement itself.
func (s *Settler) recordAccuracy(ctx context.Context, p Position) {
	if s.observe == nil || s.accuracy == nil || len(p.Forecasts) == 0 {
		return
	}

	station, ok := weather.Stations[p.City]
	if !ok {
		return
	}

	date, ok := settlementDate(p.Ticker, s.now())
	if !ok {
		var err error
		date, err = time.ParseInLocation("2006-01-02", p.TargetDate, station.Location())
		if err != nil {
			s.log.Debug().Str("ticker", p.Ticker).Msg("no settlement date, skipping accuracy feedback")
			return
		}
	}

	observed, err := s.observe(ctx, station, date)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", p.Ticker).Msg("observed high unavailable")
		return
	}

	now := s.now()
	for provider, predicted := range p.Forecasts {
		s.accuracy.Record(provider, predicted, observed, now)
	}
	s.log.Info().Str("city", p.City).Str("date", date.Format("2006-01-02")).
		Float64("observed_f", observed).Int("providers", len(p.Forecasts)).
		Msg("provider accuracy recorded")
}

var tickerDateRe = regexp.MustCompile(`-(\d{2})(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)(\d{2})-`)

var tickerMonths = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// settlementDate extracts the target date from a ticker like
// KXHIGHTPHX-25FEB14-T105, where 25 is the two-digit year and 14 the day.
func settlementDate(ticker string, now time.Time) (time.Time, bool) {
	m := tickerDateRe.FindStringSubmatch(ticker)
	if m == nil {
		return time.Time{}, false
	}
	year := 2000 + atoi2(m[1])
	day := atoi2(m[3])
	month := tickerMonths[m[2]]
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	if d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
