package trader

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendanplayford/kalshi-weather-trader/internal/config"
)

// Breaker is the loss circuit breaker. It counts open exposure placed
// today as already lost, so the daemon stops trading before realized
// losses catch up with the book. It runs in paper mode too; paper risk
// discipline is the point of paper mode.
type Breaker struct {
	state  *State
	params config.Params
	log    zerolog.Logger
}

// NewBreaker builds a breaker over the shared state.
func NewBreaker(state *State, params config.Params, log zerolog.Logger) *Breaker {
	return &Breaker{state: state, params: params, log: log}
}

// TodayExposure sums the cost of open positions opened today. Trade times
// are matched by date prefix against both local and UTC, so a position
// opened late evening local never slips through on the UTC day boundary.
func (b *Breaker) TodayExposure(now time.Time) int {
	localDay := DayKey(now)
	utcDay := DayKey(now.UTC())

	exposure := 0
	for _, p := range b.state.Positions() {
		if strings.HasPrefix(p.TradeTime, localDay) || strings.HasPrefix(p.TradeTime, utcDay) {
			exposure += p.CostCents
		}
	}
	return exposure
}

// Tripped reports whether trading must halt, with the reason. Open
// exposure counts against both the daily and weekly budgets.
func (b *Breaker) Tripped(now time.Time) (bool, string) {
	exposure := b.TodayExposure(now)

	dailyAtRisk := b.state.DailyPnL(now) - exposure
	if dailyAtRisk <= -b.params.MaxDailyLossCents {
		return true, "daily loss limit reached"
	}

	weeklyAtRisk := b.state.WeeklyPnL(now) - exposure
	if weeklyAtRisk <= -b.params.MaxWeeklyLossCents {
		return true, "weekly loss limit reached"
	}
	return false, ""
}

// ShouldAlert reports whether a breaker trip warrants a fresh operator
// alert, throttled to one per alert interval. It records the alert time.
func (b *Breaker) ShouldAlert(now time.Time) bool {
	last := b.state.LastBreakerAlert()
	if !last.IsZero() && now.Sub(last) < b.params.BreakerAlertInterval {
		return false
	}
	if err := b.state.SetLastBreakerAlert(now); err != nil {
		b.log.Warn().Err(err).Msg("persist breaker alert time")
	}
	return true
}
