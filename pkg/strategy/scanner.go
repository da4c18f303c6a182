package strategy

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendanplayford/kalshi-weather-trader/internal/config"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/forecast"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/prob"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/weather"
)

// EventSource lists open events (with nested markets) for a series.
type EventSource interface {
	GetOpenEvents(seriesTicker string) ([]rest.Event, error)
}

// Forecaster produces staleness-adjusted ensemble forecasts.
type Forecaster interface {
	StalenessAdjusted(ctx context.Context, station *weather.Station, targetDate time.Time) (*forecast.Result, error)
}

// Scanner walks every configured city's open events and evaluates each
// market through the filter cascade.
type Scanner struct {
	events   EventSource
	fc       Forecaster
	params   config.Params
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewScanner builds a scanner. A nil recorder discards telemetry.
func NewScanner(events EventSource, fc Forecaster, params config.Params, recorder Recorder, log zerolog.Logger) *Scanner {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Scanner{
		events:   events,
		fc:       fc,
		params:   params,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// cachedForecast is the per-cycle (city, date) forecast cache entry.
// Failed fetches cache too, so one bad city/date costs one attempt.
type cachedForecast struct {
	result     *forecast.Result
	confidence float64
	ok         bool
}

// FindOpportunities scans all cities and returns opportunities sorted by
// adjusted edge, best first. The forecast cache is scoped to this one call
// and never leaks across cycles.
func (s *Scanner) FindOpportunities(ctx context.Context) []Opportunity {
	var opportunities []Opportunity
	cache := make(map[string]cachedForecast)

	codes := make([]string, 0, len(weather.Stations))
	for code := range weather.Stations {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		station := weather.Stations[code]

		events, err := s.events.GetOpenEvents(station.Series)
		if err != nil {
			s.log.Warn().Err(err).Str("city", code).Msg("event scan failed")
			continue
		}

		for i := range events {
			opportunities = append(opportunities,
				s.scanEvent(ctx, station, &events[i], cache)...)
		}
	}

	// Stable rank, deterministic tie-break on ticker then side.
	sort.SliceStable(opportunities, func(i, j int) bool {
		a, b := &opportunities[i], &opportunities[j]
		if a.AdjustedEdgeCents != b.AdjustedEdgeCents {
			return a.AdjustedEdgeCents > b.AdjustedEdgeCents
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Side < b.Side
	})
	return opportunities
}

func (s *Scanner) scanEvent(ctx context.Context, station *weather.Station, event *rest.Event, cache map[string]cachedForecast) []Opportunity {
	now := s.now()
	targetDate, ok := parseEventDate(event.Title, now)
	if !ok {
		return nil
	}

	daysAhead := calendarDaysBetween(now, targetDate)
	if daysAhead < 0 {
		daysAhead = 0
	}
	cityStd := station.StdDev(targetDate)
	dateStr := targetDate.Format("2006-01-02")

	cacheKey := station.Code + "|" + dateStr
	entry, cached := cache[cacheKey]
	if !cached {
		result, err := s.fc.StalenessAdjusted(ctx, station, targetDate)
		if err != nil {
			s.log.Warn().Err(err).Str("city", station.Code).Str("date", dateStr).
				Msg("no ensemble forecast")
			cache[cacheKey] = cachedForecast{}
			return nil
		}
		entry = cachedForecast{
			result:     result,
			confidence: prob.Confidence(forecastValues(result)),
			ok:         true,
		}
		cache[cacheKey] = entry
	}
	if !entry.ok || entry.confidence < s.params.MinConfidence {
		return nil
	}

	// Provider-spread hard filter: heavy model disagreement voids the
	// whole event, not just one market.
	var providerSpread *float64
	if spread, ok := entry.result.Spread(); ok {
		if spread > s.params.MaxProviderSpreadF {
			s.log.Info().Str("city", station.Code).Str("date", dateStr).
				Float64("spread_f", spread).Msg("skip event: provider spread too wide")
			return nil
		}
		providerSpread = &spread
	}

	var opportunities []Opportunity
	for i := range event.Markets {
		opportunities = append(opportunities, s.scanMarket(marketContext{
			market:         &event.Markets[i],
			station:        station,
			eventTicker:    event.EventTicker,
			targetDate:     dateStr,
			daysAhead:      daysAhead,
			cityStd:        cityStd,
			forecastF:      entry.result.Mean,
			ensemble:       entry.result,
			confidence:     entry.confidence,
			providerSpread: providerSpread,
		})...)
	}
	return opportunities
}

// marketContext carries everything one market evaluation needs.
type marketContext struct {
	market         *rest.Market
	station        *weather.Station
	eventTicker    string
	targetDate     string
	daysAhead      int
	cityStd        float64
	forecastF      float64
	ensemble       *forecast.Result
	confidence     float64
	providerSpread *float64
}

func (s *Scanner) scanMarket(mc marketContext) []Opportunity {
	m := mc.market

	// Strike validation: a market with broken strikes is skipped, never
	// guessed at.
	for _, strike := range []*float64{m.FloorStrike, m.CapStrike} {
		if strike != nil && (*strike < 0 || *strike > 150) {
			s.log.Error().Str("ticker", m.Ticker).Float64("strike", *strike).
				Msg("strike out of range")
			return nil
		}
	}
	if m.FloorStrike == nil && m.CapStrike == nil {
		s.log.Error().Str("ticker", m.Ticker).Msg("market has no strikes")
		return nil
	}
	if !m.StrikeType.Valid() {
		s.log.Error().Str("ticker", m.Ticker).Str("strike_type", string(m.StrikeType)).
			Msg("unknown strike type")
		return nil
	}
	if m.StrikeType == rest.StrikeBetween && (m.FloorStrike == nil || m.CapStrike == nil) {
		s.log.Error().Str("ticker", m.Ticker).Msg("between market missing a strike")
		return nil
	}

	if ct := contractType(m.Ticker); ct != "" {
		s.log.Debug().Str("ticker", m.Ticker).Str("contract_type", ct).
			Str("strike_type", string(m.StrikeType)).Msg("evaluating market")
	}

	if (m.YesAsk == 0 && m.YesBid == 0) || m.Volume < s.params.MinVolume {
		return nil
	}

	spread := 0
	if m.YesAsk > 0 && m.YesBid > 0 {
		spread = m.YesAsk - m.YesBid
	}
	if spread > s.params.MaxSpreadCents {
		s.log.Debug().Str("ticker", m.Ticker).Int("spread", spread).Msg("skip: illiquid")
		s.recordSkip(mc, "", 0, "spread", nil, nil, nil, nil)
		return nil
	}

	// Strike proximity: a forecast sitting on a strike is a coin flip the
	// venue can price better in real time.
	if dist, ok := strikeDistance(mc.forecastF, m.FloorStrike, m.CapStrike); ok && dist < s.params.StrikeProximityF {
		s.log.Debug().Str("ticker", m.Ticker).Float64("distance_f", dist).
			Msg("skip: forecast too close to strike")
		s.recordSkip(mc, "", 0, "strike_proximity", nil, nil, nil, nil)
		return nil
	}

	fairP := prob.FairProbability(mc.forecastF, mc.cityStd, mc.confidence,
		mc.daysAhead, m.StrikeType, m.FloorStrike, m.CapStrike)
	modelFair := int(math.Round(fairP * 100))

	halfSpread := 0.0
	if m.YesAsk > 0 && m.YesBid > 0 {
		halfSpread = float64(m.YesAsk-m.YesBid) / 2
	}

	var opportunities []Opportunity

	yesOpp, skipContract := s.evaluateYes(mc, fairP, modelFair, halfSpread)
	if yesOpp != nil {
		opportunities = append(opportunities, *yesOpp)
	}
	if skipContract {
		return opportunities
	}

	if noOpp := s.evaluateNo(mc, fairP, modelFair, halfSpread); noOpp != nil {
		opportunities = append(opportunities, *noOpp)
	}
	return opportunities
}

func strikeDistance(forecastF float64, floor, cap *float64) (float64, bool) {
	switch {
	case floor != nil && cap != nil:
		return math.Min(math.Abs(forecastF-*floor), math.Abs(forecastF-*cap)), true
	case cap != nil:
		return math.Abs(forecastF - *cap), true
	case floor != nil:
		return math.Abs(forecastF - *floor), true
	}
	return 0, false
}

func forecastValues(r *forecast.Result) []float64 {
	vals := make([]float64, 0, len(r.Forecasts))
	// Deterministic order so the confidence sum is stable.
	names := make([]string, 0, len(r.Forecasts))
	for name := range r.Forecasts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		vals = append(vals, r.Forecasts[name])
	}
	return vals
}

func calendarDaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
