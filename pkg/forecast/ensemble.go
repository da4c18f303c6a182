// Package forecast blends multiple numerical-model forecasts into a single
// accuracy-weighted, bias-corrected temperature estimate.
package forecast

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/weather"
)

const (
	// StaleAfter is how old NOAA's forecast updateTime may be before the
	// ensemble reruns with a penalty.
	StaleAfter = 6 * time.Hour

	// StalePenalty is the weight multiplier applied to a stale NOAA.
	StalePenalty = 0.5
)

// ErrNoProviders is returned when every provider failed for a fetch.
var ErrNoProviders = errors.New("forecast: no provider returned data")

// BiasKey identifies a (provider, city) systematic-error correction.
type BiasKey struct {
	Provider string
	City     string
}

// DefaultBias holds known additive model biases in °F, measured from
// settlements. Positive means the model runs warm; the bias is subtracted
// from the raw forecast.
var DefaultBias = map[BiasKey]float64{
	{"NOAA", "PHX"}:          0.0,
	{"OpenMeteo_GFS", "PHX"}: +0.5,
	{"OpenMeteo_GFS", "BOS"}: +1.0,
	{"OpenMeteo_ICON", "HOU"}: -0.8,
}

// Result is the outcome of one ensemble fetch.
type Result struct {
	Mean          float64            `json:"ensemble_forecast"`
	Forecasts     map[string]float64 `json:"individual_forecasts"`
	Weights       map[string]float64 `json:"weights"`
	ProviderCount int                `json:"provider_count"`
	NOAAAgeHours  float64            `json:"noaa_age_hours,omitempty"`
	NOAAStale     bool               `json:"noaa_stale"`
}

// Spread returns max−min across the individual forecasts and whether at
// least two providers contributed.
func (r *Result) Spread() (float64, bool) {
	if len(r.Forecasts) < 2 {
		return 0, false
	}
	first := true
	var lo, hi float64
	for _, f := range r.Forecasts {
		if first {
			lo, hi = f, f
			first = false
			continue
		}
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	return hi - lo, true
}

type weightedProvider struct {
	provider   weather.Provider
	baseWeight float64
}

// UpdateAgeReporter is implemented by providers that expose the age of
// their most recently fetched forecast.
type UpdateAgeReporter interface {
	UpdateAge(now time.Time) (time.Duration, bool)
}

// Ensemble combines registered providers into a weighted mean. Base
// weights are immutable after registration; per-call adjustments (like the
// NOAA staleness penalty) are passed as overrides.
type Ensemble struct {
	providers []weightedProvider
	accuracy  *AccuracyStore
	bias      map[BiasKey]float64
	noaa      UpdateAgeReporter
	log       zerolog.Logger
	now       func() time.Time
}

// New builds the standard five-provider ensemble: NOAA with a slight
// premium (gold standard for US stations), the two US-tuned global models
// at par, and the EU/Canadian models slightly discounted.
func New(accuracy *AccuracyStore, log zerolog.Logger) *Ensemble {
	e := &Ensemble{
		accuracy: accuracy,
		bias:     DefaultBias,
		log:      log,
		now:      time.Now,
	}
	e.AddProvider(weather.NewNOAAProvider(), 1.2)
	e.AddProvider(weather.NewOpenMeteoGFS(), 1.0)
	e.AddProvider(weather.NewOpenMeteoICON(), 0.9)
	e.AddProvider(weather.NewOpenMeteoECMWF(), 1.0)
	e.AddProvider(weather.NewOpenMeteoGEM(), 0.8)
	return e
}

// NewEmpty builds an ensemble with no registered providers.
func NewEmpty(accuracy *AccuracyStore, log zerolog.Logger) *Ensemble {
	return &Ensemble{
		accuracy: accuracy,
		bias:     DefaultBias,
		log:      log,
		now:      time.Now,
	}
}

// AddProvider registers a provider with its base weight. A provider named
// NOAA that reports its update age becomes the staleness source.
func (e *Ensemble) AddProvider(p weather.Provider, baseWeight float64) {
	e.providers = append(e.providers, weightedProvider{provider: p, baseWeight: baseWeight})
	if r, ok := p.(UpdateAgeReporter); ok && p.Name() == "NOAA" {
		e.noaa = r
	}
}

// ProviderCount returns the number of registered providers.
func (e *Ensemble) ProviderCount() int { return len(e.providers) }

// Accuracy exposes the store for the settlement feedback path.
func (e *Ensemble) Accuracy() *AccuracyStore { return e.accuracy }

// Fetch queries every provider in parallel and returns the weighted mean.
// weightOverrides multiplies the effective weight per provider name; pass
// nil for no adjustment. Returns ErrNoProviders when nothing succeeded.
func (e *Ensemble) Fetch(ctx context.Context, station *weather.Station, targetDate time.Time, weightOverrides map[string]float64) (*Result, error) {
	type fetchOutcome struct {
		name string
		temp float64
		err  error
	}

	outcomes := make([]fetchOutcome, len(e.providers))
	var wg sync.WaitGroup
	for i, wp := range e.providers {
		wg.Add(1)
		go func(i int, wp weightedProvider) {
			defer wg.Done()
			temp, err := wp.provider.FetchHigh(ctx, station, targetDate)
			outcomes[i] = fetchOutcome{name: wp.provider.Name(), temp: temp, err: err}
		}(i, wp)
	}
	wg.Wait()

	now := e.now()
	result := &Result{
		Forecasts: make(map[string]float64),
		Weights:   make(map[string]float64),
	}

	var weightedSum, totalWeight float64
	for i, wp := range e.providers {
		out := outcomes[i]
		if out.err != nil {
			e.log.Debug().Err(out.err).Str("provider", out.name).
				Str("city", station.Code).Msg("provider fetch failed")
			continue
		}

		temp := out.temp - e.bias[BiasKey{Provider: out.name, City: station.Code}]

		weight := wp.baseWeight * e.accuracy.Multiplier(out.name, now)
		if ov, ok := weightOverrides[out.name]; ok {
			weight *= ov
		}

		result.Forecasts[out.name] = temp
		result.Weights[out.name] = weight
		weightedSum += temp * weight
		totalWeight += weight
	}

	result.ProviderCount = len(result.Forecasts)
	if result.ProviderCount == 0 || totalWeight <= 0 {
		return nil, ErrNoProviders
	}

	result.Mean = weightedSum / totalWeight
	e.log.Debug().Float64("mean_f", result.Mean).Int("providers", result.ProviderCount).
		Str("city", station.Code).Str("date", targetDate.Format("2006-01-02")).
		Msg("ensemble forecast")
	return result, nil
}

// NOAAUpdateAgeHours returns hours since NOAA's cached forecast updateTime.
// The cache is populated by the most recent Fetch, so no extra request is
// made. ok is false before the first successful NOAA fetch.
func (e *Ensemble) NOAAUpdateAgeHours() (float64, bool) {
	if e.noaa == nil {
		return 0, false
	}
	age, ok := e.noaa.UpdateAge(e.now())
	if !ok {
		return 0, false
	}
	return age.Hours(), true
}

// StalenessAdjusted runs the ensemble once (which populates NOAA's
// updateTime cache), and reruns with a NOAA weight penalty when that
// update is older than StaleAfter. Base weights are never mutated; the
// penalty travels as a per-call override.
func (e *Ensemble) StalenessAdjusted(ctx context.Context, station *weather.Station, targetDate time.Time) (*Result, error) {
	result, err := e.Fetch(ctx, station, targetDate, nil)
	if err != nil {
		return nil, err
	}

	ageHours, ok := e.NOAAUpdateAgeHours()
	if ok {
		result.NOAAAgeHours = ageHours
	}
	if !ok || ageHours <= StaleAfter.Hours() {
		return result, nil
	}

	e.log.Info().Float64("age_hours", ageHours).Float64("penalty", StalePenalty).
		Str("city", station.Code).Msg("NOAA stale, rerunning ensemble with weight penalty")

	result, err = e.Fetch(ctx, station, targetDate, map[string]float64{"NOAA": StalePenalty})
	if err != nil {
		return nil, err
	}
	result.NOAAAgeHours = ageHours
	result.NOAAStale = true
	return result, nil
}
