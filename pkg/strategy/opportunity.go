// Package strategy scans Kalshi weather markets for mispricings and emits
// ranked trading opportunities.
package strategy

import (
	"strconv"
	"time"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/forecast"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
)

// Opportunity is one tradeable mispricing that survived the filter
// cascade.
type Opportunity struct {
	City        string    `json:"city"`
	Ticker      string    `json:"ticker"`
	EventTicker string    `json:"event_ticker"`
	Side        rest.Side `json:"side"`

	PriceCents        int     `json:"price"`
	ModelFairCents    int     `json:"model_fair"`
	BlendedFairCents  int     `json:"fair"`
	RawEdgeCents      float64 `json:"raw_edge"`
	AdjustedEdgeCents float64 `json:"adjusted_edge"`
	Confidence        float64 `json:"confidence"`

	ForecastF float64          `json:"forecast"`
	Ensemble  *forecast.Result `json:"ensemble_details"`

	Floor      *float64 `json:"floor,omitempty"`
	Cap        *float64 `json:"cap,omitempty"`
	Volume     int      `json:"volume"`
	TargetDate string   `json:"target_date"` // YYYY-MM-DD
}

// Describe renders the contract in plain words for logs and alerts.
func (o *Opportunity) Describe() string {
	switch {
	case o.Cap != nil && o.Floor == nil:
		return o.City + " below " + formatStrike(*o.Cap) + "°F"
	case o.Floor != nil && o.Cap == nil:
		return o.City + " above " + formatStrike(*o.Floor) + "°F"
	case o.Floor != nil && o.Cap != nil:
		return o.City + " " + formatStrike(*o.Floor) + "-" + formatStrike(*o.Cap) + "°F"
	default:
		return o.City
	}
}

// Record is one telemetry entry per filter outcome, written for every
// market/side the scanner looks at, trades and skips alike. The record
// stream doubles as a backtest dataset.
type Record struct {
	Ts             time.Time `json:"ts"`
	Ticker         string    `json:"ticker"`
	City           string    `json:"city"`
	ForecastF      float64   `json:"forecast"`
	Confidence     float64   `json:"confidence"`
	YesAsk         int       `json:"market_yes_ask"`
	YesBid         int       `json:"market_yes_bid"`
	Floor          *float64  `json:"floor_strike,omitempty"`
	Cap            *float64  `json:"cap_strike,omitempty"`
	StrikeType     string    `json:"strike_type"`
	Side           string    `json:"side,omitempty"`
	PriceCents     int       `json:"price,omitempty"`
	ModelFair      *int      `json:"model_fair,omitempty"`
	BlendedFair    *int      `json:"blended_fair,omitempty"`
	RawEdge        *float64  `json:"raw_edge,omitempty"`
	AdjustedEdge   *float64  `json:"adjusted_edge,omitempty"`
	Action         string    `json:"action"` // "trade" or "skip"
	SkipReason     string    `json:"skip_reason,omitempty"`
	DaysAhead      int       `json:"days_ahead"`
	StdDevUsed     float64   `json:"std_dev_used"`
	ProviderSpread *float64  `json:"provider_spread,omitempty"`
}

// Recorder receives scan telemetry. Implementations must not fail the
// scan; errors are theirs to log.
type Recorder interface {
	RecordScan(rec *Record)
}

// NopRecorder discards telemetry.
type NopRecorder struct{}

// RecordScan implements Recorder.
func (NopRecorder) RecordScan(*Record) {}

func formatStrike(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
