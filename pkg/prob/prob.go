// Package prob contains the statistical core: normal CDF, confidence
// scoring, Bayesian log-odds market blending, fair-probability
// calculation, and Kelly-criterion position sizing.
package prob

import (
	"math"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
)

// MinProviderCount is the minimum ensemble size for any confidence at all.
const MinProviderCount = 1

// singleProviderConfidence is the fixed baseline when only one model
// reported. There is no agreement signal to measure.
const singleProviderConfidence = 0.7

// Probability clamp for log-odds blending. Keeps logit finite and stops
// either input from being treated as certain.
const (
	probClampLo = 0.02
	probClampHi = 0.98
)

// NormalCDF is the standard normal cumulative distribution function.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// Logit maps a probability to log-odds.
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Sigmoid is the inverse of Logit.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Blend combines the model probability and the market-implied probability
// in log-odds space. Both inputs are clamped to [0.02, 0.98] first.
// modelWeight=1 returns the (clamped) model, 0 the (clamped) market.
func Blend(modelP, marketP, modelWeight float64) float64 {
	modelP = clamp(modelP, probClampLo, probClampHi)
	marketP = clamp(marketP, probClampLo, probClampHi)
	return Sigmoid(modelWeight*Logit(modelP) + (1-modelWeight)*Logit(marketP))
}

// Confidence scores provider agreement on a 0..1 scale. With two or more
// forecasts it combines the dispersion of the individual forecasts (70%)
// with how many providers reported relative to three (30%).
func Confidence(forecasts []float64) float64 {
	n := len(forecasts)
	if n < MinProviderCount {
		return 0
	}
	if n < 2 {
		return singleProviderConfidence
	}

	var sum float64
	for _, f := range forecasts {
		sum += f
	}
	mean := sum / float64(n)

	var sq float64
	for _, f := range forecasts {
		sq += (f - mean) * (f - mean)
	}
	sigma := math.Sqrt(sq / float64(n))

	agreement := math.Max(0.5, 1.0-sigma/5.0)
	providerShare := math.Min(1.0, float64(n)/3.0)
	return clamp(0.7*agreement+0.3*providerShare, 0, 1)
}

// LeadTimeFactor scales dispersion by forecast horizon. Same-day forecasts
// are empirically about twice as accurate as the baseline.
func LeadTimeFactor(daysAhead int) float64 {
	switch {
	case daysAhead <= 0:
		return 0.5
	case daysAhead == 1:
		return 0.75
	default:
		return 1.0 + 0.35*float64(daysAhead-1)
	}
}

// FairProbability computes the CDF-based fair probability that a contract
// settles YES, given the forecast mean mu, the city×season dispersion
// sigma, the confidence score, and the lead time in days.
//
// High confidence narrows the effective sigma by at most 20%.
func FairProbability(mu, sigma, confidence float64, daysAhead int, strikeType rest.StrikeType, floor, cap *float64) float64 {
	confMult := 1.2 - 0.2*confidence
	adjusted := sigma * confMult * LeadTimeFactor(daysAhead)
	if adjusted <= 0 {
		// Unreachable when the dispersion tables are sane.
		adjusted = 1.0
	}

	switch strikeType {
	case rest.StrikeLess:
		if cap == nil {
			return 0.5
		}
		return NormalCDF((*cap - mu) / adjusted)
	case rest.StrikeGreater:
		if floor == nil {
			return 0.5
		}
		return 1.0 - NormalCDF((*floor-mu)/adjusted)
	case rest.StrikeBetween:
		if floor == nil || cap == nil {
			return 0.5
		}
		return NormalCDF((*cap-mu)/adjusted) - NormalCDF((*floor-mu)/adjusted)
	default:
		return 0.5
	}
}

// KellySize returns the number of contracts to buy for a binary contract
// at priceCents with fair win probability fairP, betting the given
// fraction of full Kelly, hard-capped at maxContracts.
func KellySize(fairP float64, priceCents, bankrollCents int, fraction float64, maxContracts int) int {
	if fairP <= 0 || fairP >= 1 || priceCents <= 0 {
		return 0
	}

	cost := float64(priceCents)
	b := (100 - cost) / cost
	q := 1 - fairP

	fStar := (fairP*b - q) / b
	fSafe := math.Max(0, fStar*fraction)

	count := int(float64(bankrollCents) * fSafe / cost)
	if count < 0 {
		count = 0
	}
	if count > maxContracts {
		count = maxContracts
	}
	return count
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
