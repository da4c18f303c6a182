package prob

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
)

func fp(v float64) *float64 { return &v }

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, NormalCDF(0), 1e-9)
	assert.InDelta(t, 0.8413, NormalCDF(1), 1e-4)
	assert.InDelta(t, 0.1587, NormalCDF(-1), 1e-4)
	assert.InDelta(t, 0.9772, NormalCDF(2), 1e-4)
}

func TestLogitSigmoidRoundTrip(t *testing.T) {
	for _, p := range []float64{0.02, 0.1, 0.5, 0.9, 0.98} {
		assert.InDelta(t, p, Sigmoid(Logit(p)), 1e-12)
	}
}

func TestBlend(t *testing.T) {
	// Full weight on either input returns that input (clamped).
	assert.InDelta(t, 0.7, Blend(0.7, 0.3, 1.0), 1e-9)
	assert.InDelta(t, 0.3, Blend(0.7, 0.3, 0.0), 1e-9)

	// The blend sits between model and market.
	b := Blend(0.8, 0.4, 0.3)
	assert.Greater(t, b, 0.4)
	assert.Less(t, b, 0.8)

	// Extreme inputs are clamped before blending.
	assert.InDelta(t, 0.98, Blend(1.0, 1.0, 0.5), 1e-9)
	assert.InDelta(t, 0.02, Blend(0.0, 0.0, 0.5), 1e-9)
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name      string
		forecasts []float64
		want      float64
		delta     float64
	}{
		{"no providers", nil, 0, 0},
		{"single provider baseline", []float64{75}, 0.7, 0},
		// Two identical forecasts: agreement 1.0, share 2/3.
		{"two in perfect agreement", []float64{80, 80}, 0.7*1.0 + 0.3*(2.0/3.0), 1e-9},
		// Three identical: agreement 1.0, share 1.0.
		{"three in perfect agreement", []float64{80, 80, 80}, 1.0, 1e-9},
		// Wild disagreement floors the agreement term at 0.5.
		{"heavy disagreement", []float64{60, 90, 75}, 0.7*0.5 + 0.3*1.0, 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.forecasts), tt.delta+1e-12)
		})
	}
}

func TestLeadTimeFactor(t *testing.T) {
	assert.Equal(t, 0.5, LeadTimeFactor(0))
	assert.Equal(t, 0.5, LeadTimeFactor(-1))
	assert.Equal(t, 0.75, LeadTimeFactor(1))
	assert.InDelta(t, 1.35, LeadTimeFactor(2), 1e-9)
	assert.InDelta(t, 2.40, LeadTimeFactor(5), 1e-9)
}

func TestFairProbability_Greater(t *testing.T) {
	// Forecast well above the floor: near-certain YES.
	p := FairProbability(90, 2.0, 0.8, 0, rest.StrikeGreater, fp(80), nil)
	assert.Greater(t, p, 0.99)

	// Forecast at the floor: coin flip.
	p = FairProbability(80, 2.0, 0.8, 0, rest.StrikeGreater, fp(80), nil)
	assert.InDelta(t, 0.5, p, 1e-9)

	// Missing strike falls back to 0.5.
	assert.Equal(t, 0.5, FairProbability(80, 2.0, 0.8, 0, rest.StrikeGreater, nil, nil))
}

func TestFairProbability_Less(t *testing.T) {
	p := FairProbability(70, 2.0, 0.8, 0, rest.StrikeLess, nil, fp(80))
	assert.Greater(t, p, 0.99)

	assert.Equal(t, 0.5, FairProbability(70, 2.0, 0.8, 0, rest.StrikeLess, nil, nil))
}

func TestFairProbability_Between(t *testing.T) {
	// Forecast centered in a wide bracket.
	p := FairProbability(80, 1.5, 0.8, 0, rest.StrikeBetween, fp(75), fp(85))
	assert.Greater(t, p, 0.99)

	// Symmetric bracket: probability is symmetric too.
	lo := FairProbability(74, 1.5, 0.8, 0, rest.StrikeBetween, fp(75), fp(85))
	hi := FairProbability(86, 1.5, 0.8, 0, rest.StrikeBetween, fp(75), fp(85))
	assert.InDelta(t, lo, hi, 1e-9)

	assert.Equal(t, 0.5, FairProbability(80, 1.5, 0.8, 0, rest.StrikeBetween, fp(75), nil))
}

func TestFairProbability_ConfidenceNarrowsSigma(t *testing.T) {
	// Higher confidence concentrates probability when the forecast clears
	// the strike.
	low := FairProbability(83, 2.0, 0.0, 0, rest.StrikeGreater, fp(80), nil)
	high := FairProbability(83, 2.0, 1.0, 0, rest.StrikeGreater, fp(80), nil)
	assert.Greater(t, high, low)
}

func TestFairProbability_LeadTimeWidensSigma(t *testing.T) {
	today := FairProbability(83, 2.0, 0.8, 0, rest.StrikeGreater, fp(80), nil)
	nextWeek := FairProbability(83, 2.0, 0.8, 7, rest.StrikeGreater, fp(80), nil)
	assert.Greater(t, today, nextWeek)
}

func TestFairProbability_UnknownStrikeType(t *testing.T) {
	assert.Equal(t, 0.5, FairProbability(80, 2.0, 0.8, 0, rest.StrikeType("custom"), fp(75), fp(85)))
}

func TestKellySize(t *testing.T) {
	tests := []struct {
		name         string
		fairP        float64
		price        int
		bankroll     int
		fraction     float64
		maxContracts int
		want         int
	}{
		{"degenerate probability zero", 0, 40, 10000, 0.25, 8, 0},
		{"degenerate probability one", 1, 40, 10000, 0.25, 8, 0},
		{"zero price", 0.6, 0, 10000, 0.25, 8, 0},
		{"negative edge sizes to zero", 0.3, 40, 10000, 0.25, 8, 0},
		{"fair coin at fair price", 0.5, 50, 10000, 0.25, 8, 0},
		{"cap applies", 0.9, 40, 100000, 0.25, 8, 8},
		{"tiny bankroll", 0.6, 40, 100, 0.25, 8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KellySize(tt.fairP, tt.price, tt.bankroll, tt.fraction, tt.maxContracts))
		})
	}
}

func TestKellySize_QuarterKellyArithmetic(t *testing.T) {
	// fairP=0.6, price=40¢: b=1.5, f*=(0.6*1.5-0.4)/1.5=1/3.
	// Quarter Kelly: 1/12 of bankroll. 12000¢/12 = 1000¢ -> 25 contracts,
	// capped at 8.
	got := KellySize(0.6, 40, 12000, 0.25, 100)
	fStar := (0.6*1.5 - 0.4) / 1.5
	want := int(12000 * fStar * 0.25 / 40)
	assert.Equal(t, want, got)
	assert.False(t, math.IsNaN(float64(got)))
}
