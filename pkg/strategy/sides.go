package strategy

import (
	"math"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/prob"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
)

// evaluateYes checks the YES side of a market. The second return value
// reports that the whole contract is suspect (our model and the market
// disagree too hard to trust either side), so NO must not be evaluated.
func (s *Scanner) evaluateYes(mc marketContext, fairP float64, modelFair int, halfSpread float64) (*Opportunity, bool) {
	m := mc.market
	ask := m.YesAsk
	if ask <= 0 || ask >= 95 {
		return nil, false
	}

	if ask < s.params.MinYesPriceCents {
		// Cheap YES quotes are usually the market being right about a
		// longshot. NO may still be worth a look.
		s.recordSkip(mc, "yes", ask, "yes_price_floor", &modelFair, nil, nil, nil)
		return nil, false
	}

	if math.Abs(float64(modelFair-ask)) > float64(s.params.MaxDisagreementCents) {
		s.log.Debug().Str("ticker", m.Ticker).Int("model_fair", modelFair).
			Int("ask", ask).Msg("skip contract: model far from market")
		s.recordSkip(mc, "yes", ask, "model_disagreement", &modelFair, nil, nil, nil)
		return nil, true
	}

	blendedP := prob.Blend(fairP, float64(ask)/100, s.params.ModelWeight)
	blendedFair := int(math.Round(blendedP * 100))

	if math.Abs(float64(blendedFair-ask)) > float64(s.params.MaxDisagreementCents) {
		s.recordSkip(mc, "yes", ask, "blended_disagreement", &modelFair, &blendedFair, nil, nil)
		return nil, true
	}
	if float64(blendedFair)/float64(ask) > s.params.MaxFairMarketRatio {
		s.recordSkip(mc, "yes", ask, "fair_market_ratio", &modelFair, &blendedFair, nil, nil)
		return nil, true
	}

	rawEdge := float64(blendedFair-ask) - halfSpread
	adjustedEdge := rawEdge * mc.confidence

	if adjustedEdge < s.params.MinEdgeCents {
		s.recordSkip(mc, "yes", ask, "edge_below_min", &modelFair, &blendedFair, &rawEdge, &adjustedEdge)
		return nil, false
	}
	if adjustedEdge > s.params.MaxEdgeCents {
		// An edge that big means a stale or broken quote, not free money.
		s.recordSkip(mc, "yes", ask, "edge_above_max", &modelFair, &blendedFair, &rawEdge, &adjustedEdge)
		return nil, false
	}

	opp := s.newOpportunity(mc, rest.SideYes, ask, modelFair, blendedFair, rawEdge, adjustedEdge)
	s.recordTrade(mc, "yes", ask, &modelFair, &blendedFair, &rawEdge, &adjustedEdge)
	return opp, false
}

// evaluateNo checks the NO side. Buying NO fills against the YES bid, so
// the effective NO price is 100 minus that bid.
func (s *Scanner) evaluateNo(mc marketContext, fairP float64, modelFair int, halfSpread float64) *Opportunity {
	m := mc.market
	bid := m.YesBid
	if bid <= 5 {
		return nil
	}
	noPrice := 100 - bid

	if noPrice < s.params.MinNoPriceCents {
		noModel := 100 - modelFair
		s.recordSkip(mc, "no", noPrice, "no_price_floor", &noModel, nil, nil, nil)
		return nil
	}

	noModelFair := 100 - modelFair
	if math.Abs(float64(noModelFair-noPrice)) > float64(s.params.MaxDisagreementCents) {
		s.recordSkip(mc, "no", noPrice, "model_disagreement", &noModelFair, nil, nil, nil)
		return nil
	}

	blendedYes := prob.Blend(fairP, float64(bid)/100, s.params.ModelWeight)
	blendedYesCents := int(math.Round(blendedYes * 100))
	noBlendedFair := 100 - blendedYesCents

	if math.Abs(float64(noBlendedFair-noPrice)) > float64(s.params.MaxDisagreementCents) {
		s.recordSkip(mc, "no", noPrice, "blended_disagreement", &noModelFair, &noBlendedFair, nil, nil)
		return nil
	}
	if float64(noBlendedFair)/float64(noPrice) > s.params.MaxFairMarketRatio {
		s.recordSkip(mc, "no", noPrice, "fair_market_ratio", &noModelFair, &noBlendedFair, nil, nil)
		return nil
	}

	rawEdge := float64(bid-blendedYesCents) - halfSpread
	adjustedEdge := rawEdge * mc.confidence

	if adjustedEdge < s.params.MinEdgeCents {
		s.recordSkip(mc, "no", noPrice, "edge_below_min", &noModelFair, &noBlendedFair, &rawEdge, &adjustedEdge)
		return nil
	}
	if adjustedEdge > s.params.MaxEdgeCents {
		s.recordSkip(mc, "no", noPrice, "edge_above_max", &noModelFair, &noBlendedFair, &rawEdge, &adjustedEdge)
		return nil
	}

	opp := s.newOpportunity(mc, rest.SideNo, noPrice, noModelFair, noBlendedFair, rawEdge, adjustedEdge)
	s.recordTrade(mc, "no", noPrice, &noModelFair, &noBlendedFair, &rawEdge, &adjustedEdge)
	return opp
}

func (s *Scanner) newOpportunity(mc marketContext, side rest.Side, price, modelFair, blendedFair int, rawEdge, adjustedEdge float64) *Opportunity {
	m := mc.market
	return &Opportunity{
		City:              mc.station.Code,
		Ticker:            m.Ticker,
		EventTicker:       mc.eventTicker,
		Side:              side,
		PriceCents:        price,
		ModelFairCents:    modelFair,
		BlendedFairCents:  blendedFair,
		RawEdgeCents:      rawEdge,
		AdjustedEdgeCents: adjustedEdge,
		Confidence:        mc.confidence,
		ForecastF:         mc.forecastF,
		Ensemble:          mc.ensemble,
		Floor:             m.FloorStrike,
		Cap:               m.CapStrike,
		Volume:            m.Volume,
		TargetDate:        mc.targetDate,
	}
}

func (s *Scanner) baseRecord(mc marketContext) *Record {
	m := mc.market
	return &Record{
		Ts:             s.now().UTC(),
		Ticker:         m.Ticker,
		City:           mc.station.Code,
		ForecastF:      mc.forecastF,
		Confidence:     mc.confidence,
		YesAsk:         m.YesAsk,
		YesBid:         m.YesBid,
		Floor:          m.FloorStrike,
		Cap:            m.CapStrike,
		StrikeType:     string(m.StrikeType),
		DaysAhead:      mc.daysAhead,
		StdDevUsed:     mc.cityStd,
		ProviderSpread: mc.providerSpread,
	}
}

func (s *Scanner) recordSkip(mc marketContext, side string, price int, reason string, modelFair, blendedFair *int, rawEdge, adjustedEdge *float64) {
	rec := s.baseRecord(mc)
	rec.Side = side
	rec.PriceCents = price
	rec.ModelFair = modelFair
	rec.BlendedFair = blendedFair
	rec.RawEdge = rawEdge
	rec.AdjustedEdge = adjustedEdge
	rec.Action = "skip"
	rec.SkipReason = reason
	s.recorder.RecordScan(rec)
}

func (s *Scanner) recordTrade(mc marketContext, side string, price int, modelFair, blendedFair *int, rawEdge, adjustedEdge *float64) {
	rec := s.baseRecord(mc)
	rec.Side = side
	rec.PriceCents = price
	rec.ModelFair = modelFair
	rec.BlendedFair = blendedFair
	rec.RawEdge = rawEdge
	rec.AdjustedEdge = adjustedEdge
	rec.Action = "trade"
	s.recorder.RecordScan(rec)
}
