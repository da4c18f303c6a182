package trader

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/forecast"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/weather"
)

type fakeMarkets struct {
	results map[string]string // ticker -> result ("" = still open)
	errs    map[string]error
}

func (f *fakeMarkets) GetMarket(ticker string) (*rest.Market, error) {
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	return &rest.Market{Ticker: ticker, Result: f.results[ticker]}, nil
}

func newTestSettler(t *testing.T, markets MarketSource, observe ObservationFunc) (*Settler, *State, *forecast.AccuracyStore) {
	t.Helper()
	state := newTestState(t)
	acc, err := forecast.NewAccuracyStore(filepath.Join(t.TempDir(), "acc.json"), zerolog.Nop())
	require.NoError(t, err)
	s := NewSettler(markets, observe, state, acc, nil, nil, false, zerolog.Nop())
	s.now = func() time.Time { return stateNow }
	return s, state, acc
}

func TestSettleAll_Win(t *testing.T) {
	markets := &fakeMarkets{results: map[string]string{"t1": "yes"}}
	s, state, _ := newTestSettler(t, markets, nil)

	p := pos("t1", 120) // yes side, 2 @ 60¢
	require.NoError(t, state.AddPosition(p, stateNow))

	settled := s.SettleAll(context.Background())
	assert.Equal(t, 1, settled)
	assert.Equal(t, 0, state.OpenCount())
	// Won: (100-60)*2 = 80.
	assert.Equal(t, 80, state.DailyPnL(stateNow))
}

func TestSettleAll_Loss(t *testing.T) {
	markets := &fakeMarkets{results: map[string]string{"t1": "no"}}
	s, state, _ := newTestSettler(t, markets, nil)

	require.NoError(t, state.AddPosition(pos("t1", 120), stateNow))

	settled := s.SettleAll(context.Background())
	assert.Equal(t, 1, settled)
	// Lost: -60*2 = -120, the full cost.
	assert.Equal(t, -120, state.DailyPnL(stateNow))
}

func TestSettleAll_NoSideWins(t *testing.T) {
	markets := &fakeMarkets{results: map[string]string{"t1": "no"}}
	s, state, _ := newTestSettler(t, markets, nil)

	p := pos("t1", 120)
	p.Side = rest.SideNo
	require.NoError(t, state.AddPosition(p, stateNow))

	s.SettleAll(context.Background())
	assert.Equal(t, 80, state.DailyPnL(stateNow))
}

func TestSettleAll_StillOpen(t *testing.T) {
	markets := &fakeMarkets{results: map[string]string{}}
	s, state, _ := newTestSettler(t, markets, nil)

	require.NoError(t, state.AddPosition(pos("t1", 120), stateNow))

	assert.Equal(t, 0, s.SettleAll(context.Background()))
	assert.Equal(t, 1, state.OpenCount())
}

func TestSettleAll_ErrorIsolatedPerPosition(t *testing.T) {
	markets := &fakeMarkets{
		results: map[string]string{"t2": "yes"},
		errs:    map[string]error{"t1": errors.New("api down")},
	}
	s, state, _ := newTestSettler(t, markets, nil)

	require.NoError(t, state.AddPosition(pos("t1", 120), stateNow))
	require.NoError(t, state.AddPosition(pos("t2", 100), stateNow))

	settled := s.SettleAll(context.Background())
	assert.Equal(t, 1, settled)
	assert.Equal(t, 1, state.OpenCount())
	assert.Equal(t, "t1", state.Positions()[0].Ticker)
}

func TestSettleAll_AccuracyFeedback(t *testing.T) {
	markets := &fakeMarkets{results: map[string]string{"KXHIGHTPHX-26AUG24-T95": "yes"}}

	var observedStation string
	var observedDate string
	observe := func(ctx context.Context, station *weather.Station, date time.Time) (float64, error) {
		observedStation = station.Code
		observedDate = date.Format("2006-01-02")
		return 101.5, nil
	}
	s, state, acc := newTestSettler(t, markets, observe)

	p := pos("KXHIGHTPHX-26AUG24-T95", 120)
	p.Forecasts = map[string]float64{"NOAA": 100, "OpenMeteo_GFS": 103}
	require.NoError(t, state.AddPosition(p, stateNow))

	s.SettleAll(context.Background())

	assert.Equal(t, "PHX", observedStation)
	assert.Equal(t, "2026-08-24", observedDate) // from the ticker
	assert.Equal(t, 1, acc.SampleCount("NOAA"))
	assert.Equal(t, 1, acc.SampleCount("OpenMeteo_GFS"))
}

func TestSettleAll_ObservationFailureDoesNotBlockSettlement(t *testing.T) {
	markets := &fakeMarkets{results: map[string]string{"t1": "yes"}}
	observe := func(ctx context.Context, station *weather.Station, date time.Time) (float64, error) {
		return 0, errors.New("no readings")
	}
	s, state, acc := newTestSettler(t, markets, observe)

	p := pos("t1", 120)
	p.Forecasts = map[string]float64{"NOAA": 100}
	require.NoError(t, state.AddPosition(p, stateNow))

	assert.Equal(t, 1, s.SettleAll(context.Background()))
	assert.Equal(t, 0, state.OpenCount())
	assert.Equal(t, 0, acc.SampleCount("NOAA"))
}

func TestSettlementDate(t *testing.T) {
	now := stateNow

	d, ok := settlementDate("KXHIGHTPHX-26AUG24-T95", now)
	require.True(t, ok)
	assert.Equal(t, "2026-08-24", d.Format("2006-01-02"))

	d, ok = settlementDate("KXHIGHTBOS-27JAN05-B42.5", now)
	require.True(t, ok)
	assert.Equal(t, "2027-01-05", d.Format("2006-01-02"))

	_, ok = settlementDate("KXHIGHTPHX", now)
	assert.False(t, ok)

	// Impossible day is rejected, falling back to the stored target date.
	_, ok = settlementDate("KXHIGHTPHX-26FEB30-T95", now)
	assert.False(t, ok)
}
