package trader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
)

var stateNow = time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := LoadState(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return s
}

func pos(ticker string, cost int) Position {
	return Position{
		Ticker:      ticker,
		EventTicker: "KXHIGHTPHX-26AUG24",
		City:        "PHX",
		Side:        rest.SideYes,
		PriceCents:  cost / 2,
		Count:       2,
		CostCents:   cost,
		TradeTime:   stateNow.Format(time.RFC3339),
		TargetDate:  "2026-08-24",
		Paper:       true,
	}
}

func TestState_FreshBook(t *testing.T) {
	s := newTestState(t)
	assert.Equal(t, 0, s.OpenCount())
	assert.Equal(t, DefaultPaperBalance, s.PaperBalance())
	assert.Equal(t, 0, s.TradesToday(stateNow))
}

func TestState_AddPosition(t *testing.T) {
	s := newTestState(t)

	require.NoError(t, s.AddPosition(pos("t1", 120), stateNow))

	assert.Equal(t, 1, s.OpenCount())
	assert.Equal(t, 1, s.TradesToday(stateNow))
	assert.Equal(t, DefaultPaperBalance-120, s.PaperBalance())
	// Yesterday's counter is untouched.
	assert.Equal(t, 0, s.TradesToday(stateNow.AddDate(0, 0, -1)))
}

func TestState_ClosePosition(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.AddPosition(pos("t1", 120), stateNow))

	require.NoError(t, s.ClosePosition("t1", 80, stateNow))

	assert.Equal(t, 0, s.OpenCount())
	assert.Equal(t, 80, s.DailyPnL(stateNow))
	assert.Equal(t, 80, s.WeeklyPnL(stateNow))
	// Paper balance: -120 cost, then +120+80 on settlement.
	assert.Equal(t, DefaultPaperBalance+80, s.PaperBalance())
}

func TestState_ClosePosition_Loss(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.AddPosition(pos("t1", 120), stateNow))

	require.NoError(t, s.ClosePosition("t1", -120, stateNow))

	assert.Equal(t, -120, s.DailyPnL(stateNow))
	assert.Equal(t, DefaultPaperBalance-120, s.PaperBalance())
}

func TestState_ClosePosition_Unknown(t *testing.T) {
	s := newTestState(t)
	assert.Error(t, s.ClosePosition("missing", 0, stateNow))
}

func TestState_PnLBuckets(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.AddPosition(pos("t1", 100), stateNow))
	require.NoError(t, s.AddPosition(pos("t2", 100), stateNow))

	require.NoError(t, s.ClosePosition("t1", -50, stateNow))
	nextDay := stateNow.AddDate(0, 0, 1)
	require.NoError(t, s.ClosePosition("t2", 30, nextDay))

	assert.Equal(t, -50, s.DailyPnL(stateNow))
	assert.Equal(t, 30, s.DailyPnL(nextDay))
	// Both days fall in the same ISO week.
	assert.Equal(t, -20, s.WeeklyPnL(stateNow))
}

func TestState_LedgerBucketsTrackRecord(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.AddPosition(pos("t1", 120), stateNow))
	require.NoError(t, s.AddPosition(pos("t2", 120), stateNow))

	require.NoError(t, s.ClosePosition("t1", 80, stateNow))

	day := s.DailyRecord(stateNow)
	assert.Equal(t, PnLBucket{PnLCents: 80, Trades: 1, Wins: 1, Losses: 0}, day)
	assert.Equal(t, day, s.WeeklyRecord(stateNow))
	assert.Equal(t, 80, s.TotalPnL())

	require.NoError(t, s.ClosePosition("t2", -120, stateNow))
	assert.Equal(t, PnLBucket{PnLCents: -40, Trades: 2, Wins: 1, Losses: 1}, s.DailyRecord(stateNow))
	assert.Equal(t, PnLBucket{PnLCents: -40, Trades: 2, Wins: 1, Losses: 1}, s.WeeklyRecord(stateNow))
	assert.Equal(t, -40, s.TotalPnL())
}

func TestState_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := LoadState(path)
	require.NoError(t, err)

	require.NoError(t, s.AddPosition(pos("t1", 120), stateNow))
	require.NoError(t, s.AddPosition(pos("t2", 80), stateNow))
	require.NoError(t, s.ClosePosition("t2", 40, stateNow))

	reloaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.OpenCount())
	assert.Equal(t, "t1", reloaded.Positions()[0].Ticker)
	assert.Equal(t, 40, reloaded.DailyPnL(stateNow))
	assert.Equal(t, 40, reloaded.TotalPnL())
	assert.Equal(t, 2, reloaded.TradesToday(stateNow))
	assert.Equal(t, s.PaperBalance(), reloaded.PaperBalance())
}

func TestState_CorruptFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := LoadState(path)
	assert.Error(t, err)
}

func TestWeekKey(t *testing.T) {
	// Monday and Sunday of the same ISO week share a bucket.
	mon := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	nextMon := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, WeekKey(mon), WeekKey(sun))
	assert.NotEqual(t, WeekKey(mon), WeekKey(nextMon))
}
