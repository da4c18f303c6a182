package trader

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendanplayford/kalshi-weather-trader/internal/config"
)

func newTestBreaker(t *testing.T) (*Breaker, *State) {
	t.Helper()
	state := newTestState(t)
	return NewBreaker(state, config.PaperParams(), zerolog.Nop()), state
}

func TestBreaker_CleanBook(t *testing.T) {
	b, _ := newTestBreaker(t)
	tripped, _ := b.Tripped(stateNow)
	assert.False(t, tripped)
}

func TestBreaker_DailyLossTrips(t *testing.T) {
	b, state := newTestBreaker(t)
	require.NoError(t, state.AddPosition(pos("t1", 100), stateNow))
	require.NoError(t, state.ClosePosition("t1", -500, stateNow))

	tripped, reason := b.Tripped(stateNow)
	assert.True(t, tripped)
	assert.Contains(t, reason, "daily")
}

func TestBreaker_OpenExposureCountsAgainstLimit(t *testing.T) {
	b, state := newTestBreaker(t)

	// -300 realized plus 200 still at risk crosses the -500 line.
	require.NoError(t, state.AddPosition(pos("t1", 300), stateNow))
	require.NoError(t, state.ClosePosition("t1", -300, stateNow))
	require.NoError(t, state.AddPosition(pos("t2", 200), stateNow))

	tripped, _ := b.Tripped(stateNow)
	assert.True(t, tripped)
}

func TestBreaker_OldExposureIgnored(t *testing.T) {
	b, state := newTestBreaker(t)

	old := pos("t1", 400)
	old.TradeTime = stateNow.AddDate(0, 0, -3).Format(time.RFC3339)
	require.NoError(t, state.AddPosition(old, stateNow.AddDate(0, 0, -3)))
	require.NoError(t, state.AddPosition(pos("t2", 200), stateNow))

	assert.Equal(t, 200, b.TodayExposure(stateNow))
	tripped, _ := b.Tripped(stateNow)
	assert.False(t, tripped)
}

func TestBreaker_UTCBoundaryExposureStillMatches(t *testing.T) {
	b, state := newTestBreaker(t)

	// A position stamped with the UTC day still counts when "now" is an
	// evening local time whose UTC date has rolled over.
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	localEvening := time.Date(2026, 8, 24, 21, 0, 0, 0, chicago) // Aug 25 UTC

	p := pos("t1", 300)
	p.TradeTime = localEvening.UTC().Format(time.RFC3339) // 2026-08-25T02:00:00Z
	require.NoError(t, state.AddPosition(p, localEvening))

	assert.Equal(t, 300, b.TodayExposure(localEvening))
}

func TestBreaker_WeeklyLossTrips(t *testing.T) {
	b, state := newTestBreaker(t)

	// Spread -1200 across Monday..Wednesday of one ISO week; no single day
	// trips the daily limit.
	days := []time.Time{
		stateNow,
		stateNow.AddDate(0, 0, 1),
		stateNow.AddDate(0, 0, 2),
	}
	for i, day := range days {
		ticker := string(rune('a' + i))
		p := pos(ticker, 100)
		p.TradeTime = day.Format(time.RFC3339)
		require.NoError(t, state.AddPosition(p, day))
		require.NoError(t, state.ClosePosition(ticker, -400, day))
	}

	wednesday := days[2]
	tripped, reason := b.Tripped(wednesday)
	assert.True(t, tripped)
	assert.Contains(t, reason, "weekly")
}

func TestBreaker_AlertThrottle(t *testing.T) {
	b, _ := newTestBreaker(t)

	assert.True(t, b.ShouldAlert(stateNow))
	assert.False(t, b.ShouldAlert(stateNow.Add(10*time.Minute)))
	assert.True(t, b.ShouldAlert(stateNow.Add(61*time.Minute)))
}
