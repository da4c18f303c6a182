package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeasonOf(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.December, SeasonWinter},
		{time.January, SeasonWinter},
		{time.February, SeasonWinter},
		{time.March, SeasonSpring},
		{time.May, SeasonSpring},
		{time.June, SeasonSummer},
		{time.August, SeasonSummer},
		{time.September, SeasonFall},
		{time.November, SeasonFall},
	}
	for _, tt := range tests {
		date := time.Date(2026, tt.month, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.want, SeasonOf(date), tt.month.String())
	}
}

func TestStations_Complete(t *testing.T) {
	assert.Len(t, Stations, 11)

	for code, s := range Stations {
		assert.Equal(t, code, s.Code)
		assert.NotEmpty(t, s.Series, code)
		assert.NotEmpty(t, s.Timezone, code)
		assert.NotEmpty(t, s.ID, code)
		assert.Len(t, s.SeasonalStdDev, 4, code)
	}
}

func TestStation_StdDev(t *testing.T) {
	phx := Stations["PHX"]
	winter := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	summer := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.9, phx.StdDev(winter))
	assert.Equal(t, 0.8, phx.StdDev(summer))

	// A station with no table falls back to the default.
	bare := &Station{Code: "X"}
	assert.Equal(t, DefaultStdDev, bare.StdDev(winter))
}

func TestStation_CorrelationGroups(t *testing.T) {
	for _, code := range []string{"HOU", "NOLA", "DAL", "OKC"} {
		assert.Equal(t, "gulf_south", Stations[code].CorrelationGroup(), code)
	}
	assert.Equal(t, Stations["BOS"].CorrelationGroup(), Stations["DC"].CorrelationGroup())
	assert.Equal(t, Stations["SEA"].CorrelationGroup(), Stations["SFO"].CorrelationGroup())

	// Ungrouped stations are their own group.
	bare := &Station{Code: "X"}
	assert.Equal(t, "X", bare.CorrelationGroup())
}

func TestStation_Location(t *testing.T) {
	loc := Stations["PHX"].Location()
	assert.Equal(t, "America/Phoenix", loc.String())

	broken := &Station{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, broken.Location())
}
