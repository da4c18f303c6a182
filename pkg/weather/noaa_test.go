package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noaaForecastBody = `{
	"properties": {
		"updateTime": "2026-08-24T08:00:00+00:00",
		"periods": [
			{"name": "Overnight", "startTime": "2026-08-24T00:00:00-07:00", "isDaytime": false, "temperature": 88, "temperatureUnit": "F"},
			{"name": "Monday", "startTime": "2026-08-24T06:00:00-07:00", "isDaytime": true, "temperature": 105, "temperatureUnit": "F"},
			{"name": "Monday Night", "startTime": "2026-08-24T18:00:00-07:00", "isDaytime": false, "temperature": 86, "temperatureUnit": "F"},
			{"name": "Tuesday", "startTime": "2026-08-25T06:00:00-07:00", "isDaytime": true, "temperature": 103, "temperatureUnit": "F"}
		]
	}
}`

func newNOAATestServer(t *testing.T, body string) (*NOAAProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/gridpoints/PSR/162,57/forecast")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &NOAAProvider{baseURL: srv.URL, throttle: newThrottle()}, srv
}

func TestNOAAFetchHigh(t *testing.T) {
	p, _ := newNOAATestServer(t, noaaForecastBody)

	high, err := p.FetchHigh(context.Background(), Stations["PHX"], testDate)
	require.NoError(t, err)
	// The daytime period for the target date, not the overnight low.
	assert.Equal(t, 105.0, high)
}

func TestNOAAFetchHigh_NextDay(t *testing.T) {
	p, _ := newNOAATestServer(t, noaaForecastBody)

	high, err := p.FetchHigh(context.Background(), Stations["PHX"], testDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 103.0, high)
}

func TestNOAAFetchHigh_NoMatchingPeriod(t *testing.T) {
	p, _ := newNOAATestServer(t, noaaForecastBody)

	_, err := p.FetchHigh(context.Background(), Stations["PHX"], testDate.AddDate(0, 0, 10))
	assert.Error(t, err)
}

func TestNOAAFetchHigh_CelsiusConverted(t *testing.T) {
	body := `{
		"properties": {
			"updateTime": "2026-08-24T08:00:00+00:00",
			"periods": [
				{"name": "Monday", "startTime": "2026-08-24T06:00:00-07:00", "isDaytime": true, "temperature": 40, "temperatureUnit": "C"}
			]
		}
	}`
	p, _ := newNOAATestServer(t, body)

	high, err := p.FetchHigh(context.Background(), Stations["PHX"], testDate)
	require.NoError(t, err)
	assert.Equal(t, 104.0, high)
}

func TestNOAAUpdateAge(t *testing.T) {
	p := NewNOAAProvider()

	// Before any fetch there is no staleness signal.
	_, ok := p.UpdateAge(time.Now())
	assert.False(t, ok)

	fetched, _ := newNOAATestServer(t, noaaForecastBody)
	_, err := fetched.FetchHigh(context.Background(), Stations["PHX"], testDate)
	require.NoError(t, err)

	now := time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	age, ok := fetched.UpdateAge(now)
	require.True(t, ok)
	assert.Equal(t, 7*time.Hour, age)
}
