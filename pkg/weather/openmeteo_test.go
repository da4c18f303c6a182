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

var testDate = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

func testProvider(url string) *OpenMeteoProvider {
	return &OpenMeteoProvider{name: "OpenMeteo_GFS", baseURL: url, throttle: newThrottle()}
}

func TestOpenMeteoFetchHigh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "temperature_2m_max", q.Get("daily"))
		assert.Equal(t, "fahrenheit", q.Get("temperature_unit"))
		assert.Equal(t, "2026-08-24", q.Get("start_date"))
		assert.Equal(t, "2026-08-24", q.Get("end_date"))
		assert.Equal(t, "America/Phoenix", q.Get("timezone"))

		w.Write([]byte(`{"daily":{"temperature_2m_max":[104.3]}}`))
	}))
	defer srv.Close()

	high, err := testProvider(srv.URL).FetchHigh(context.Background(), Stations["PHX"], testDate)
	require.NoError(t, err)
	assert.InDelta(t, 104.3, high, 1e-9)
}

func TestOpenMeteoFetchHigh_NullReading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":{"temperature_2m_max":[null]}}`))
	}))
	defer srv.Close()

	_, err := testProvider(srv.URL).FetchHigh(context.Background(), Stations["PHX"], testDate)
	assert.Error(t, err)
}

func TestOpenMeteoFetchHigh_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testProvider(srv.URL).FetchHigh(context.Background(), Stations["PHX"], testDate)
	assert.ErrorContains(t, err, "status 502")
}

func TestOpenMeteoProviderNames(t *testing.T) {
	// The bias and accuracy tables key on these exact names.
	assert.Equal(t, "OpenMeteo_GFS", NewOpenMeteoGFS().Name())
	assert.Equal(t, "OpenMeteo_ICON", NewOpenMeteoICON().Name())
	assert.Equal(t, "OpenMeteo_ECMWF", NewOpenMeteoECMWF().Name())
	assert.Equal(t, "OpenMeteo_GEM", NewOpenMeteoGEM().Name())
}
