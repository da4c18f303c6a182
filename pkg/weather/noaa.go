package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const noaaBaseURL = "https://api.weather.gov"

// NOAAProvider fetches forecasts from the NWS gridpoint API. It caches the
// response's updateTime from the most recent successful fetch so staleness
// can be queried without another request.
type NOAAProvider struct {
	baseURL string
	throttle

	mu             sync.Mutex
	lastUpdateTime string // ISO timestamp from the latest forecast response
}

// NewNOAAProvider creates the NWS provider.
func NewNOAAProvider() *NOAAProvider {
	return &NOAAProvider{baseURL: noaaBaseURL, throttle: newThrottle()}
}

// Name implements Provider.
func (p *NOAAProvider) Name() string { return "NOAA" }

// noaaForecastResponse is the subset of the NWS gridpoint forecast payload
// the provider needs.
type noaaForecastResponse struct {
	Properties struct {
		UpdateTime string `json:"updateTime"`
		Periods    []struct {
			Name            string `json:"name"`
			StartTime       string `json:"startTime"`
			IsDaytime       bool   `json:"isDaytime"`
			Temperature     float64 `json:"temperature"`
			TemperatureUnit string `json:"temperatureUnit"`
		} `json:"periods"`
	} `json:"properties"`
}

// FetchHigh implements Provider. It walks the gridpoint forecast periods
// and returns the temperature of the first daytime period whose local date
// matches the target date.
func (p *NOAAProvider) FetchHigh(ctx context.Context, station *Station, targetDate time.Time) (float64, error) {
	if err := p.wait(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast",
		p.baseURL, station.NWSOffice, station.NWSGridX, station.NWSGridY)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("noaa forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("noaa forecast: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("noaa forecast: read body: %w", err)
	}

	var fr noaaForecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return 0, fmt.Errorf("noaa forecast: parse: %w", err)
	}

	if fr.Properties.UpdateTime != "" {
		p.mu.Lock()
		p.lastUpdateTime = fr.Properties.UpdateTime
		p.mu.Unlock()
	}

	want := targetDate.Format("2006-01-02")
	for _, period := range fr.Properties.Periods {
		if !period.IsDaytime {
			continue
		}
		start, err := time.Parse(time.RFC3339, period.StartTime)
		if err != nil {
			continue
		}
		if start.Format("2006-01-02") != want {
			continue
		}
		temp := period.Temperature
		if period.TemperatureUnit == "C" {
			temp = temp*9/5 + 32
		}
		return temp, nil
	}

	return 0, fmt.Errorf("noaa forecast: no daytime period for %s", want)
}

// UpdateAge returns the time elapsed since the cached updateTime of the
// most recent successful fetch. ok is false when no fetch has populated
// the cache yet or the timestamp did not parse.
func (p *NOAAProvider) UpdateAge(now time.Time) (time.Duration, bool) {
	p.mu.Lock()
	raw := p.lastUpdateTime
	p.mu.Unlock()

	if raw == "" {
		return 0, false
	}
	updated, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, false
	}
	return now.Sub(updated), true
}
