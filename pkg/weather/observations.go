package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type observationsResponse struct {
	Features []struct {
		Properties struct {
			Temperature struct {
				Value *float64 `json:"value"` // °C, null when the sensor missed
			} `json:"temperature"`
		} `json:"properties"`
	} `json:"features"`
}

// ObservedHigh fetches the maximum observed temperature (°F) at the
// station over the UTC day of date, from the NWS observations API.
func ObservedHigh(ctx context.Context, station *Station, date time.Time) (float64, error) {
	dateStr := date.Format("2006-01-02")
	params := url.Values{}
	params.Set("start", dateStr+"T00:00:00Z")
	params.Set("end", dateStr+"T23:59:59Z")

	obsURL := fmt.Sprintf("%s/stations/%s/observations?%s", noaaBaseURL, station.ID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, obsURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("observations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("observations: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("observations: read body: %w", err)
	}

	var or observationsResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return 0, fmt.Errorf("observations: parse: %w", err)
	}

	high := 0.0
	found := false
	for _, f := range or.Features {
		v := f.Properties.Temperature.Value
		if v == nil {
			continue
		}
		tempF := *v*9/5 + 32
		if !found || tempF > high {
			high = tempF
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("observations: no valid readings for %s on %s", station.ID, dateStr)
	}
	return high, nil
}
