package weather

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Provider is a single numerical-forecast source. FetchHigh returns the
// forecast daily-high in °F for the station's local calendar day, or an
// error when the source has nothing usable. Providers never return
// partial data.
type Provider interface {
	Name() string
	FetchHigh(ctx context.Context, station *Station, targetDate time.Time) (float64, error)
}

const (
	// fetchTimeout is the hard cap on a single provider request.
	fetchTimeout = 15 * time.Second

	// minRequestGap keeps each provider under the free-tier rate limits.
	minRequestGap = 300 * time.Millisecond

	userAgent = "kalshi-weather-trader/1.0 (+https://github.com/brendanplayford/kalshi-weather-trader)"
)

// httpClient is shared by all providers.
var httpClient = &http.Client{Timeout: fetchTimeout}

// throttle enforces the minimum inter-request delay for one provider.
type throttle struct {
	limiter *rate.Limiter
}

func newThrottle() throttle {
	return throttle{limiter: rate.NewLimiter(rate.Every(minRequestGap), 1)}
}

func (t throttle) wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
