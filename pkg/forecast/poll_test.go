package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollInterval(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2026, 8, 24, hour, 30, 0, 0, time.UTC)
	}

	// Model publication windows poll fast.
	for _, h := range []int{4, 5, 10, 11, 16, 17, 22, 23} {
		assert.Equal(t, 5*time.Minute, PollInterval(at(h)), "hour %d", h)
	}
	// Just after a window, medium.
	for _, h := range []int{6, 7, 12, 13, 18, 19} {
		assert.Equal(t, 10*time.Minute, PollInterval(at(h)), "hour %d", h)
	}
	// Quiet hours, slow.
	for _, h := range []int{0, 1, 2, 3, 8, 9, 14, 15, 20, 21} {
		assert.Equal(t, 30*time.Minute, PollInterval(at(h)), "hour %d", h)
	}
}
