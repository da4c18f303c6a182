package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// maxSamples bounds the stored history per provider.
	maxSamples = 100

	// minSamples is the minimum recent history before accuracy starts
	// influencing weights.
	minSamples = 5

	// accuracyWindow is how far back samples count toward the multiplier.
	accuracyWindow = 30 * 24 * time.Hour

	// errorFloorF avoids division blow-ups on near-perfect streaks.
	errorFloorF = 0.5

	// Multiplier clamps: one provider can neither dominate the ensemble
	// on a hot streak nor be extinguished by a cold one.
	minMultiplier = 0.25
	maxMultiplier = 2.0
)

// Sample is one settled forecast-vs-actual comparison.
type Sample struct {
	ErrorF float64   `json:"error_f"`
	At     time.Time `json:"at"`
}

// AccuracyStore keeps a bounded per-provider history of absolute forecast
// errors and persists it whole on every write. The ensemble reads it at
// weighting time; settlement writes to it.
type AccuracyStore struct {
	mu      sync.Mutex
	path    string
	history map[string][]Sample
	log     zerolog.Logger
}

// NewAccuracyStore loads the history file at path, starting empty when the
// file does not exist yet.
func NewAccuracyStore(path string, log zerolog.Logger) (*AccuracyStore, error) {
	s := &AccuracyStore{
		path:    path,
		history: make(map[string][]Sample),
		log:     log,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("accuracy: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.history); err != nil {
		return nil, fmt.Errorf("accuracy: parse %s: %w", path, err)
	}
	return s, nil
}

// Record appends an accuracy sample for a provider, trimming the oldest
// entries past the cap, and persists the whole store.
func (s *AccuracyStore) Record(provider string, predicted, actual float64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := append(s.history[provider], Sample{
		ErrorF: math.Abs(predicted - actual),
		At:     now,
	})
	if len(samples) > maxSamples {
		samples = samples[len(samples)-maxSamples:]
	}
	s.history[provider] = samples

	if err := s.saveLocked(); err != nil {
		s.log.Error().Err(err).Str("provider", provider).Msg("accuracy history save failed")
	}
}

// Multiplier returns the accuracy weight multiplier for a provider:
// the inverse of its recent average error, clamped to [0.25, 2.0].
// Providers with fewer than five samples in the window get 1.0.
func (s *AccuracyStore) Multiplier(provider string, now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-accuracyWindow)
	var sum float64
	var n int
	for _, sample := range s.history[provider] {
		if sample.At.After(cutoff) {
			sum += sample.ErrorF
			n++
		}
	}
	if n < minSamples {
		return 1.0
	}

	avg := sum / float64(n)
	m := 1.0 / math.Max(avg, errorFloorF)
	return math.Min(maxMultiplier, math.Max(minMultiplier, m))
}

// SampleCount returns the stored sample count for a provider.
func (s *AccuracyStore) SampleCount(provider string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history[provider])
}

// saveLocked writes the full history atomically (temp file then rename).
func (s *AccuracyStore) saveLocked() error {
	data, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
