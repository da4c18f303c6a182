package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEventDate(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		title string
		want  string
		ok    bool
	}{
		{"full month name", "Highest temperature in Phoenix on August 26?", "2026-08-26", true},
		{"abbreviated month", "High temp in Boston on Aug 30", "2026-08-30", true},
		{"case insensitive", "HIGHEST TEMPERATURE IN MIAMI ON SEP 2?", "2026-09-02", true},
		{"past month rolls to next year", "Highest temperature in Dallas on Feb 14?", "2027-02-14", true},
		{"today fallback", "Will today's high exceed 100?", "2026-08-24", true},
		{"tomorrow fallback", "Tomorrow's high temperature", "2026-08-25", true},
		{"impossible day rejected", "Highest temperature on Sep 31?", "", false},
		{"no date at all", "Highest temperature this week", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseEventDate(tt.title, now)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestContractType(t *testing.T) {
	assert.Equal(t, "threshold", contractType("KXHIGHTPHX-26AUG24-T95"))
	assert.Equal(t, "bracket", contractType("KXHIGHTPHX-26AUG24-B92.5"))
	assert.Equal(t, "", contractType("KXHIGHPHX"))
}
