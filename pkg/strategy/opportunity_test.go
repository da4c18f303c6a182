package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpportunityDescribe(t *testing.T) {
	tests := []struct {
		name  string
		floor *float64
		cap   *float64
		want  string
	}{
		{"above", fp(95), nil, "PHX above 95°F"},
		{"below", nil, fp(87.5), "PHX below 87.5°F"},
		{"between", fp(85), fp(86), "PHX 85-86°F"},
		{"no strikes", nil, nil, "PHX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Opportunity{City: "PHX", Floor: tt.floor, Cap: tt.cap}
			assert.Equal(t, tt.want, o.Describe())
		})
	}
}
