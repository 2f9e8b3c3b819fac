package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermFrequencyScorer_Score(t *testing.T) {
	scorer := NewTermFrequencyScorer()
	ctx := context.Background()

	tests := []struct {
		name    string
		current string
		source  string
		min     float64
		max     float64
	}{
		{name: "identical", current: "Data must be retained for 7 years.", source: "data must be retained for 7 years", min: 1, max: 1},
		{name: "disjoint", current: "alpha beta", source: "gamma delta", min: 0, max: 0},
		{name: "both empty", current: "", source: "  ", min: 1, max: 1},
		{name: "one empty", current: "alpha", source: "", min: 0, max: 0},
		{name: "partial overlap", current: "retain records for five years", source: "retain records for seven years", min: 0.5, max: 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := scorer.Score(ctx, tt.current, tt.source)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, tt.min-1e-9)
			assert.LessOrEqual(t, score, tt.max+1e-9)
		})
	}
}

func TestTermFrequencyScorer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTermFrequencyScorer().Score(ctx, "a", "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContentHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHash(""),
	)
	assert.Len(t, ContentHash("clause text"), 64)
}
