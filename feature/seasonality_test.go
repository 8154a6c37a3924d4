package feature

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonalityString(t *testing.T) {
	feat := NewSeasonality("weekly", FourierCompCos, 2)
	expected := "seas_weekly_02_cos"
	assert.Equal(t, expected, feat.String())
}

func TestSeasonalityGet(t *testing.T) {
	feat := NewSeasonality("weekly", FourierCompCos, 2)

	testData := map[string]struct {
		label     string
		expVal    string
		expExists bool
	}{
		"unknown": {
			label: "unknown",
		},
		"capitalized": {
			label:     "NAME",
			expVal:    "weekly",
			expExists: true,
		},
		"fourier component": {
			label:     "fourier_component",
			expVal:    "cos",
			expExists: true,
		},
		"order": {
			label:     "order",
			expVal:    "2",
			expExists: true,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			val, exists := feat.Get(td.label)
			assert.Equal(t, td.expExists, exists, "exists")
			assert.Equal(t, td.expVal, val, "value")
		})
	}
}

func TestSeasonalityUnmarshalJSON(t *testing.T) {
	feat := NewSeasonality("yearly", FourierCompSin, 3)
	out, err := json.Marshal(feat.Decode())
	require.NoError(t, err)

	var nextFeat Seasonality
	require.NoError(t, json.Unmarshal(out, &nextFeat))

	assert.Equal(t, feat, &nextFeat)
}

func TestSeasonalityGenerate(t *testing.T) {
	testData := map[string]struct {
		feat     *Seasonality
		tFeat    []float64
		order    int
		period   float64
		expected []float64
	}{
		"cos at key points": {
			feat:     NewSeasonality("daily", FourierCompCos, 1),
			tFeat:    []float64{0, 0.25, 0.5, 0.75, 1.0},
			order:    1,
			period:   1.0,
			expected: []float64{1.0, 0.0, -1.0, 0.0, 1.0},
		},
		"sin at key points": {
			feat:     NewSeasonality("daily", FourierCompSin, 1),
			tFeat:    []float64{0, 0.25, 0.5, 0.75, 1.0},
			order:    1,
			period:   1.0,
			expected: []float64{0.0, 1.0, 0.0, -1.0, 0.0},
		},
		"second order cos": {
			feat:     NewSeasonality("daily", FourierCompCos, 2),
			tFeat:    []float64{0, 0.25, 0.5},
			order:    2,
			period:   1.0,
			expected: []float64{1.0, -1.0, 1.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			got := td.feat.Generate(td.tFeat, td.order, td.period)
			require.Len(t, got, len(td.expected))
			for i, exp := range td.expected {
				assert.InDelta(t, exp, got[i], 1e-10, "value at index %d", i)
				assert.False(t, math.IsNaN(got[i]))
			}
		})
	}
}
