package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLabels(t *testing.T) {
	s := NewSet()
	s.Set(NewSeasonality("weekly", FourierCompSin, 1), []float64{0, 1})
	s.Set(NewEvent("christmas_2014"), []float64{1, 0})
	s.Set(Intercept(), []float64{1, 1})

	labels := s.Labels()
	require.Equal(t, 3, labels.Len())

	// sorted by string representation
	expected := []string{
		"event_christmas_2014",
		"growth_intercept",
		"seas_weekly_01_sin",
	}
	for i, label := range labels.Labels() {
		assert.Equal(t, expected[i], label.String())
	}
}

func TestSetMatrix(t *testing.T) {
	s := NewSet()
	s.Set(NewSeasonality("weekly", FourierCompSin, 1), []float64{2, 3, 4})
	s.Set(NewSeasonality("weekly", FourierCompCos, 1), []float64{5, 6, 7})

	mx := s.Matrix(true)
	m, n := mx.Dims()
	assert.Equal(t, 3, m)
	assert.Equal(t, 3, n)

	// intercept column first, then features in sorted label order
	assert.Equal(t, 1.0, mx.At(0, 0))
	assert.Equal(t, 5.0, mx.At(0, 1))
	assert.Equal(t, 2.0, mx.At(0, 2))
}

func TestSetMatrixSlice(t *testing.T) {
	s := NewSet()
	s.Set(NewSeasonality("weekly", FourierCompSin, 1), []float64{2, 3, 4})

	obs := s.MatrixSlice(true)
	require.Len(t, obs, 2)
	assert.Equal(t, []float64{1, 1, 1}, obs[0])
	assert.Equal(t, []float64{2, 3, 4}, obs[1])
}

func TestSetUpdate(t *testing.T) {
	s := NewSet()
	s.Set(NewEvent("christmas_2014"), []float64{1, 0})

	other := NewSet()
	other.Set(NewEvent("christmas_2015"), []float64{0, 1})
	s.Update(other)

	require.Equal(t, 2, s.Labels().Len())
	data, exists := s.Get(NewEvent("christmas_2015"))
	require.True(t, exists)
	assert.Equal(t, []float64{0, 1}, data)
}
