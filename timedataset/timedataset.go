// Package timedataset provides the univariate time series container used for
// fitting and evaluating sales forecasts.
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrInvalidFraction    = errors.New("split fraction must be in (0, 1)")
)

// TimeDataset represents a time series storing a slice of time points and values.
// Both must be of the same length and timestamps must be strictly increasing.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	var lastT time.Time
	for i := 0; i < len(t); i++ {
		currT := t[i]
		if currT.Before(lastT) || currT.Equal(lastT) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
		lastT = currT
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	td := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}

	return td, nil
}

// Len returns the number of observations in the dataset.
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

// Copy returns a deep copy of the dataset.
func (td *TimeDataset) Copy() *TimeDataset {
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.T))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// DropNan returns a new dataset with all NaN observations removed.
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}

	tSeries := make([]time.Time, 0, len(td.T))
	ySeries := make([]float64, 0, len(td.Y))
	for i := 0; i < len(td.T); i++ {
		if math.IsNaN(td.Y[i]) {
			continue
		}
		tSeries = append(tSeries, td.T[i])
		ySeries = append(ySeries, td.Y[i])
	}
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// Split partitions the dataset into an ordered train prefix and test suffix. The
// train partition holds floor(fraction*n) observations. Temporal order is preserved
// so the split stays valid for forecasting.
func (td *TimeDataset) Split(fraction float64) (*TimeDataset, *TimeDataset, error) {
	if td == nil || len(td.T) == 0 {
		return nil, nil, ErrNoTrainingData
	}
	if fraction <= 0.0 || fraction >= 1.0 {
		return nil, nil, fmt.Errorf("got %f, %w", fraction, ErrInvalidFraction)
	}

	splitIdx := int(math.Floor(fraction * float64(len(td.T))))

	train := &TimeDataset{
		T: append([]time.Time{}, td.T[:splitIdx]...),
		Y: append([]float64{}, td.Y[:splitIdx]...),
	}
	test := &TimeDataset{
		T: append([]time.Time{}, td.T[splitIdx:]...),
		Y: append([]float64{}, td.Y[splitIdx:]...),
	}
	return train, test, nil
}

// StartTime returns the first time point of the dataset.
func (td *TimeDataset) StartTime() time.Time {
	if td == nil || len(td.T) == 0 {
		return time.Time{}
	}
	return td.T[0]
}

// EndTime returns the last time point of the dataset.
func (td *TimeDataset) EndTime() time.Time {
	if td == nil || len(td.T) == 0 {
		return time.Time{}
	}
	return td.T[len(td.T)-1]
}
