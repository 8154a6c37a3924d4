package storecast

import (
	"time"

	"github.com/retailops/storecast/forecast"
)

// Results stores the forecasted values along with the upper and lower
// uncertainty bounds per time point.
type Results struct {
	T        []time.Time `json:"time"`
	Forecast []float64   `json:"forecast"`
	Upper    []float64   `json:"upper"`
	Lower    []float64   `json:"lower"`

	SeriesComponents   forecast.Components `json:"series_components"`
	ResidualComponents forecast.Components `json:"residual_components"`
}
