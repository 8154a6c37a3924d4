package storecast

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/retailops/storecast/forecast"
)

const (
	DefaultResidualWindow = 100
	DefaultIntervalWidth  = 0.95
)

// OutlierOptions configures the iterative outlier removal while fitting the
// series model. Residual values outside the percentile range widened by the
// Tukey factor are replaced with NaN before the next fit pass.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// Options configures the series fit, the uncertainty fit, and the width of
// the uncertainty interval around the forecast.
type Options struct {
	SeriesOptions   *forecast.Options `json:"series_options"`
	ResidualOptions *forecast.Options `json:"residual_options"`

	OutlierOptions *OutlierOptions `json:"outlier_options"`
	ResidualWindow int             `json:"residual_window"`

	// IntervalWidth is the probability mass the upper and lower bounds should
	// cover assuming normally distributed residuals, e.g. 0.95 scales the
	// rolling residual standard deviation by roughly 1.96.
	IntervalWidth float64 `json:"interval_width"`
}

// NewDefaultOptions generates a default set of options for a forecaster
func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions:   forecast.NewDefaultOptions(),
		ResidualOptions: forecast.NewDefaultOptions(),
		ResidualWindow:  DefaultResidualWindow,
		IntervalWidth:   DefaultIntervalWidth,
	}
}

// residualZscore converts the configured interval width into the standard
// deviation multiplier for the uncertainty bands.
func (o *Options) residualZscore() float64 {
	width := o.IntervalWidth
	if width <= 0.0 || width >= 1.0 {
		width = DefaultIntervalWidth
	}
	dist := distuv.Normal{Mu: 0.0, Sigma: 1.0}
	return dist.Quantile(0.5 + width/2.0)
}
