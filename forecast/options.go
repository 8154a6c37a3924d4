package forecast

import (
	"sort"
	"time"

	"github.com/retailops/storecast/event"
)

const (
	LabelTimeEpoch = "epoch"

	LabelSeasYearly = "yearly"
	LabelSeasWeekly = "weekly"
	LabelSeasDaily  = "daily"

	// Fourier orders per seasonal cycle when built from the yearly/weekly/daily
	// toggles.
	DefaultYearlyOrders = 10
	DefaultWeeklyOrders = 3
	DefaultDailyOrders  = 4
)

// Options configures a forecast by specifying seasonality components,
// changepoints, events, growth and an optional regularization parameter where
// higher values remove more features that contribute the least to the fit.
type Options struct {
	// Lasso related options
	Regularization float64 `json:"regularization"`
	Iterations     int     `json:"iterations"`
	Tolerance      float64 `json:"tolerance"`

	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`
	ChangepointOptions ChangepointOptions `json:"changepoint_options"`
	EventOptions       EventOptions       `json:"event_options"`
	GrowthType         string             `json:"growth_type"`
}

// NewDefaultOptions returns a set of default forecast options for a daily
// retail sales series with yearly and weekly cycles.
func NewDefaultOptions() *Options {
	return &Options{
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		ChangepointOptions: NewDefaultChangepointOptions(),
	}
}

// SeasonalityOptions configures the seasonal cycles to fit for.
type SeasonalityOptions struct {
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
}

// NewDefaultSeasonalityOptions generates a default seasonality config with
// yearly and weekly seasonal components.
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		SeasonalityConfigs: []SeasonalityConfig{
			NewYearlySeasonalityConfig(DefaultYearlyOrders),
			NewWeeklySeasonalityConfig(DefaultWeeklyOrders),
		},
	}
}

// NewSeasonalityFromToggles builds seasonality options out of the three
// yearly/weekly/daily switches using the default orders per cycle.
func NewSeasonalityFromToggles(yearly, weekly, daily bool) SeasonalityOptions {
	var cfgs []SeasonalityConfig
	if yearly {
		cfgs = append(cfgs, NewYearlySeasonalityConfig(DefaultYearlyOrders))
	}
	if weekly {
		cfgs = append(cfgs, NewWeeklySeasonalityConfig(DefaultWeeklyOrders))
	}
	if daily {
		cfgs = append(cfgs, NewDailySeasonalityConfig(DefaultDailyOrders))
	}
	return SeasonalityOptions{SeasonalityConfigs: cfgs}
}

func (s *SeasonalityOptions) removeDuplicates() {
	// sort seasonality configs so we can find duplicate periods and remove them
	optSeasConfigs := s.SeasonalityConfigs
	sort.Slice(optSeasConfigs, func(i, j int) bool {
		if optSeasConfigs[i].Period < optSeasConfigs[j].Period {
			return true
		}
		if optSeasConfigs[i].Period > optSeasConfigs[j].Period {
			return false
		}
		return optSeasConfigs[i].Name < optSeasConfigs[j].Name
	})
	validIdx := make([]int, 0, len(optSeasConfigs))
	var lastValidPeriod time.Duration
	for i, seasCfg := range optSeasConfigs {
		if seasCfg.Period > 0 && seasCfg.Period > lastValidPeriod && seasCfg.Name != "" && seasCfg.Orders > 0 {
			validIdx = append(validIdx, i)
			lastValidPeriod = seasCfg.Period
		}
	}

	if len(validIdx) != len(optSeasConfigs) {
		validatedSeasConfigs := make([]SeasonalityConfig, 0, len(validIdx))
		for _, i := range validIdx {
			validatedSeasConfigs = append(validatedSeasConfigs, optSeasConfigs[i])
		}
		optSeasConfigs = validatedSeasConfigs
	}
	s.SeasonalityConfigs = optSeasConfigs
}

// SeasonalityConfig represents a single seasonal cycle to model. This will
// generate Fourier series of the specified period and number of orders, e.g. a
// period of 7 days with 3 orders creates 6 Fourier series for the sine/cosine
// components of order 1, 2, 3.
type SeasonalityConfig struct {
	Name   string        `json:"name"`
	Orders int           `json:"orders"`
	Period time.Duration `json:"period"`
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
	}
}

// NewYearlySeasonalityConfig creates a yearly seasonality config given a specified number of orders
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	period := time.Duration(365.25 * 24 * float64(time.Hour))
	return NewSeasonalityConfig(LabelSeasYearly, period, orders)
}

// NewWeeklySeasonalityConfig creates a weekly seasonality config given a specified number of orders
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, 7*24*time.Hour, orders)
}

// NewDailySeasonalityConfig creates a daily seasonality config given a specified number of orders
func NewDailySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasDaily, 24*time.Hour, orders)
}

// EventOptions tracks the known event windows to model separately from the
// base series.
type EventOptions struct {
	Events []event.Event `json:"events"`
}
