// Package crossval evaluates a forecaster with rolling origin cross
// validation. The series is refit at each cutoff and scored over the horizon
// immediately following it.
package crossval

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	storecast "github.com/retailops/storecast"
	"github.com/retailops/storecast/forecast"
	"github.com/retailops/storecast/timedataset"
)

var (
	ErrNoDataset        = errors.New("no dataset to cross validate")
	ErrInsufficientData = errors.New("not enough history for a single cross validation window")
	ErrNoWindows        = errors.New("no cross validation windows computed")
)

const DefaultWindow = 180 * 24 * time.Hour

// Config sets the cross validation windows. Initial is the minimum amount of
// history before the first cutoff, Period is the spacing between cutoffs, and
// Horizon is how far past each cutoff to score.
type Config struct {
	Initial time.Duration `json:"initial"`
	Period  time.Duration `json:"period"`
	Horizon time.Duration `json:"horizon"`
}

// NewDefaultConfig returns a config with 180 day initial, period, and horizon
// windows.
func NewDefaultConfig() *Config {
	return &Config{
		Initial: DefaultWindow,
		Period:  DefaultWindow,
		Horizon: DefaultWindow,
	}
}

func (c *Config) validate() (*Config, error) {
	if c == nil {
		c = NewDefaultConfig()
	}
	if c.Initial <= 0 || c.Period <= 0 || c.Horizon <= 0 {
		return nil, fmt.Errorf("initial, period, and horizon must be positive, %w", ErrInsufficientData)
	}
	return c, nil
}

// cutoffs generates the training cutoff times where each cutoff leaves a full
// horizon of observations after it.
func (c *Config) cutoffs(start, end time.Time) []time.Time {
	var res []time.Time
	for cutoff := start.Add(c.Initial); !cutoff.Add(c.Horizon).After(end); cutoff = cutoff.Add(c.Period) {
		res = append(res, cutoff)
	}
	return res
}

// Window holds the scores of a single cross validation fold.
type Window struct {
	Cutoff    time.Time       `json:"cutoff"`
	TrainSize int             `json:"train_size"`
	TestSize  int             `json:"test_size"`
	Scores    forecast.Scores `json:"scores"`
}

// Summary aggregates the per window scores of a cross validation run.
type Summary struct {
	Windows []Window `json:"windows"`
}

// First returns the scores of the first horizon window.
func (s *Summary) First() (Window, error) {
	if s == nil || len(s.Windows) == 0 {
		return Window{}, ErrNoWindows
	}
	return s.Windows[0], nil
}

// MeanRMSE averages the root mean squared error over all windows.
func (s *Summary) MeanRMSE() float64 {
	if s == nil || len(s.Windows) == 0 {
		return 0
	}
	var total float64
	for _, w := range s.Windows {
		total += w.Scores.RMSE
	}
	return total / float64(len(s.Windows))
}

// Run cross validates a forecaster over the input dataset refitting at each
// cutoff with fresh options from newOptions. A nil newOptions uses the
// default forecaster options per fold.
func Run(td *timedataset.TimeDataset, cfg *Config, newOptions func() *storecast.Options) (*Summary, error) {
	if td == nil || td.Len() == 0 {
		return nil, ErrNoDataset
	}
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	cutoffs := cfg.cutoffs(td.StartTime(), td.EndTime())
	if len(cutoffs) == 0 {
		return nil, fmt.Errorf("%s of history cannot cover initial %s plus horizon %s, %w",
			td.EndTime().Sub(td.StartTime()), cfg.Initial, cfg.Horizon, ErrInsufficientData)
	}

	summary := &Summary{Windows: make([]Window, 0, len(cutoffs))}
	for _, cutoff := range cutoffs {
		window, err := runFold(td, cutoff, cfg.Horizon, newOptions)
		if err != nil {
			return nil, fmt.Errorf("cross validation fold at cutoff %s failed, %w", cutoff, err)
		}
		slog.Debug("cross validation fold complete",
			"cutoff", cutoff,
			"train_size", window.TrainSize,
			"test_size", window.TestSize,
			"rmse", window.Scores.RMSE)
		summary.Windows = append(summary.Windows, window)
	}
	return summary, nil
}

func runFold(td *timedataset.TimeDataset, cutoff time.Time, horizon time.Duration, newOptions func() *storecast.Options) (Window, error) {
	horizonEnd := cutoff.Add(horizon)

	trainT := make([]time.Time, 0, td.Len())
	trainY := make([]float64, 0, td.Len())
	testT := make([]time.Time, 0, td.Len())
	testY := make([]float64, 0, td.Len())
	for i := 0; i < td.Len(); i++ {
		switch {
		case !td.T[i].After(cutoff):
			trainT = append(trainT, td.T[i])
			trainY = append(trainY, td.Y[i])
		case !td.T[i].After(horizonEnd):
			testT = append(testT, td.T[i])
			testY = append(testY, td.Y[i])
		}
	}
	if len(testT) == 0 {
		return Window{}, ErrInsufficientData
	}

	var opt *storecast.Options
	if newOptions != nil {
		opt = newOptions()
	}
	f, err := storecast.New(opt)
	if err != nil {
		return Window{}, err
	}
	if err := f.Fit(trainT, trainY); err != nil {
		return Window{}, err
	}

	res, err := f.Predict(testT)
	if err != nil {
		return Window{}, err
	}
	scores, err := forecast.NewScores(res.Forecast, testY)
	if err != nil {
		return Window{}, err
	}

	return Window{
		Cutoff:    cutoff,
		TrainSize: len(trainT),
		TestSize:  len(testT),
		Scores:    *scores,
	}, nil
}
