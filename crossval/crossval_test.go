package crossval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storecast "github.com/retailops/storecast"
	"github.com/retailops/storecast/forecast"
	"github.com/retailops/storecast/timedataset"
)

func weeklyOptions() *storecast.Options {
	seriesOpt := &forecast.Options{
		SeasonalityOptions: forecast.SeasonalityOptions{
			SeasonalityConfigs: []forecast.SeasonalityConfig{
				forecast.NewWeeklySeasonalityConfig(2),
			},
		},
	}
	residualOpt := &forecast.Options{
		SeasonalityOptions: forecast.SeasonalityOptions{
			SeasonalityConfigs: []forecast.SeasonalityConfig{
				forecast.NewWeeklySeasonalityConfig(1),
			},
		},
	}
	return &storecast.Options{
		SeriesOptions:   seriesOpt,
		ResidualOptions: residualOpt,
		ResidualWindow:  20,
		IntervalWidth:   0.95,
	}
}

func simulatedDataset(t *testing.T, n int) *timedataset.TimeDataset {
	t.Helper()
	nowFunc := func() time.Time {
		return time.Date(2015, 7, 31, 0, 0, 0, 0, time.UTC)
	}
	tWin := timedataset.GenerateT(n, 24*time.Hour, nowFunc)
	y := timedataset.GenerateConstY(n, 5000.0).
		Add(timedataset.GenerateWaveY(tWin, 800.0, 7*24*60*60, 1.0, 0.0))

	td, err := timedataset.NewUnivariateDataset(tWin, y)
	require.Nil(t, err)
	return td
}

func TestCutoffs(t *testing.T) {
	start := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)

	testData := map[string]struct {
		cfg      Config
		span     time.Duration
		expected int
	}{
		"two windows": {
			cfg:      Config{Initial: DefaultWindow, Period: DefaultWindow, Horizon: DefaultWindow},
			span:     719 * 24 * time.Hour,
			expected: 2,
		},
		"exact fit": {
			cfg:      Config{Initial: DefaultWindow, Period: DefaultWindow, Horizon: DefaultWindow},
			span:     720 * 24 * time.Hour,
			expected: 3,
		},
		"too short": {
			cfg:  Config{Initial: DefaultWindow, Period: DefaultWindow, Horizon: DefaultWindow},
			span: 300 * 24 * time.Hour,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			cutoffs := td.cfg.cutoffs(start, start.Add(td.span))
			assert.Len(t, cutoffs, td.expected)
			if td.expected > 0 {
				assert.Equal(t, start.Add(td.cfg.Initial), cutoffs[0])
			}
		})
	}
}

func TestRun(t *testing.T) {
	td := simulatedDataset(t, 720)

	summary, err := Run(td, NewDefaultConfig(), weeklyOptions)
	require.Nil(t, err)
	require.Len(t, summary.Windows, 2)

	first, err := summary.First()
	require.Nil(t, err)
	assert.Equal(t, 181, first.TrainSize)
	assert.Equal(t, 180, first.TestSize)
	assert.Less(t, first.Scores.RMSE, 100.0)
	assert.Less(t, summary.MeanRMSE(), 100.0)
}

func TestRunInsufficientData(t *testing.T) {
	td := simulatedDataset(t, 200)

	_, err := Run(td, NewDefaultConfig(), weeklyOptions)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRunNoDataset(t *testing.T) {
	_, err := Run(nil, NewDefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNoDataset)
}
