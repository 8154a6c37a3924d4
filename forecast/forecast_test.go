package forecast

import (
	"math"
	"strconv"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/retailops/storecast/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklyWave(n int, bias, amp float64) ([]time.Time, []float64) {
	ct := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	omega := 2.0 * math.Pi / (7.0 * 86400.0)

	tWin := make([]time.Time, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		tPnt := ct.Add(time.Duration(i) * 24 * time.Hour)
		tWin = append(tWin, tPnt)
		y = append(y, bias+amp*math.Sin(omega*float64(tPnt.Unix())))
	}
	return tWin, y
}

func TestFit(t *testing.T) {
	bias := 7.9
	amp := 4.3
	tWin, y := weeklyWave(70, bias, amp)

	opt := &Options{
		SeasonalityOptions: SeasonalityOptions{
			SeasonalityConfigs: []SeasonalityConfig{
				NewWeeklySeasonalityConfig(1),
			},
		},
	}
	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	labels := f.FeatureLabels()
	res := make([]float64, 0, len(labels)+1)
	res = append(res, f.Intercept())

	coef, err := f.Coefficients()
	require.Nil(t, err)
	for _, label := range labels {
		res = append(res, coef[label.String()])
	}

	// labels sort cos before sin
	expected := []float64{
		bias,
		0.00, amp,
	}
	assert.InDeltaSlice(t, expected, res, 0.1)

	scores := f.Scores()
	assert.Less(t, scores.MSE, 0.001)
	assert.Less(t, scores.RMSE, 0.05)
	assert.Less(t, scores.MAPE, 0.001)
	assert.Greater(t, scores.R2, 0.99)
}

func TestPredictFuture(t *testing.T) {
	tWin, y := weeklyWave(70, 100.0, 12.0)

	f, err := New(&Options{
		SeasonalityOptions: SeasonalityOptions{
			SeasonalityConfigs: []SeasonalityConfig{
				NewWeeklySeasonalityConfig(2),
			},
		},
	})
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	horizon := 14
	future := make([]time.Time, 0, horizon)
	last := tWin[len(tWin)-1]
	for i := 1; i <= horizon; i++ {
		future = append(future, last.Add(time.Duration(i)*24*time.Hour))
	}

	predicted, comp, err := f.Predict(future)
	require.Nil(t, err)
	assert.Len(t, predicted, horizon)
	assert.Len(t, comp.Seasonality, horizon)

	omega := 2.0 * math.Pi / (7.0 * 86400.0)
	for i, tPnt := range future {
		expected := 100.0 + 12.0*math.Sin(omega*float64(tPnt.Unix()))
		assert.InDelta(t, expected, predicted[i], 0.5)
	}
}

func TestPredictUntrained(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)

	_, _, err = f.Predict([]time.Time{time.Now()})
	assert.ErrorIs(t, err, ErrUntrainedForecast)
}

func TestFitWithEvent(t *testing.T) {
	tWin, y := weeklyWave(70, 50.0, 5.0)

	// bump a 3 day window by a constant offset
	evStart := tWin[30]
	evEnd := tWin[33]
	for i := 30; i < 33; i++ {
		y[i] += 20.0
	}

	f, err := New(&Options{
		SeasonalityOptions: SeasonalityOptions{
			SeasonalityConfigs: []SeasonalityConfig{
				NewWeeklySeasonalityConfig(1),
			},
		},
		EventOptions: EventOptions{
			Events: []event.Event{event.NewEvent("promo", evStart, evEnd)},
		},
	})
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	coef, err := f.Coefficients()
	require.Nil(t, err)
	assert.InDelta(t, 20.0, coef["event_promo"], 0.5)
}

func TestModelRoundTrip(t *testing.T) {
	tWin, y := weeklyWave(70, 7.9, 4.3)

	f, err := New(&Options{
		SeasonalityOptions: SeasonalityOptions{
			SeasonalityConfigs: []SeasonalityConfig{
				NewWeeklySeasonalityConfig(1),
			},
		},
	})
	require.Nil(t, err)
	require.Nil(t, f.Fit(tWin, y))

	model, err := f.Model()
	require.Nil(t, err)

	out, err := json.Marshal(model)
	require.Nil(t, err)

	var restored Model
	require.Nil(t, json.Unmarshal(out, &restored))

	f2, err := NewFromModel(restored)
	require.Nil(t, err)

	expected, _, err := f.Predict(tWin)
	require.Nil(t, err)
	predicted, _, err := f2.Predict(tWin)
	require.Nil(t, err)
	assert.InDeltaSlice(t, expected, predicted, 1e-8)
}

func TestGenerateAutoChangepoints(t *testing.T) {
	n := 100
	ct := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	tWin := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		tWin = append(tWin, ct.Add(time.Duration(i)*24*time.Hour))
	}

	chpts := generateAutoChangepoints(tWin, 4)
	require.Len(t, chpts, 4)

	// spread over the first 80% of the 99 day window
	winNs := tWin[len(tWin)-1].Sub(tWin[0]).Nanoseconds() * 8 / 10 / 4
	for i, chpt := range chpts {
		assert.Equal(t, "auto_"+strconv.Itoa(i), chpt.Name)
		assert.Equal(t, ct.Add(time.Duration(winNs*int64(i))), chpt.T)
	}
}

func TestGenerateEventFeatures(t *testing.T) {
	ct := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	tWin := make([]time.Time, 0, 5)
	for i := 0; i < 5; i++ {
		tWin = append(tWin, ct.Add(time.Duration(i)*24*time.Hour))
	}

	events := []event.Event{
		event.NewEvent("promo", tWin[1], tWin[3]),
		{Name: "invalid"},
	}
	feat := generateEventFeatures(tWin, events)
	require.Len(t, feat, 1)

	data, exists := feat["event_promo"]
	require.True(t, exists)
	assert.Equal(t, []float64{0, 1, 1, 0, 0}, data.Data)
}
