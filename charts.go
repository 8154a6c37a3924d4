package storecast

import (
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/retailops/storecast/timedataset"
)

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	lineData := make([][]opts.LineData, len(y))
	for i := 0; i < len(y); i++ {
		lineData[i] = make([]opts.LineData, 0, len(y[i]))
		for j := 0; j < len(y[i]); j++ {
			if math.IsNaN(y[i][j]) {
				lineData[i] = append(lineData[i], opts.LineData{})
				continue
			}
			lineData[i] = append(lineData[i], opts.LineData{Value: y[i][j]})
		}
	}

	line = line.SetXAxis(t)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData[i])
	}

	return line
}

// LineForecaster generates an echart line chart for a given fit result plotting the observed values
// along with the fit, forecasted, upper, and lower values.
func LineForecaster(trainingData *timedataset.TimeDataset, fitRes, forecastRes *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Forecast Fit",
			},
		),
	)

	t := make([]time.Time, 0, len(fitRes.T)+len(forecastRes.T))
	t = append(t, fitRes.T...)
	t = append(t, forecastRes.T...)

	lineDataActual := make([]opts.LineData, 0, len(t))
	lineDataForecast := make([]opts.LineData, 0, len(t))
	lineDataUpper := make([]opts.LineData, 0, len(t))
	lineDataLower := make([]opts.LineData, 0, len(t))

	for i := 0; i < len(fitRes.T); i++ {
		lineDataActual = append(lineDataActual, opts.LineData{Value: trainingData.Y[i]})
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: fitRes.Forecast[i]})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: fitRes.Upper[i]})
		lineDataLower = append(lineDataLower, opts.LineData{Value: fitRes.Lower[i]})
	}
	for i := 0; i < len(forecastRes.T); i++ {
		lineDataActual = append(lineDataActual, opts.LineData{})
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: forecastRes.Forecast[i]})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: forecastRes.Upper[i]})
		lineDataLower = append(lineDataLower, opts.LineData{Value: forecastRes.Lower[i]})
	}

	line.SetXAxis(t).
		AddSeries("Actual", lineDataActual).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}
