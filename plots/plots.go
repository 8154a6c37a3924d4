// Package plots renders the store series and forecast charts to PNG files.
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	storecast "github.com/retailops/storecast"
)

var (
	ErrNoSeries       = errors.New("no series to plot")
	ErrSeriesMismatch = errors.New("time and value series have different lengths")
)

// DefaultTrailingPoints is how many of the most recent training points are
// drawn alongside the forecast for context.
const DefaultTrailingPoints = 100

var (
	colorTrain    = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	colorTruth    = color.NRGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}
	colorForecast = color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	colorBand     = color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0x30}
)

func timeXYs(t []time.Time, y []float64) (plotter.XYs, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf("%d times and %d values, %w", len(t), len(y), ErrSeriesMismatch)
	}
	xys := make(plotter.XYs, 0, len(t))
	for i := range t {
		xys = append(xys, plotter.XY{X: float64(t[i].Unix()), Y: y[i]})
	}
	return xys, nil
}

func newTimePlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Sales"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())
	return p
}

// SaveSeries writes a line chart of a store's sales history.
func SaveSeries(path, title string, t []time.Time, y []float64) error {
	if len(t) == 0 {
		return ErrNoSeries
	}
	xys, err := timeXYs(t, y)
	if err != nil {
		return err
	}

	p := newTimePlot(title)

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("unable to build series line, %w", err)
	}
	line.Color = colorTrain
	p.Add(line)
	p.Legend.Add("sales", line)

	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}

// SaveForecast writes the forecast chart showing the predicted values with
// the uncertainty band, the holdout truth, and the trailing end of the
// training series. A non-positive trailing count uses DefaultTrailingPoints.
func SaveForecast(path, title string, trainT []time.Time, trainY []float64, truthT []time.Time, truthY []float64, res *storecast.Results, trailing int) error {
	if res == nil || len(res.T) == 0 {
		return ErrNoSeries
	}
	if trailing <= 0 {
		trailing = DefaultTrailingPoints
	}
	if trailing > len(trainT) {
		trailing = len(trainT)
	}

	p := newTimePlot(title)

	// uncertainty band drawn first so the lines sit on top
	band := make(plotter.XYs, 0, 2*len(res.T))
	for i := range res.T {
		band = append(band, plotter.XY{X: float64(res.T[i].Unix()), Y: res.Upper[i]})
	}
	for i := len(res.T) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: float64(res.T[i].Unix()), Y: res.Lower[i]})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return fmt.Errorf("unable to build uncertainty band, %w", err)
	}
	poly.Color = colorBand
	poly.LineStyle.Width = 0
	p.Add(poly)
	p.Legend.Add("interval", poly)

	if trailing > 0 {
		trainXYs, err := timeXYs(trainT[len(trainT)-trailing:], trainY[len(trainY)-trailing:])
		if err != nil {
			return err
		}
		trainLine, err := plotter.NewLine(trainXYs)
		if err != nil {
			return fmt.Errorf("unable to build training line, %w", err)
		}
		trainLine.Color = colorTrain
		p.Add(trainLine)
		p.Legend.Add("train", trainLine)
	}

	if len(truthT) > 0 {
		truthXYs, err := timeXYs(truthT, truthY)
		if err != nil {
			return err
		}
		truth, err := plotter.NewScatter(truthXYs)
		if err != nil {
			return fmt.Errorf("unable to build truth scatter, %w", err)
		}
		truth.GlyphStyle.Color = colorTruth
		truth.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(truth)
		p.Legend.Add("actual", truth)
	}

	forecastXYs, err := timeXYs(res.T, res.Forecast)
	if err != nil {
		return err
	}
	forecastLine, err := plotter.NewLine(forecastXYs)
	if err != nil {
		return fmt.Errorf("unable to build forecast line, %w", err)
	}
	forecastLine.Color = colorForecast
	forecastLine.Width = vg.Points(1.5)
	p.Add(forecastLine)
	p.Legend.Add("forecast", forecastLine)

	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}
