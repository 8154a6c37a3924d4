package forecast

import (
	"strconv"
	"time"

	"github.com/retailops/storecast/event"
	"github.com/retailops/storecast/feature"
)

func generateTimeFeatures(t []time.Time) feature.Set {
	tFeat := feature.NewSet()

	epoch := feature.NewTime(LabelTimeEpoch)
	tFeat.Set(epoch, epoch.Generate(t))
	return tFeat
}

func generateGrowthFeatures(tFeat feature.Set, growthType string, trainStart, trainEnd time.Time) feature.Set {
	x := feature.NewSet()
	epoch, exists := tFeat.Get(feature.NewTime(LabelTimeEpoch))
	if !exists {
		return x
	}

	switch growthType {
	case feature.GrowthQuadratic:
		quad := feature.Quadratic()
		x.Set(quad, quad.Generate(epoch, trainStart, trainEnd))
		fallthrough
	case feature.GrowthLinear:
		lin := feature.Linear()
		x.Set(lin, lin.Generate(epoch, trainStart, trainEnd))
	}
	return x
}

func generateFourierFeatures(tFeat feature.Set, cfgs []SeasonalityConfig) (feature.Set, error) {
	epoch, exists := tFeat.Get(feature.NewTime(LabelTimeEpoch))
	if !exists {
		return nil, ErrUnknownTimeFeature
	}

	x := feature.NewSet()
	for _, cfg := range cfgs {
		period := cfg.Period.Seconds()
		for order := 1; order <= cfg.Orders; order++ {
			sinFeat := feature.NewSeasonality(cfg.Name, feature.FourierCompSin, order)
			cosFeat := feature.NewSeasonality(cfg.Name, feature.FourierCompCos, order)
			x.Set(sinFeat, sinFeat.Generate(epoch, order, period))
			x.Set(cosFeat, cosFeat.Generate(epoch, order, period))
		}
	}
	return x, nil
}

// generateEventFeatures creates one rectangular mask column per event window
// set to 1.0 while the event is active.
func generateEventFeatures(t []time.Time, events []event.Event) feature.Set {
	x := feature.NewSet()
	for _, ev := range events {
		if err := ev.Valid(); err != nil {
			continue
		}
		mask := make([]float64, len(t))
		for i, tPnt := range t {
			if !tPnt.Before(ev.Start) && tPnt.Before(ev.End) {
				mask[i] = 1.0
			}
		}
		x.Set(feature.NewEvent(ev.Name), mask)
	}
	return x
}

// generateAutoChangepoints spreads n changepoints evenly over the first 80% of
// the training window leaving the tail for the last trend segment to settle.
func generateAutoChangepoints(t []time.Time, n int) []Changepoint {
	minTime, maxTime := timeRange(t)

	window := maxTime.Sub(minTime) * 8 / 10
	changepointWinNs := window.Nanoseconds() / int64(n)
	chpts := make([]Changepoint, 0, n)

	for i := 0; i < n; i++ {
		chpntTime := minTime.Add(time.Duration(changepointWinNs * int64(i)))
		chpts = append(
			chpts,
			NewChangepoint("auto_"+strconv.Itoa(i), chpntTime),
		)
	}
	return chpts
}

func generateChangepointFeatures(t []time.Time, chpts []Changepoint, trainEnd time.Time) feature.Set {
	if trainEnd.IsZero() {
		_, trainEnd = timeRange(t)
	}

	chptFeatures := make([][]float64, len(chpts)*2)
	for i := 0; i < len(chpts)*2; i++ {
		chptFeatures[i] = make([]float64, len(t))
	}

	for i := 0; i < len(t); i++ {
		for j := 0; j < len(chpts); j++ {
			if t[i].Before(chpts[j].T) {
				continue
			}
			deltaT := trainEnd.Sub(chpts[j].T).Seconds()
			chptFeatures[j*2][i] = 1.0
			chptFeatures[j*2+1][i] = t[i].Sub(chpts[j].T).Seconds() / deltaT
		}
	}

	feat := feature.NewSet()
	for i := 0; i < len(chpts); i++ {
		chpntName := strconv.Itoa(i)
		if chpts[i].Name != "" {
			chpntName = chpts[i].Name
		}
		chpntBias := feature.NewChangepoint(chpntName, feature.ChangepointCompBias)
		chpntSlope := feature.NewChangepoint(chpntName, feature.ChangepointCompSlope)

		feat.Set(chpntBias, chptFeatures[i*2])
		feat.Set(chpntSlope, chptFeatures[i*2+1])
	}
	return feat
}

func timeRange(t []time.Time) (time.Time, time.Time) {
	var minTime, maxTime time.Time
	for _, tPnt := range t {
		if minTime.IsZero() || tPnt.Before(minTime) {
			minTime = tPnt
		}
		if maxTime.IsZero() || tPnt.After(maxTime) {
			maxTime = tPnt
		}
	}
	return minTime, maxTime
}
