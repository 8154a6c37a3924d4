package feature

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
	GrowthQuadratic = "quadratic"
)

// Growth labels a trend feature spanning the full training window.
type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

func (g Growth) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return g.Name, true
	}
	return "", false
}

func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

func (g Growth) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = g.Name
	return res
}

func (g *Growth) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &labelStr); err != nil {
		return err
	}
	g.Name = labelStr.Name
	return nil
}

func Intercept() *Growth {
	return NewGrowth(GrowthIntercept)
}

func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}

func Quadratic() *Growth {
	return NewGrowth(GrowthQuadratic)
}

// Generate scales the epoch between the training start and end time producing
// the intercept, linear, or quadratic trend columns.
func (g Growth) Generate(epoch []float64, trainStart, trainEnd time.Time) []float64 {
	res := make([]float64, len(epoch))
	startEpoch := float64(trainStart.Unix())
	endEpoch := float64(trainEnd.Unix())
	span := endEpoch - startEpoch

	for i, e := range epoch {
		switch g.Name {
		case GrowthIntercept:
			res[i] = 1.0
		case GrowthLinear:
			res[i] = (e - startEpoch) / span
		case GrowthQuadratic:
			scaled := (e - startEpoch) / span
			res[i] = scaled * scaled
		}
	}
	return res
}
