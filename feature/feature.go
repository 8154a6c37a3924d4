// Package feature contains the feature labels that make up the columns of a
// forecast design matrix along with their data container.
package feature

type FeatureType string

const (
	FeatureTypeChangepoint FeatureType = "changepoint"
	FeatureTypeSeasonality FeatureType = "seasonality"
	FeatureTypeTime        FeatureType = "time"
	FeatureTypeEvent       FeatureType = "event"
	FeatureTypeGrowth      FeatureType = "growth"
)

// Feature is a label for a single column of the design matrix. The string form
// is stable and used as the key to look up coefficients after a fit.
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}
