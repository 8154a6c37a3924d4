package feature

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Data couples a feature label with its generated column values.
type Data struct {
	F    Feature
	Data []float64
}

// Set represents a mapping to each feature data keyed by the string
// representation of the feature.
type Set map[string]Data

func NewSet() Set {
	return make(Set)
}

// Set stores the column data for a feature label overwriting any previous data.
func (s Set) Set(f Feature, data []float64) {
	s[f.String()] = Data{F: f, Data: data}
}

// Get returns the column data of a feature label along with whether it exists.
func (s Set) Get(f Feature) ([]float64, bool) {
	d, exists := s[f.String()]
	if !exists {
		return nil, false
	}
	return d.Data, true
}

// Update merges the src feature set into this one overwriting duplicates.
func (s Set) Update(src Set) {
	for label, d := range src {
		s[label] = d
	}
}

// Labels returns the sorted feature labels tracked in the set.
func (s Set) Labels() *Labels {
	if s == nil {
		return nil
	}

	labels := make([]Feature, 0, len(s))
	for _, feat := range s {
		labels = append(labels, feat.F)
	}
	sort.Slice(
		labels,
		func(i, j int) bool {
			return labels[i].String() < labels[j].String()
		},
	)
	return NewLabels(labels)
}

// Matrix returns a matrix representation of the feature set to be used with
// matrix methods. The matrix has m rows representing the number of observations
// and n columns representing the number of features.
func (s Set) Matrix(intercept bool) *mat.Dense {
	if s == nil {
		return nil
	}

	featureLabels := s.Labels()
	if featureLabels.Len() == 0 {
		return nil
	}

	var m int
	// use first feature to get length
	for _, flabel := range featureLabels.Labels() {
		m = len(s[flabel.String()].Data)
		break
	}
	n := featureLabels.Len()
	if intercept {
		n += 1
	}

	obs := make([]float64, m*n)

	featNum := 0
	if intercept {
		for i := 0; i < m; i++ {
			idx := n * i
			obs[idx] = 1.0
		}
		featNum += 1
	}

	for _, label := range featureLabels.Labels() {
		feature := s[label.String()]
		for i := 0; i < len(feature.Data); i++ {
			idx := n*i + featNum
			obs[idx] = feature.Data[i]
		}
		featNum += 1
	}
	return mat.NewDense(m, n, obs)
}

// MatrixSlice returns the feature set as a slice of slices where each row
// represents a feature column. Takes an intercept input if we want to include
// the intercept term.
func (s Set) MatrixSlice(intercept bool) [][]float64 {
	if s == nil {
		return nil
	}

	featureLabels := s.Labels()
	if featureLabels.Len() == 0 {
		return nil
	}

	var m int
	for _, flabel := range featureLabels.Labels() {
		m = len(s[flabel.String()].Data)
		break
	}
	n := featureLabels.Len()
	if intercept {
		n += 1
	}

	obs := make([][]float64, n)
	featNum := 0
	if intercept {
		ones := make([]float64, m)
		floats.AddConst(1.0, ones)
		obs[featNum] = ones
		featNum++
	}

	for _, label := range featureLabels.Labels() {
		feature := s[label.String()]
		obs[featNum] = feature.Data
		featNum += 1
	}
	return obs
}
