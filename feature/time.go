package feature

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Time labels a raw time derived feature such as the epoch column that seeds
// the Fourier and growth features.
type Time struct {
	Name string `json:"name"`
}

func NewTime(name string) *Time {
	return &Time{name}
}

func (t Time) String() string {
	return fmt.Sprintf("tfeat_%s", t.Name)
}

func (t Time) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return t.Name, true
	}
	return "", false
}

func (t Time) Type() FeatureType {
	return FeatureTypeTime
}

func (t Time) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = t.Name
	return res
}

// Generate converts the time points into the epoch feature column.
func (t Time) Generate(tPnts []time.Time) []float64 {
	res := make([]float64, len(tPnts))
	for i, tp := range tPnts {
		res[i] = float64(tp.Unix())
	}
	return res
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &labelStr); err != nil {
		return err
	}
	t.Name = labelStr.Name
	return nil
}
