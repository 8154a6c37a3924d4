package storecast

import (
	json "github.com/goccy/go-json"

	"github.com/retailops/storecast/forecast"
)

// Model is the serializeable representation of a fit forecaster holding the
// options along with the series and uncertainty models.
type Model struct {
	Options  *Options       `json:"options"`
	Series   forecast.Model `json:"series"`
	Residual forecast.Model `json:"residual"`
}

// Bytes serializes the model to JSON.
func (m Model) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// LoadModel deserializes a model previously serialized with Bytes.
func LoadModel(data []byte) (Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return Model{}, err
	}
	return m, nil
}
