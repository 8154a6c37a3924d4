package feature

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event labels a time span modelled separately from the base series, e.g. a
// holiday window where sales behave differently.
type Event struct {
	Name string `json:"name"`
}

func NewEvent(name string) *Event {
	return &Event{name}
}

func (e Event) String() string {
	return fmt.Sprintf("event_%s", e.Name)
}

func (e Event) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return e.Name, true
	}
	return "", false
}

func (e Event) Type() FeatureType {
	return FeatureTypeEvent
}

func (e Event) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = e.Name
	return res
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name string `json:"name"`
	}
	err := json.Unmarshal(data, &labelStr)
	if err != nil {
		return err
	}
	e.Name = labelStr.Name
	return nil
}
