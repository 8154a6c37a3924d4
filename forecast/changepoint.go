package forecast

import "time"

// DefaultAutoNumChangepoints is the number of evenly spaced changepoints to
// generate when automatic changepoint detection is enabled.
const DefaultAutoNumChangepoints = 25

// Changepoint describes a point in time that will change the ongoing trend. This will
// include both a bias and a growth feature.
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoint feature generation. Automatic
// changepoints are spread evenly over the first 80% of the training window so
// the trailing trend is not dominated by the most recent observations.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
}

func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
	}
}
