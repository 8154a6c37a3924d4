package tracking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server

	experiments map[string]string
	params      map[string]string
	tags        map[string]string
	metrics     map[string]float64
	models      map[string]string
	status      map[string]string
	updateCalls int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{
		experiments: make(map[string]string),
		params:      make(map[string]string),
		tags:        make(map[string]string),
		metrics:     make(map[string]float64),
		models:      make(map[string]string),
		status:      make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/experiments/get-by-name", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("experiment_name")
		id, exists := fs.experiments[name]
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error_code": "RESOURCE_DOES_NOT_EXIST",
				"message":    "experiment not found",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"experiment": map[string]string{"experiment_id": id},
		})
	})
	mux.HandleFunc("/api/2.0/mlflow/experiments/create", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		fs.experiments[req.Name] = "42"
		json.NewEncoder(w).Encode(map[string]string{"experiment_id": "42"})
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/create", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"run": map[string]any{
				"info": map[string]string{"run_id": "run-123"},
			},
		})
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/log-parameter", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		fs.params[req.Key] = req.Value
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/set-tag", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		fs.tags[req.Key] = req.Value
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/log-metric", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key   string  `json:"key"`
			Value float64 `json:"value"`
		}
		require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		fs.metrics[req.Key] = req.Value
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/log-model", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RunID     string `json:"run_id"`
			ModelJSON string `json:"model_json"`
		}
		require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		fs.models[req.RunID] = req.ModelJSON
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/update", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RunID  string `json:"run_id"`
			Status string `json:"status"`
		}
		require.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		fs.updateCalls++
		fs.status[req.RunID] = req.Status
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func TestNewClientNoURI(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrNoTrackingURI)
}

func TestGetOrCreateExperiment(t *testing.T) {
	fs := newFakeServer(t)
	c, err := NewClient(fs.URL)
	require.Nil(t, err)

	ctx := context.Background()

	// first call creates
	id, err := c.GetOrCreateExperiment(ctx, "store-sales")
	require.Nil(t, err)
	assert.Equal(t, "42", id)

	// second call resolves the existing experiment
	id, err = c.GetOrCreateExperiment(ctx, "store-sales")
	require.Nil(t, err)
	assert.Equal(t, "42", id)
}

func TestRunLifecycle(t *testing.T) {
	fs := newFakeServer(t)
	c, err := NewClient(fs.URL)
	require.Nil(t, err)

	ctx := context.Background()
	run, err := c.StartRun(ctx, "42", "store-4")
	require.Nil(t, err)
	assert.Equal(t, "runs:/run-123/model", run.ModelURI())

	require.Nil(t, run.LogParam(ctx, "store_id", "4"))
	require.Nil(t, run.SetTag(ctx, "workflow", "storecast"))
	require.Nil(t, run.LogMetric(ctx, "rmse", 123.4))
	require.Nil(t, run.LogModel(ctx, []byte(`{"options":null}`)))
	require.Nil(t, run.End(ctx, StatusFinished))

	assert.Equal(t, "4", fs.params["store_id"])
	assert.Equal(t, "storecast", fs.tags["workflow"])
	assert.InDelta(t, 123.4, fs.metrics["rmse"], 1e-9)
	assert.Equal(t, `{"options":null}`, fs.models["run-123"])
	assert.Equal(t, StatusFinished, fs.status["run-123"])

	// a deferred second End is a no-op
	require.Nil(t, run.End(ctx, StatusFailed))
	assert.Equal(t, 1, fs.updateCalls)
	assert.Equal(t, StatusFinished, fs.status["run-123"])

	// logging after the run ended fails
	assert.ErrorIs(t, run.LogMetric(ctx, "rmse", 1.0), ErrRunEnded)
}
