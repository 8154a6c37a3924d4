// Package tracking records forecast runs to an MLflow compatible tracking
// server over its REST api. Parameters, metrics, and the serialized model of
// each workflow run are logged under a named experiment.
package tracking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	apiPrefix = "/api/2.0/mlflow"

	errCodeNotFound = "RESOURCE_DOES_NOT_EXIST"
)

// Run end statuses understood by the tracking server.
const (
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
)

var (
	ErrNoTrackingURI = errors.New("no tracking uri configured")
	ErrRunEnded      = errors.New("run already ended")
)

// APIError is the structured error payload returned by the tracking server.
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracking api error %s: %s", e.Code, e.Message)
}

// Client talks to one tracking server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a tracking client for the server at uri, e.g.
// http://localhost:5000.
func NewClient(uri string) (*Client, error) {
	if uri == "" {
		return nil, ErrNoTrackingURI
	}
	return &Client{
		baseURL: strings.TrimRight(uri, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	u := c.baseURL + apiPrefix + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode request, %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("unable to build request, %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracking request to %s failed, %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unable to read tracking response, %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = resp.Status
			apiErr.Message = string(data)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unable to decode tracking response, %w", err)
		}
	}
	return nil
}

// GetOrCreateExperiment resolves the experiment id for name creating the
// experiment when it does not exist yet.
func (c *Client) GetOrCreateExperiment(ctx context.Context, name string) (string, error) {
	var got struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	query := url.Values{"experiment_name": []string{name}}
	err := c.do(ctx, http.MethodGet, "/experiments/get-by-name", query, nil, &got)
	if err == nil {
		return got.Experiment.ExperimentID, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != errCodeNotFound {
		return "", err
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	req := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/experiments/create", nil, req, &created); err != nil {
		return "", err
	}
	slog.Info("created tracking experiment", "name", name, "experiment_id", created.ExperimentID)
	return created.ExperimentID, nil
}

// Run tracks a single workflow run until End is called.
type Run struct {
	ID string

	client *Client
	ended  bool
}

// StartRun creates a new run under the experiment.
func (c *Client) StartRun(ctx context.Context, experimentID, runName string) (*Run, error) {
	req := map[string]any{
		"experiment_id": experimentID,
		"run_name":      runName,
		"start_time":    time.Now().UnixMilli(),
	}
	var got struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	if err := c.do(ctx, http.MethodPost, "/runs/create", nil, req, &got); err != nil {
		return nil, err
	}
	slog.Info("started tracking run", "run_id", got.Run.Info.RunID, "run_name", runName)
	return &Run{ID: got.Run.Info.RunID, client: c}, nil
}

// LogParam records a single key value parameter on the run.
func (r *Run) LogParam(ctx context.Context, key, value string) error {
	if r.ended {
		return ErrRunEnded
	}
	req := map[string]string{
		"run_id": r.ID,
		"key":    key,
		"value":  value,
	}
	return r.client.do(ctx, http.MethodPost, "/runs/log-parameter", nil, req, nil)
}

// SetTag records a single key value tag on the run.
func (r *Run) SetTag(ctx context.Context, key, value string) error {
	if r.ended {
		return ErrRunEnded
	}
	req := map[string]string{
		"run_id": r.ID,
		"key":    key,
		"value":  value,
	}
	return r.client.do(ctx, http.MethodPost, "/runs/set-tag", nil, req, nil)
}

// LogMetric records a single metric value on the run.
func (r *Run) LogMetric(ctx context.Context, key string, value float64) error {
	if r.ended {
		return ErrRunEnded
	}
	req := map[string]any{
		"run_id":    r.ID,
		"key":       key,
		"value":     value,
		"timestamp": time.Now().UnixMilli(),
		"step":      0,
	}
	return r.client.do(ctx, http.MethodPost, "/runs/log-metric", nil, req, nil)
}

// LogModel attaches the serialized model to the run making it addressable at
// the run model uri.
func (r *Run) LogModel(ctx context.Context, model []byte) error {
	if r.ended {
		return ErrRunEnded
	}
	req := map[string]string{
		"run_id":     r.ID,
		"model_json": string(model),
	}
	return r.client.do(ctx, http.MethodPost, "/runs/log-model", nil, req, nil)
}

// ModelURI returns the canonical uri of the model logged to this run.
func (r *Run) ModelURI() string {
	return fmt.Sprintf("runs:/%s/model", r.ID)
}

// End closes out the run with the given status. Safe to call more than once
// so it can be deferred while still ending early with a failure status on
// error paths.
func (r *Run) End(ctx context.Context, status string) error {
	if r.ended {
		return nil
	}
	req := map[string]any{
		"run_id":   r.ID,
		"status":   status,
		"end_time": time.Now().UnixMilli(),
	}
	if err := r.client.do(ctx, http.MethodPost, "/runs/update", nil, req, nil); err != nil {
		return err
	}
	r.ended = true
	slog.Info("ended tracking run", "run_id", r.ID, "status", status)
	return nil
}
