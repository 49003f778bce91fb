package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/campaign-scorer/internal/api/handlers"
	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/pkg/httputil"
)

// APIError is a non-2xx answer from the scoring API
type APIError struct {
	StatusCode int
	Response   handlers.ErrorResponse
}

func (e *APIError) Error() string {
	msg := e.Response.Error
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Response.Index != nil {
		return fmt.Sprintf("scoring api: %d: record %d: %s", e.StatusCode, *e.Response.Index, msg)
	}
	return fmt.Sprintf("scoring api: %d: %s", e.StatusCode, msg)
}

// Unwrap maps the reported kind back onto the local error taxonomy
func (e *APIError) Unwrap() error {
	switch e.Response.Kind {
	case contracts.KindUnavailable:
		return contracts.ErrModelUnavailable
	case contracts.KindInput:
		return contracts.ErrMalformedInput
	case contracts.KindTransform:
		return contracts.ErrTransform
	case contracts.KindScoring:
		return contracts.ErrScoring
	}
	if e.StatusCode == http.StatusServiceUnavailable {
		return contracts.ErrModelUnavailable
	}
	return nil
}

// Health is the /health payload
type Health struct {
	Status      string  `json:"status"`
	ModelLoaded bool    `json:"model_loaded"`
	Algorithm   string  `json:"algorithm,omitempty"`
	Threshold   float64 `json:"threshold"`
	Fingerprint string  `json:"fingerprint,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Client calls a remote scoring API
type Client struct {
	baseURL string
	http    *httputil.Client
}

// New creates a client for the API at baseURL
func New(baseURL string, hc *httputil.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// Health fetches the service status
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	resp, err := c.http.Get(ctx, c.baseURL+"/health")
	if err != nil {
		return h, err
	}
	err = decode(resp, &h)
	return h, err
}

// Predict scores one record remotely
func (c *Client) Predict(ctx context.Context, rec contracts.Record) (contracts.PredictionResult, error) {
	var res contracts.PredictionResult
	resp, err := c.http.PostJSON(ctx, c.baseURL+"/predict", handlers.PredictRequest{Client: rec})
	if err != nil {
		return res, err
	}
	err = decode(resp, &res)
	return res, err
}

// PredictBatch scores records remotely, one result per record in input order
func (c *Client) PredictBatch(ctx context.Context, recs []contracts.Record) ([]contracts.PredictionResult, error) {
	var out handlers.BatchResponse
	resp, err := c.http.PostJSON(ctx, c.baseURL+"/predict/batch", handlers.BatchRequest{Clients: recs})
	if err != nil {
		return nil, err
	}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	if len(out.Results) != len(recs) {
		return nil, fmt.Errorf("scoring api: got %d results for %d records", len(out.Results), len(recs))
	}
	return out.Results, nil
}

func decode(resp *http.Response, dst interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// 비 JSON 응답은 상태 코드만 사용
		_ = json.Unmarshal(body, &apiErr.Response)
		return apiErr
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsUnavailable reports whether the remote model is not loaded
func IsUnavailable(err error) bool {
	return errors.Is(err, contracts.ErrModelUnavailable)
}
