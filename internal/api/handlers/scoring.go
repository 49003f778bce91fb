package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/internal/inference"
	"github.com/wonny/campaign-scorer/internal/scheduler"
	"github.com/wonny/campaign-scorer/internal/validation"
	"github.com/wonny/campaign-scorer/pkg/logger"
)

// Request limits
const (
	MaxBatchSize   = 1000
	maxSingleBytes = 1 << 20
	maxBatchBytes  = 16 << 20
)

// PredictRequest is the body of POST /predict
type PredictRequest struct {
	Client contracts.Record `json:"client"`
}

// BatchRequest is the body of POST /predict/batch
type BatchRequest struct {
	Clients []contracts.Record `json:"clients"`
}

// BatchResponse is returned by POST /predict/batch
type BatchResponse struct {
	Results []contracts.PredictionResult `json:"results"`
}

// DependencyCheck pings an optional backing service for /health
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

const dependencyTimeout = 2 * time.Second

// JobReporter exposes scheduled job state for /health
type JobReporter interface {
	GetAllJobs() []string
	GetJobStats() map[string]scheduler.JobStats
	GetJobHistory(jobName string, n int) ([]scheduler.JobResult, error)
}

// JobStatus is one scheduled job as reported by /health
type JobStatus struct {
	Schedule    string     `json:"schedule"`
	TotalRuns   int        `json:"total_runs"`
	SuccessRate float64    `json:"success_rate"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// ScoringHandler serves the prediction endpoints
// ⭐ SSOT: 예측 API 핸들러는 여기서만
type ScoringHandler struct {
	service *inference.Service
	version string
	checks  []DependencyCheck
	jobs    JobReporter
	logger  *logger.Logger
}

// NewScoringHandler creates a new scoring handler; checks and jobs may be nil
func NewScoringHandler(service *inference.Service, version string, checks []DependencyCheck, jobs JobReporter, log *logger.Logger) *ScoringHandler {
	return &ScoringHandler{
		service: service,
		version: version,
		checks:  checks,
		jobs:    jobs,
		logger:  log.Component("api.scoring"),
	}
}

// Root handles GET /
func (h *ScoringHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Bank Marketing Prediction API",
		"version":      h.version,
		"status":       "online",
		"model_loaded": h.service.Ready(),
	})
}

// Health handles GET /health
func (h *ScoringHandler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.service.Status()
	resp := map[string]interface{}{
		"status":       "healthy",
		"model_loaded": st.Ready,
	}
	if st.Ready {
		resp["algorithm"] = st.Algorithm
		resp["threshold"] = st.Threshold
		resp["fingerprint"] = st.Fingerprint
		resp["loaded_at"] = st.LoadedAt
	} else {
		resp["status"] = "degraded"
		resp["error"] = st.Error
	}
	// 의존 서비스 상태는 보고만 함 (예측 가능 여부는 모델로만 판단)
	if len(h.checks) > 0 {
		resp["dependencies"] = h.dependencies(r.Context())
	}
	if h.jobs != nil {
		resp["jobs"] = h.jobStatuses()
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *ScoringHandler) dependencies(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()

	out := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			out[c.Name] = err.Error()
			continue
		}
		out[c.Name] = "ok"
	}
	return out
}

func (h *ScoringHandler) jobStatuses() map[string]JobStatus {
	stats := h.jobs.GetJobStats()

	out := make(map[string]JobStatus, len(stats))
	for _, name := range h.jobs.GetAllJobs() {
		st := stats[name]
		js := JobStatus{
			Schedule:    st.Schedule,
			TotalRuns:   st.TotalRuns,
			SuccessRate: st.SuccessRate,
			NextRun:     st.NextRun,
		}
		if last, err := h.jobs.GetJobHistory(name, 1); err == nil && len(last) == 1 {
			js.LastRun = &last[0].StartTime
			js.LastError = last[0].Error
		}
		out[name] = js
	}
	return out
}

// ModelInfo handles GET /model/info
func (h *ScoringHandler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info()
	if err != nil {
		respondScoringError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// Predict handles POST /predict
func (h *ScoringHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeJSON(w, r, maxSingleBytes, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Client == nil {
		respondError(w, http.StatusBadRequest, "client is required")
		return
	}

	if err := validation.Validate(req.Client); err != nil {
		respondScoringError(w, err)
		return
	}

	res, err := h.service.Predict(r.Context(), req.Client, history.SourceSingle)
	if err != nil {
		h.logError(r, err, "Prediction failed")
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// PredictBatch handles POST /predict/batch
func (h *ScoringHandler) PredictBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, maxBatchBytes, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Clients) > MaxBatchSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("batch exceeds %d records", MaxBatchSize))
		return
	}

	if err := validation.ValidateBatch(req.Clients); err != nil {
		respondScoringError(w, err)
		return
	}

	results, err := h.service.PredictBatch(r.Context(), req.Clients, history.SourceBatch)
	if err != nil {
		h.logError(r, err, "Batch prediction failed")
		respondScoringError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, BatchResponse{Results: results})
}

func (h *ScoringHandler) logError(r *http.Request, err error, msg string) {
	entry := h.logger.WithError(err).WithFields(map[string]interface{}{
		"path": r.URL.Path,
		"kind": contracts.KindOf(err),
	})
	if StatusFor(err) >= http.StatusInternalServerError {
		entry.Error(msg)
		return
	}
	entry.Debug(msg)
}

// decodeJSON reads a size-limited JSON body, rejecting trailing data
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request body: unexpected data after JSON object")
	}
	return nil
}
