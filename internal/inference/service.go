package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/campaign-scorer/internal/artifacts"
	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/features"
	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/internal/metrics"
	"github.com/wonny/campaign-scorer/internal/pipeline"
	"github.com/wonny/campaign-scorer/pkg/logger"
	"github.com/wonny/campaign-scorer/pkg/redis"
)

// Options wires optional collaborators into the service
type Options struct {
	Workers  int
	Cache    *redis.Cache // nil disables caching
	CacheTTL time.Duration
	History  history.Store // nil disables history
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// Service is the process-wide scoring entry point.
// It is either ready (artifacts loaded) or degraded (every call fails with ErrModelUnavailable).
// ⭐ SSOT: 모델 상태(ready/degraded)는 여기서만 판단
type Service struct {
	bundle   *artifacts.Bundle
	pipeline *pipeline.Pipeline
	loadErr  error

	cache    *redis.Cache
	cacheTTL time.Duration
	history  history.Store
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// Status describes the loaded model for health endpoints
type Status struct {
	Ready       bool      `json:"model_loaded"`
	Error       string    `json:"error,omitempty"`
	Algorithm   string    `json:"algorithm,omitempty"`
	Threshold   float64   `json:"threshold"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	LoadedAt    time.Time `json:"loaded_at,omitzero"`
}

// FeatureCounts describes the width of the record at each pipeline step
type FeatureCounts struct {
	Input                   int `json:"input"`
	Engineered              int `json:"engineered"`
	TotalAfterEngineering   int `json:"total_after_engineering"`
	TotalAfterPreprocessing int `json:"total_after_preprocessing"`
}

// ModelInfo is returned by /model/info
type ModelInfo struct {
	Algorithm   string        `json:"algorithm"`
	Threshold   float64       `json:"threshold"`
	Fingerprint string        `json:"fingerprint"`
	Features    FeatureCounts `json:"features"`
}

// New creates the service. Pass the result of artifacts.Load: a nil bundle
// (or a non-nil loadErr) yields a degraded service.
func New(bundle *artifacts.Bundle, loadErr error, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Service{
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		history:  opts.History,
		metrics:  opts.Metrics,
		logger:   log.Component("inference"),
	}

	if s.cacheTTL <= 0 {
		s.cacheTTL = redis.TTLMedium
	}

	if loadErr == nil && bundle == nil {
		loadErr = fmt.Errorf("no artifacts")
	}
	if loadErr != nil {
		s.loadErr = loadErr
		s.logger.WithError(loadErr).Error("Scoring artifacts unavailable, serving degraded")
		s.metrics.SetModelReady(false)
		return s
	}

	s.bundle = bundle
	s.pipeline = pipeline.FromBundle(bundle, opts.Workers)
	s.metrics.SetModelReady(true)

	s.logger.WithFields(map[string]interface{}{
		"algorithm":   bundle.Model.Algorithm(),
		"features":    bundle.Transform.Width(),
		"threshold":   bundle.Policy.Threshold(),
		"fingerprint": bundle.ShortFingerprint(),
		"workers":     s.pipeline.Workers(),
	}).Info("Scoring artifacts loaded")
	return s
}

// Ready reports whether the model is loaded
func (s *Service) Ready() bool {
	return s.pipeline != nil
}

// Status returns the readiness snapshot
func (s *Service) Status() Status {
	if !s.Ready() {
		return Status{Ready: false, Error: s.loadErr.Error()}
	}
	return Status{
		Ready:       true,
		Algorithm:   s.bundle.Model.Algorithm(),
		Threshold:   s.bundle.Policy.Threshold(),
		Fingerprint: s.bundle.ShortFingerprint(),
		LoadedAt:    s.bundle.LoadedAt,
	}
}

// Info describes the loaded model
func (s *Service) Info() (ModelInfo, error) {
	if !s.Ready() {
		return ModelInfo{}, s.unavailable()
	}
	input := len(features.RawAttributes)
	return ModelInfo{
		Algorithm:   s.bundle.Model.Algorithm(),
		Threshold:   s.bundle.Policy.Threshold(),
		Fingerprint: s.bundle.Fingerprint,
		Features: FeatureCounts{
			Input:                   input,
			Engineered:              features.DerivedCount,
			TotalAfterEngineering:   input + features.DerivedCount,
			TotalAfterPreprocessing: s.bundle.Transform.Width(),
		},
	}, nil
}

// Predict scores one record
func (s *Service) Predict(ctx context.Context, rec contracts.Record, source string) (contracts.PredictionResult, error) {
	start := time.Now()
	defer s.metrics.ObserveDuration(source, start)

	if !s.Ready() {
		err := s.unavailable()
		s.metrics.ObserveError(err)
		return contracts.PredictionResult{}, err
	}

	key, cacheable := s.cacheKey(rec)
	if cacheable {
		var cached contracts.PredictionResult
		found, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			s.metrics.ObserveCache(metrics.CacheError)
			s.logger.WithError(err).Warn("Prediction cache read failed")
		case found:
			s.metrics.ObserveCache(metrics.CacheHit)
			s.metrics.ObservePrediction(source, cached.Label)
			s.record(ctx, source, []contracts.Record{rec}, []contracts.PredictionResult{cached})
			return cached, nil
		default:
			s.metrics.ObserveCache(metrics.CacheMiss)
		}
	}

	res, err := s.pipeline.PredictOne(ctx, rec)
	if err != nil {
		s.metrics.ObserveError(err)
		return contracts.PredictionResult{}, err
	}
	s.metrics.ObservePrediction(source, res.Label)

	if cacheable {
		if err := s.cache.Set(ctx, key, res, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Prediction cache write failed")
		}
	}
	s.record(ctx, source, []contracts.Record{rec}, []contracts.PredictionResult{res})

	return res, nil
}

// PredictBatch scores records in order; the batch fails as a whole on the first bad record
func (s *Service) PredictBatch(ctx context.Context, recs []contracts.Record, source string) ([]contracts.PredictionResult, error) {
	start := time.Now()
	defer s.metrics.ObserveDuration(source, start)

	if !s.Ready() {
		err := s.unavailable()
		s.metrics.ObserveError(err)
		return nil, err
	}
	s.metrics.ObserveBatch(len(recs))

	results, err := s.pipeline.PredictMany(ctx, recs)
	if err != nil {
		s.metrics.ObserveError(err)
		return nil, err
	}
	for _, res := range results {
		s.metrics.ObservePrediction(source, res.Label)
	}

	s.record(ctx, source, recs, results)
	return results, nil
}

// Recent returns the latest persisted predictions
func (s *Service) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return []history.Entry{}, nil
	}
	return s.history.Recent(ctx, limit)
}

// Summary aggregates persisted predictions with the latest recent entries
func (s *Service) Summary(ctx context.Context, recent int) (history.Summary, error) {
	if s.history == nil {
		return history.Summary{Recent: []history.Entry{}}, nil
	}
	return s.history.Summary(ctx, recent)
}

// Prune deletes history older than retention
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if s.history == nil {
		return 0, nil
	}
	return s.history.DeleteOlderThan(ctx, time.Now().Add(-retention))
}

// record persists results; history failures never fail the request
func (s *Service) record(ctx context.Context, source string, recs []contracts.Record, results []contracts.PredictionResult) {
	if s.history == nil {
		return
	}

	entries := make([]history.Entry, len(results))
	for i, res := range results {
		entries[i] = history.NewEntry(source, s.bundle.Fingerprint, recs[i], res)
	}
	if err := s.history.Save(ctx, entries...); err != nil {
		s.logger.WithError(err).WithField("records", len(entries)).Warn("Failed to save prediction history")
	}
}

func (s *Service) cacheKey(rec contracts.Record) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	canonical, err := rec.Canonical()
	if err != nil {
		return "", false
	}
	return redis.PredictionKey(s.bundle.Fingerprint, canonical), true
}

func (s *Service) unavailable() error {
	return fmt.Errorf("%w: %v", contracts.ErrModelUnavailable, s.loadErr)
}
