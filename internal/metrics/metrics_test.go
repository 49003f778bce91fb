package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObservePrediction("single", contracts.LabelYes)
	m.ObservePrediction("single", contracts.LabelYes)
	m.ObservePrediction("batch", contracts.LabelNo)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("YES", "single")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("NO", "batch")))

	m.ObserveError(fmt.Errorf("wrap: %w", contracts.ErrModelUnavailable))
	m.ObserveError(contracts.ErrMissingAttribute)
	m.ObserveError(errors.New("other"))
	m.ObserveError(nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("model_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("malformed_input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("internal")))

	m.ObserveCache(CacheHit)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("hit")))

	m.SetModelReady(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelReady))
	m.SetModelReady(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelReady))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObservePrediction("single", contracts.LabelNo)
	m.ObserveDuration("single", time.Now())
	m.ObserveBatch(8)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `scorer_predictions_total{label="NO",source="single"} 1`)
	assert.Contains(t, string(body), "scorer_prediction_duration_seconds_bucket")
	assert.Contains(t, string(body), "scorer_batch_size_count 1")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObservePrediction("single", contracts.LabelYes)
	m.ObserveError(errors.New("x"))
	m.ObserveDuration("single", time.Now())
	m.ObserveBatch(1)
	m.ObserveCache(CacheMiss)
	m.SetModelReady(true)
}
