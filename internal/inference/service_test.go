package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/campaign-scorer/internal/artifacts"
	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/decision"
	"github.com/wonny/campaign-scorer/internal/features"
	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/internal/metrics"
	"github.com/wonny/campaign-scorer/internal/preprocess"
	"github.com/wonny/campaign-scorer/internal/scoring"
	"github.com/wonny/campaign-scorer/pkg/config"
	"github.com/wonny/campaign-scorer/pkg/logger"
	"github.com/wonny/campaign-scorer/pkg/redis"
)

func testBundle(t *testing.T, probability float64) *artifacts.Bundle {
	t.Helper()

	ct, err := preprocess.Compile(preprocess.Artifact{
		Version: 1,
		Transformers: []preprocess.TransformerSpec{
			{Name: "num", Kind: preprocess.KindStandard, Columns: []preprocess.ColumnSpec{
				{Name: "age", Mean: 40, Scale: 10},
				{Name: "nr.employed", Mean: 5100, Scale: 70},
				{Name: "age_bin", Mean: 2.5, Scale: 1},
			}},
			{Name: "cat", Kind: preprocess.KindOneHot, HandleUnknown: preprocess.UnknownIgnore, Columns: []preprocess.ColumnSpec{
				{Name: "contact", Categories: []string{"cellular", "telephone"}},
			}},
		},
	})
	require.NoError(t, err)

	model, err := scoring.NewStatic(probability, ct.Width())
	require.NoError(t, err)
	policy, err := decision.NewPolicy(contracts.DefaultThreshold)
	require.NoError(t, err)

	return &artifacts.Bundle{
		Engineer:    features.NewEngineer(),
		Transform:   ct,
		Model:       model,
		Policy:      policy,
		Fingerprint: "abcdef0123456789abcdef0123456789",
		LoadedAt:    time.Now(),
	}
}

func clientRecord() contracts.Record {
	return contracts.Record{
		"age":            35.0,
		"job":            "admin.",
		"marital":        "married",
		"education":      "university.degree",
		"default":        "no",
		"housing":        "yes",
		"loan":           "no",
		"contact":        "cellular",
		"month":          "may",
		"day_of_week":    "mon",
		"campaign":       1.0,
		"emp.var.rate":   -1.8,
		"cons.price.idx": 92.893,
		"cons.conf.idx":  -46.2,
		"euribor3m":      0.5,
		"nr.employed":    5099.1,
	}
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func TestService_Predict(t *testing.T) {
	store := history.NewMemory(10)
	m := metrics.New()
	svc := New(testBundle(t, 0.30), nil, Options{History: store, Metrics: m, Logger: quietLogger()})

	require.True(t, svc.Ready())

	res, err := svc.Predict(context.Background(), clientRecord(), history.SourceSingle)
	require.NoError(t, err)
	assert.Equal(t, contracts.PredictionResult{
		Probability: 0.30, Prediction: 1, Label: contracts.LabelYes, Threshold: 0.24,
	}, res)

	entries, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res, entries[0].Result)
	assert.Equal(t, history.SourceSingle, entries[0].Source)
	assert.Equal(t, "abcdef0123456789abcdef0123456789", entries[0].Fingerprint)

	n, err := testutil.GatherAndCount(m.Registry(), "scorer_predictions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_Degraded(t *testing.T) {
	loadErr := errors.New("open models/lightgbm_model.txt: no such file or directory")
	svc := New(nil, loadErr, Options{Logger: quietLogger()})

	assert.False(t, svc.Ready())

	_, err := svc.Predict(context.Background(), clientRecord(), history.SourceSingle)
	assert.ErrorIs(t, err, contracts.ErrModelUnavailable)
	assert.Equal(t, contracts.KindUnavailable, contracts.KindOf(err))

	_, err = svc.PredictBatch(context.Background(), []contracts.Record{clientRecord()}, history.SourceBatch)
	assert.ErrorIs(t, err, contracts.ErrModelUnavailable)

	_, err = svc.Info()
	assert.ErrorIs(t, err, contracts.ErrModelUnavailable)

	st := svc.Status()
	assert.False(t, st.Ready)
	assert.Contains(t, st.Error, "lightgbm_model.txt")
}

func TestService_NilBundleIsDegraded(t *testing.T) {
	svc := New(nil, nil, Options{})
	assert.False(t, svc.Ready())
}

func TestService_StatusAndInfo(t *testing.T) {
	svc := New(testBundle(t, 0.1), nil, Options{Logger: quietLogger()})

	st := svc.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, "static", st.Algorithm)
	assert.Equal(t, 0.24, st.Threshold)
	assert.Equal(t, "abcdef012345", st.Fingerprint)

	info, err := svc.Info()
	require.NoError(t, err)
	assert.Equal(t, FeatureCounts{
		Input:                   16,
		Engineered:              25,
		TotalAfterEngineering:   41,
		TotalAfterPreprocessing: 5,
	}, info.Features)
}

func TestService_PredictBatch(t *testing.T) {
	store := history.NewMemory(10)
	svc := New(testBundle(t, 0.1), nil, Options{History: store, Workers: 2, Logger: quietLogger()})

	recs := []contracts.Record{clientRecord(), clientRecord(), clientRecord()}
	results, err := svc.PredictBatch(context.Background(), recs, history.SourceBatch)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, 0, res.Prediction)
		assert.Equal(t, contracts.LabelNo, res.Label)
	}

	entries, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// a bad record fails the whole batch and nothing more is stored
	bad := clientRecord()
	bad["nr.employed"] = 0
	_, err = svc.PredictBatch(context.Background(), []contracts.Record{clientRecord(), bad}, history.SourceBatch)
	var re *contracts.RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Index)

	entries, err = svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestService_DisabledCache(t *testing.T) {
	client, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)

	m := metrics.New()
	svc := New(testBundle(t, 0.5), nil, Options{
		Cache:    redis.NewCache(client, "scorer"),
		CacheTTL: time.Minute,
		Metrics:  m,
		Logger:   quietLogger(),
	})

	for i := 0; i < 2; i++ {
		res, err := svc.Predict(context.Background(), clientRecord(), history.SourceSingle)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Prediction)
	}

	// a disabled client always misses
	n, err := testutil.GatherAndCount(m.Registry(), "scorer_cache_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_CacheHitIsRecorded(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := history.NewMemory(10)
	m := metrics.New()
	svc := New(testBundle(t, 0.5), nil, Options{
		Cache:   redis.NewCache(redis.Wrap(rdb), "scorer"),
		History: store,
		Metrics: m,
		Logger:  quietLogger(),
	})

	var first contracts.PredictionResult
	for i := 0; i < 3; i++ {
		res, err := svc.Predict(context.Background(), clientRecord(), history.SourceSingle)
		require.NoError(t, err)
		if i == 0 {
			first = res
		}
		assert.Equal(t, first, res)
	}

	// one miss then two hits, a single cached key
	assert.Len(t, mr.Keys(), 1)
	n, err := testutil.GatherAndCount(m.Registry(), "scorer_cache_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// every served prediction lands in history, cached or not
	entries, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestService_Summary(t *testing.T) {
	store := history.NewMemory(10)
	svc := New(testBundle(t, 0.30), nil, Options{History: store, Logger: quietLogger()})

	_, err := svc.PredictBatch(context.Background(), []contracts.Record{clientRecord(), clientRecord()}, history.SourceBatch)
	require.NoError(t, err)

	sum, err := svc.Summary(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Total)
	assert.Equal(t, history.LabelCounts{Yes: 2}, sum.Predictions)
	assert.Len(t, sum.Recent, 2)

	bare := New(testBundle(t, 0.30), nil, Options{})
	sum, err = bare.Summary(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
	assert.NotNil(t, sum.Recent)
}

func TestService_StatusZeroThreshold(t *testing.T) {
	b := testBundle(t, 0.1)
	policy, err := decision.NewPolicy(0)
	require.NoError(t, err)
	b.Policy = policy

	data, err := json.Marshal(New(b, nil, Options{}).Status())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"threshold":0`)
}

func TestService_Prune(t *testing.T) {
	store := history.NewMemory(10)
	svc := New(testBundle(t, 0.5), nil, Options{History: store, Logger: quietLogger()})

	old := history.NewEntry(history.SourceSingle, "fp", clientRecord(), contracts.PredictionResult{})
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Save(context.Background(), old))

	_, err := svc.Predict(context.Background(), clientRecord(), history.SourceSingle)
	require.NoError(t, err)

	n, err := svc.Prune(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// no store configured
	bare := New(testBundle(t, 0.5), nil, Options{})
	n, err = bare.Prune(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
	entries, err := bare.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
