package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Float(t *testing.T) {
	rec := Record{
		"f64":     1.5,
		"int":     3,
		"number":  json.Number("2.25"),
		"string":  " 92.893 ",
		"bad":     "yes",
		"boolean": true,
		"null":    nil,
	}

	tests := []struct {
		key     string
		want    float64
		wantErr error
	}{
		{"f64", 1.5, nil},
		{"int", 3, nil},
		{"number", 2.25, nil},
		{"string", 92.893, nil},
		{"bad", 0, ErrInvalidType},
		{"boolean", 0, ErrInvalidType},
		{"null", 0, ErrMissingAttribute},
		{"absent", 0, ErrMissingAttribute},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := rec.Float(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrMalformedInput)
				assert.Contains(t, err.Error(), tt.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	rec := Record{"age": 35.0}
	c := rec.Clone()
	c["age"] = 40.0

	assert.Equal(t, 35.0, rec["age"])
}

func TestRecord_Canonical(t *testing.T) {
	a := Record{"b": 1.0, "a": "x"}
	b := Record{"a": "x", "b": 1.0}

	ca, err := a.Canonical()
	require.NoError(t, err)
	cb, err := b.Canonical()
	require.NoError(t, err)

	assert.Equal(t, ca, cb)
	assert.Equal(t, `{"a":"x","b":1}`, string(ca))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"unavailable", fmt.Errorf("load: %w", ErrModelUnavailable), KindUnavailable},
		{"input", ErrMissingAttribute, KindInput},
		{"transform", &StageError{Stage: StagePreprocess, Err: ErrTransform}, KindTransform},
		{"scoring", &RecordError{Index: 2, Err: ErrScoring}, KindScoring},
		{"other", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRecordError(t *testing.T) {
	err := &RecordError{Index: 3, Err: &StageError{Stage: StageFeatures, Err: ErrMissingAttribute}}

	assert.Equal(t, "record 3: P1: malformed input: missing attribute", err.Error())

	var recErr *RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, 3, recErr.Index)
}

func TestPredictionResult_JSON(t *testing.T) {
	res := PredictionResult{Probability: 0.3, Prediction: 1, Label: LabelYes, Threshold: 0.24}

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"probability":0.3,"prediction":1,"label":"YES","threshold":0.24}`, string(data))
	assert.True(t, res.IsPositive())
}

func TestStage_ShortName(t *testing.T) {
	stages := AllStages()
	require.Len(t, stages, 4)
	assert.Equal(t, "P1", stages[0].ShortName())
	assert.Equal(t, "P4", stages[3].ShortName())
	assert.Equal(t, "UNKNOWN", Stage("x").ShortName())
}
