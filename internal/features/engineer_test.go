package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

func sampleRecord() contracts.Record {
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

func TestEngineer_Scenario(t *testing.T) {
	e := NewEngineer()

	out, err := e.Engineer(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, 1.0, out["single_call"])
	assert.Equal(t, 0.0, out["high_campaign"])
	assert.Equal(t, 1.0, out["euribor_low"])
	assert.Equal(t, 0.0, out["euribor_high"])
	assert.Equal(t, 1.0, out["confidence_low"])
	assert.Equal(t, 0.0, out["confidence_high"])
	assert.Equal(t, 2.0, out["age_bin"])
	assert.Equal(t, 0.0, out["is_senior"])
	assert.Equal(t, 0.0, out["is_young"])
	assert.Equal(t, 1225.0, out["age_squared"])

	assert.InDelta(t, -1.8, out["campaign_x_empvar"], 1e-12)
	assert.InDelta(t, 0.5*-46.2, out["euribor_x_confidence"], 1e-12)
	assert.InDelta(t, 0.5*92.893, out["euribor_x_price"], 1e-12)
	assert.InDelta(t, -1.8*5099.1, out["empvar_x_employed"], 1e-9)
	assert.InDelta(t, 35.0, out["age_x_campaign"], 1e-12)
	assert.InDelta(t, 35*-1.8, out["age_x_empvar"], 1e-12)
	assert.InDelta(t, -46.2, out["campaign_x_confidence"], 1e-12)
	assert.InDelta(t, 0.5*5099.1, out["euribor_x_employed"], 1e-9)
	assert.InDelta(t, 92.893*-46.2, out["price_x_confidence"], 1e-9)
	assert.InDelta(t, -1.8*-46.2, out["empvar_x_confidence"], 1e-12)

	assert.InDelta(t, 0.5/47.2, out["economic_ratio"], 1e-12)
	assert.InDelta(t, -1.8/5.0991, out["employment_ratio"], 1e-12)
	assert.InDelta(t, 92.893/47.2, out["price_per_confidence"], 1e-12)
	assert.InDelta(t, 1.0/36, out["campaign_intensity"], 1e-12)
	assert.InDelta(t, 0.5/5.0991, out["euribor_per_employed"], 1e-12)
}

func TestEngineer_AttributeCount(t *testing.T) {
	rec := sampleRecord()

	out, err := NewEngineer().Engineer(rec)
	require.NoError(t, err)

	assert.Len(t, out, len(rec)+DerivedCount)
	assert.Len(t, DerivedAttributes(), DerivedCount)
	for _, name := range DerivedAttributes() {
		assert.Contains(t, out, name)
	}

	// the sample covers the full client schema
	assert.Len(t, rec, len(RawAttributes))
	for _, name := range RawAttributes {
		assert.Contains(t, out, name)
	}
}

func TestEngineer_RestoresDottedNames(t *testing.T) {
	tests := []struct {
		name string
		rec  contracts.Record
	}{
		{"dotted input", sampleRecord()},
		{"underscored input", func() contracts.Record {
			r, _ := ToUnderscore(sampleRecord())
			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewEngineer().Engineer(tt.rec)
			require.NoError(t, err)

			for _, a := range EconomicAliases {
				assert.Contains(t, out, a.Dotted)
				assert.NotContains(t, out, a.Underscored)
			}
			assert.Equal(t, -1.8, out["emp.var.rate"])
		})
	}
}

func TestEngineer_DoesNotMutateInput(t *testing.T) {
	rec := sampleRecord()
	before := rec.Clone()

	_, err := NewEngineer().Engineer(rec)
	require.NoError(t, err)

	assert.Equal(t, before, rec)
}

func TestEngineer_Deterministic(t *testing.T) {
	e := NewEngineer()

	first, err := e.Engineer(sampleRecord())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := e.Engineer(sampleRecord())
		require.NoError(t, err)
		for _, name := range DerivedAttributes() {
			a := first[name].(float64)
			b := again[name].(float64)
			assert.Equal(t, math.Float64bits(a), math.Float64bits(b), name)
		}
	}
}

func TestEngineer_AgeFlags(t *testing.T) {
	e := NewEngineer()

	for age := 1; age <= 100; age++ {
		rec := sampleRecord()
		rec["age"] = float64(age)

		out, err := e.Engineer(rec)
		require.NoError(t, err, "age=%d", age)

		switch {
		case age <= 30:
			assert.Equal(t, 1.0, out["is_young"], "age=%d", age)
			assert.Equal(t, 0.0, out["is_senior"], "age=%d", age)
		case age < 60:
			assert.Equal(t, 0.0, out["is_young"], "age=%d", age)
			assert.Equal(t, 0.0, out["is_senior"], "age=%d", age)
		default:
			assert.Equal(t, 0.0, out["is_young"], "age=%d", age)
			assert.Equal(t, 1.0, out["is_senior"], "age=%d", age)
		}
	}
}

func TestAgeBin(t *testing.T) {
	tests := []struct {
		age     float64
		want    int
		wantErr bool
	}{
		{0.5, 1, false},
		{18, 1, false},
		{30, 1, false},
		{30.01, 2, false},
		{40, 2, false},
		{41, 3, false},
		{50, 3, false},
		{55, 4, false},
		{60, 4, false},
		{61, 5, false},
		{100, 5, false},
		{0, 0, true},
		{-3, 0, true},
		{100.5, 0, true},
		{math.NaN(), 0, true},
	}

	for _, tt := range tests {
		got, err := AgeBin(tt.age)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrAgeOutOfRange, "age=%v", tt.age)
			continue
		}
		require.NoError(t, err, "age=%v", tt.age)
		assert.Equal(t, tt.want, got, "age=%v", tt.age)
	}
}

func TestEngineer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(contracts.Record)
		wantErr error
	}{
		{
			name:    "zero employment",
			mutate:  func(r contracts.Record) { r["nr.employed"] = 0.0 },
			wantErr: ErrZeroEmployment,
		},
		{
			name:    "age out of range",
			mutate:  func(r contracts.Record) { r["age"] = 120.0 },
			wantErr: ErrAgeOutOfRange,
		},
		{
			name:    "missing campaign",
			mutate:  func(r contracts.Record) { delete(r, "campaign") },
			wantErr: contracts.ErrMissingAttribute,
		},
		{
			name:    "missing economic indicator",
			mutate:  func(r contracts.Record) { delete(r, "cons.conf.idx") },
			wantErr: contracts.ErrMissingAttribute,
		},
		{
			name:    "non numeric age",
			mutate:  func(r contracts.Record) { r["age"] = "thirty" },
			wantErr: contracts.ErrInvalidType,
		},
		{
			name:    "infinite euribor",
			mutate:  func(r contracts.Record) { r["euribor3m"] = math.Inf(1) },
			wantErr: ErrNonFinite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			tt.mutate(rec)

			out, err := NewEngineer().Engineer(rec)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, contracts.KindInput, contracts.KindOf(err))
		})
	}
}

func TestEngineer_NumericStrings(t *testing.T) {
	rec := sampleRecord()
	rec["age"] = "35"
	rec["campaign"] = 1

	out, err := NewEngineer().Engineer(rec)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out["age_bin"])
	assert.Equal(t, 1.0, out["single_call"])
}
