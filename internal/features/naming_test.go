package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

func TestToUnderscore(t *testing.T) {
	rec := contracts.Record{
		"age":            35.0,
		"emp.var.rate":   -1.8,
		"cons.price.idx": 92.893,
		"cons.conf.idx":  -46.2,
		"nr.employed":    5099.1,
		"euribor3m":      0.5,
	}

	out, err := ToUnderscore(rec)
	require.NoError(t, err)

	assert.Equal(t, -1.8, out["emp_var_rate"])
	assert.Equal(t, 92.893, out["cons_price_idx"])
	assert.Equal(t, -46.2, out["cons_conf_idx"])
	assert.Equal(t, 5099.1, out["nr_employed"])
	assert.NotContains(t, out, "emp.var.rate")

	// 테이블 밖의 컬럼은 그대로
	assert.Equal(t, 0.5, out["euribor3m"])
	assert.Equal(t, 35.0, out["age"])

	// 입력은 변경되지 않음
	assert.Contains(t, rec, "emp.var.rate")
	assert.NotContains(t, rec, "emp_var_rate")
}

func TestNamingRoundTrip(t *testing.T) {
	rec := contracts.Record{
		"emp.var.rate":   1.1,
		"cons.price.idx": 93.994,
		"cons.conf.idx":  -36.4,
		"nr.employed":    5191.0,
		"job":            "admin.",
	}

	under, err := ToUnderscore(rec)
	require.NoError(t, err)
	back, err := ToDotted(under)
	require.NoError(t, err)

	assert.Equal(t, rec, back)
}

func TestRename_ConflictingAlias(t *testing.T) {
	tests := []struct {
		name    string
		rec     contracts.Record
		wantErr bool
	}{
		{
			name:    "same value in both forms",
			rec:     contracts.Record{"nr.employed": 5191.0, "nr_employed": 5191},
			wantErr: false,
		},
		{
			name:    "different values",
			rec:     contracts.Record{"nr.employed": 5191.0, "nr_employed": 5099.1},
			wantErr: true,
		},
		{
			name:    "string vs number",
			rec:     contracts.Record{"emp.var.rate": "abc", "emp_var_rate": 1.1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ToUnderscore(tt.rec)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConflictingAlias)
				assert.ErrorIs(t, err, contracts.ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Len(t, out, 1)
		})
	}
}

func TestEconomicAliases(t *testing.T) {
	require.Len(t, EconomicAliases, 4)

	seen := map[string]bool{}
	for _, a := range EconomicAliases {
		assert.NotEqual(t, a.Dotted, a.Underscored)
		assert.False(t, seen[a.Dotted], "duplicate %s", a.Dotted)
		seen[a.Dotted] = true
	}
}
