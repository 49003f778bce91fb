package features

import (
	"fmt"
	"reflect"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// ErrConflictingAlias means a record carries both spellings of an indicator with different values
var ErrConflictingAlias = fmt.Errorf("%w: conflicting attribute aliases", contracts.ErrMalformedInput)

// Alias pairs the two spellings of one economic indicator
type Alias struct {
	Dotted      string
	Underscored string
}

// EconomicAliases is the naming table between the client schema (either form)
// and the preprocessor schema (dotted form).
// ⭐ SSOT: 컬럼명 변환은 이 테이블로만 수행 (문자열 치환 금지)
var EconomicAliases = []Alias{
	{Dotted: "emp.var.rate", Underscored: "emp_var_rate"},
	{Dotted: "cons.price.idx", Underscored: "cons_price_idx"},
	{Dotted: "cons.conf.idx", Underscored: "cons_conf_idx"},
	{Dotted: "nr.employed", Underscored: "nr_employed"},
}

// ToUnderscore returns a copy of rec with the four indicators under their underscored names
func ToUnderscore(rec contracts.Record) (contracts.Record, error) {
	return rename(rec, func(a Alias) (string, string) { return a.Dotted, a.Underscored })
}

// ToDotted returns a copy of rec with the four indicators under their dotted names
func ToDotted(rec contracts.Record) (contracts.Record, error) {
	return rename(rec, func(a Alias) (string, string) { return a.Underscored, a.Dotted })
}

func rename(rec contracts.Record, dir func(Alias) (from, to string)) (contracts.Record, error) {
	out := rec.Clone()
	for _, alias := range EconomicAliases {
		from, to := dir(alias)
		v, ok := out[from]
		if !ok {
			continue
		}
		if existing, dup := out[to]; dup && !sameValue(existing, v) {
			return nil, fmt.Errorf("%w: %s=%v vs %s=%v", ErrConflictingAlias, from, v, to, existing)
		}
		delete(out, from)
		out[to] = v
	}
	return out, nil
}

// sameValue compares numerically when both sides are numbers, so 1 and 1.0 agree
func sameValue(a, b any) bool {
	fa, okA := contracts.ToFloat(a)
	fb, okB := contracts.ToFloat(b)
	if okA && okB {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}
