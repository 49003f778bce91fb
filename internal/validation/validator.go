package validation

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/features"
)

// Categories lists the accepted values of each categorical attribute
var Categories = map[string][]string{
	"job": {
		"admin.", "blue-collar", "entrepreneur", "housemaid", "management",
		"retired", "self-employed", "services", "student", "technician",
		"unemployed", "unknown",
	},
	"marital": {"divorced", "married", "single", "unknown"},
	"education": {
		"basic.4y", "basic.6y", "basic.9y", "high.school",
		"illiterate", "professional.course", "university.degree", "unknown",
	},
	"default":     {"no", "yes", "unknown"},
	"housing":     {"no", "yes", "unknown"},
	"loan":        {"no", "yes", "unknown"},
	"contact":     {"cellular", "telephone"},
	"month":       {"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"},
	"day_of_week": {"mon", "tue", "wed", "thu", "fri"},
}

// categoricalOrder fixes the reporting order of categorical checks
var categoricalOrder = []string{
	"job", "marital", "education", "default", "housing", "loan", "contact", "month", "day_of_week",
}

// Age limits accepted from API clients
const (
	MinAge = 18
	MaxAge = 100
)

// FieldError describes one rejected attribute
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error collects every problem found in one record
type Error struct {
	Fields        []FieldError `json:"details,omitempty"`
	MissingFields []string     `json:"missing_fields,omitempty"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields)+1)
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.MissingFields, ", "))
	}
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap classifies validation failures as malformed input
func (e *Error) Unwrap() error {
	return contracts.ErrMalformedInput
}

// Validate checks an API record before scoring.
// Economic indicators are accepted in either dotted or underscored form.
// ⭐ SSOT: API 입력 검증 규칙은 여기서만
func Validate(rec contracts.Record) error {
	e := &Error{}

	checkInt(e, rec, "age", MinAge, MaxAge, fmt.Sprintf("Age must be between %d and %d", MinAge, MaxAge))

	for _, field := range categoricalOrder {
		checkCategory(e, rec, field)
	}

	checkInt(e, rec, "campaign", 1, math.MaxInt32, "Campaign must be >= 1")

	for _, alias := range features.EconomicAliases {
		if !present(rec, alias.Dotted) && !present(rec, alias.Underscored) {
			e.MissingFields = append(e.MissingFields, alias.Dotted)
		}
	}
	if !present(rec, "euribor3m") {
		e.MissingFields = append(e.MissingFields, "euribor3m")
	}

	if len(e.Fields) == 0 && len(e.MissingFields) == 0 {
		return nil
	}
	return e
}

// ValidateBatch validates every record; the first failure is returned as a *contracts.RecordError
func ValidateBatch(recs []contracts.Record) error {
	if len(recs) == 0 {
		return fmt.Errorf("%w: batch must contain at least one record", contracts.ErrMalformedInput)
	}
	for i, rec := range recs {
		if err := Validate(rec); err != nil {
			return &contracts.RecordError{Index: i, Err: err}
		}
	}
	return nil
}

func present(rec contracts.Record, key string) bool {
	v, ok := rec[key]
	return ok && v != nil
}

func checkInt(e *Error, rec contracts.Record, field string, lo, hi float64, msg string) {
	v, ok := rec[field]
	if !ok || v == nil {
		e.MissingFields = append(e.MissingFields, field)
		return
	}
	f, ok := contracts.ToFloat(v)
	if !ok || f != math.Trunc(f) || f < lo || f > hi {
		e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
	}
}

func checkCategory(e *Error, rec contracts.Record, field string) {
	v, ok := rec[field]
	if !ok || v == nil {
		e.MissingFields = append(e.MissingFields, field)
		return
	}
	s, ok := v.(string)
	if !ok || !slices.Contains(Categories[field], s) {
		e.Fields = append(e.Fields, FieldError{Field: field, Message: "Invalid " + categoryLabel(field)})
	}
}

func categoryLabel(field string) string {
	switch field {
	case "job":
		return "job category"
	case "marital":
		return "marital status"
	case "education":
		return "education level"
	case "default", "housing", "loan":
		return field + " status"
	case "contact":
		return "contact type"
	case "day_of_week":
		return "day of week"
	default:
		return field
	}
}
