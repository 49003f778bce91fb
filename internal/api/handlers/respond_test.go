package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/validation"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed", fmt.Errorf("%w: age", contracts.ErrMalformedInput), http.StatusBadRequest},
		{"transform", fmt.Errorf("%w: unknown category", contracts.ErrTransform), http.StatusUnprocessableEntity},
		{"scoring", fmt.Errorf("%w: width", contracts.ErrScoring), http.StatusInternalServerError},
		{"unavailable", contracts.ErrModelUnavailable, http.StatusServiceUnavailable},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
		{"batch transform", &contracts.RecordError{Index: 2, Err: contracts.ErrTransform}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	t.Run("validation in batch", func(t *testing.T) {
		err := &contracts.RecordError{Index: 3, Err: &validation.Error{
			Fields:        []validation.FieldError{{Field: "age", Message: "Age must be between 18 and 100"}},
			MissingFields: []string{"euribor3m"},
		}}

		resp := NewErrorResponse(err)
		assert.Equal(t, "Validation failed", resp.Error)
		assert.Equal(t, contracts.KindInput, resp.Kind)
		require.NotNil(t, resp.Index)
		assert.Equal(t, 3, *resp.Index)
		assert.Equal(t, []string{"euribor3m"}, resp.MissingFields)
		assert.Len(t, resp.Details, 1)
	})

	t.Run("internal hides message", func(t *testing.T) {
		resp := NewErrorResponse(errors.New("dial tcp 10.0.0.5:5432: refused"))
		assert.Equal(t, "Internal server error", resp.Error)
		assert.Equal(t, contracts.KindInternal, resp.Kind)
		assert.Nil(t, resp.Index)
	})
}
