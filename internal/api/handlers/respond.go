package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/validation"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Success       bool                    `json:"success"`
	Error         string                  `json:"error"`
	Kind          contracts.Kind          `json:"kind,omitempty"`
	Index         *int                    `json:"index,omitempty"`
	Details       []validation.FieldError `json:"details,omitempty"`
	MissingFields []string                `json:"missing_fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// StatusFor maps the error taxonomy onto HTTP status codes
func StatusFor(err error) int {
	switch contracts.KindOf(err) {
	case contracts.KindInput:
		return http.StatusBadRequest
	case contracts.KindTransform:
		return http.StatusUnprocessableEntity
	case contracts.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the response body for a scoring error
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error: err.Error(),
		Kind:  contracts.KindOf(err),
	}

	var re *contracts.RecordError
	if errors.As(err, &re) {
		idx := re.Index
		resp.Index = &idx
	}

	var ve *validation.Error
	if errors.As(err, &ve) {
		resp.Error = "Validation failed"
		resp.Details = ve.Fields
		resp.MissingFields = ve.MissingFields
	}

	// 내부 에러 메시지는 노출하지 않음
	if resp.Kind == contracts.KindInternal {
		resp.Error = "Internal server error"
	}
	return resp
}

func respondScoringError(w http.ResponseWriter, err error) {
	respondJSON(w, StatusFor(err), NewErrorResponse(err))
}
