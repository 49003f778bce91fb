package contracts

import (
	"errors"
	"fmt"
)

// Error taxonomy
// ⭐ SSOT: 모든 파이프라인 에러는 아래 sentinel 중 하나를 wrap 해야 함
var (
	// ErrModelUnavailable means artifacts failed to load; every request is rejected
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrMalformedInput covers missing attributes, wrong types and out-of-domain values
	ErrMalformedInput = errors.New("malformed input")

	// ErrTransform is raised by the preprocessing transform (unseen category, missing column)
	ErrTransform = errors.New("transform failed")

	// ErrScoring is raised by the classifier (dimension mismatch, invalid output)
	ErrScoring = errors.New("scoring failed")
)

// Malformed input details
var (
	ErrMissingAttribute = fmt.Errorf("%w: missing attribute", ErrMalformedInput)
	ErrInvalidType      = fmt.Errorf("%w: invalid type", ErrMalformedInput)
)

// Kind classifies an error for transport layers
type Kind string

const (
	KindNone        Kind = ""
	KindUnavailable Kind = "model_unavailable"
	KindInput       Kind = "malformed_input"
	KindTransform   Kind = "transform"
	KindScoring     Kind = "scoring"
	KindInternal    Kind = "internal"
)

// KindOf maps an error onto the taxonomy
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrModelUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrMalformedInput):
		return KindInput
	case errors.Is(err, ErrTransform):
		return KindTransform
	case errors.Is(err, ErrScoring):
		return KindScoring
	default:
		return KindInternal
	}
}

// StageError records which pipeline stage failed
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage.ShortName(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RecordError identifies the offending record of a batch
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
