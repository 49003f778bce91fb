package scoring

import (
	"fmt"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// Scoring errors
var (
	ErrDimension     = fmt.Errorf("%w: feature dimension mismatch", contracts.ErrScoring)
	ErrInvalidOutput = fmt.Errorf("%w: probability outside [0, 1]", contracts.ErrScoring)
)

// Model is a loaded classifier with a fixed input width
type Model interface {
	contracts.Scorer
	NFeatures() int
	Algorithm() string
}

// checkProbability rejects NaN and values outside [0, 1]
func checkProbability(p float64) (float64, error) {
	if !(p >= 0 && p <= 1) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidOutput, p)
	}
	return p, nil
}
