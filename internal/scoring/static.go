package scoring

import (
	"fmt"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// Static returns a fixed probability for every vector of the right width.
// Used for smoke runs without a trained model and in tests.
type Static struct {
	Probability float64
	Width       int
}

// NewStatic creates a static scorer; width 0 accepts any vector length
func NewStatic(probability float64, width int) (*Static, error) {
	if _, err := checkProbability(probability); err != nil {
		return nil, err
	}
	return &Static{Probability: probability, Width: width}, nil
}

// Score returns the configured probability
func (s *Static) Score(vec contracts.FeatureVector) (float64, error) {
	if s.Width > 0 && len(vec) != s.Width {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", ErrDimension, s.Width, len(vec))
	}
	return s.Probability, nil
}

// NFeatures returns the configured width
func (s *Static) NFeatures() int {
	return s.Width
}

// Algorithm describes the model family
func (s *Static) Algorithm() string {
	return "static"
}
