package decision

import (
	"fmt"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// ErrInvalidThreshold is returned for thresholds outside [0, 1]
var ErrInvalidThreshold = fmt.Errorf("threshold must be in [0, 1]")

// Decision is the binary outcome for one probability
type Decision struct {
	Prediction int
	Label      contracts.Label
}

// Decide applies an inclusive threshold: probability >= threshold is positive
func Decide(probability, threshold float64) Decision {
	if probability >= threshold {
		return Decision{Prediction: 1, Label: contracts.LabelYes}
	}
	return Decision{Prediction: 0, Label: contracts.LabelNo}
}

// Policy binds the process-wide threshold
// ⭐ SSOT: 임계값 판정은 여기서만
type Policy struct {
	threshold float64
}

// NewPolicy validates the threshold and creates a policy
func NewPolicy(threshold float64) (*Policy, error) {
	if !(threshold >= 0 && threshold <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return &Policy{threshold: threshold}, nil
}

// Threshold returns the configured threshold
func (p *Policy) Threshold() float64 {
	return p.threshold
}

// Apply builds a full result, echoing the threshold for auditability
func (p *Policy) Apply(probability float64) contracts.PredictionResult {
	d := Decide(probability, p.threshold)
	return contracts.PredictionResult{
		Probability: probability,
		Prediction:  d.Prediction,
		Label:       d.Label,
		Threshold:   p.threshold,
	}
}
