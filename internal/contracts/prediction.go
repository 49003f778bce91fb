package contracts

// Label is the human-readable campaign-response decision
type Label string

const (
	LabelYes Label = "YES"
	LabelNo  Label = "NO"
)

// DefaultThreshold is used when the threshold config is missing
const DefaultThreshold = 0.24

// PredictionResult is the structured output of one scored record
// Invariant: Prediction == 1 iff Probability >= Threshold, Label == YES iff Prediction == 1
type PredictionResult struct {
	Probability float64 `json:"probability"`
	Prediction  int     `json:"prediction"`
	Label       Label   `json:"label"`
	Threshold   float64 `json:"threshold"`
}

// IsPositive returns true when the client is predicted to subscribe
func (p PredictionResult) IsPositive() bool {
	return p.Prediction == 1
}
