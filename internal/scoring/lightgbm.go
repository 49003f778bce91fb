package scoring

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/dmitryikh/leaves"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// ensemble is the subset of leaves.Ensemble the scorer uses
type ensemble interface {
	PredictSingle(fvals []float64, nEstimators int) float64
	NFeatures() int
}

// LightGBM scores feature vectors with a gradient-boosted tree ensemble
// ⭐ SSOT: 모델 추론은 여기서만
type LightGBM struct {
	model ensemble
}

// LoadLightGBM loads a LightGBM text model (model.txt) and applies its
// sigmoid transformation so Score returns a probability.
func LoadLightGBM(path string) (*LightGBM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load lightgbm model: %w", err)
	}
	return ParseLightGBM(data)
}

// ParseLightGBM builds the scorer from model.txt contents
func ParseLightGBM(data []byte) (*LightGBM, error) {
	model, err := leaves.LGEnsembleFromReader(bufio.NewReader(bytes.NewReader(data)), true)
	if err != nil {
		return nil, fmt.Errorf("load lightgbm model: %w", err)
	}
	if model.NOutputGroups() != 1 {
		return nil, fmt.Errorf("load lightgbm model: binary classifier expected, got %d output groups", model.NOutputGroups())
	}
	return &LightGBM{model: model}, nil
}

// Score returns the positive-class probability.
// leaves silently returns 0 for short vectors, so the width is checked first.
func (m *LightGBM) Score(vec contracts.FeatureVector) (float64, error) {
	if len(vec) != m.model.NFeatures() {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", ErrDimension, m.model.NFeatures(), len(vec))
	}
	// nEstimators=0 uses every tree
	return checkProbability(m.model.PredictSingle(vec, 0))
}

// NFeatures returns the expected vector length
func (m *LightGBM) NFeatures() int {
	return m.model.NFeatures()
}

// Algorithm describes the model family
func (m *LightGBM) Algorithm() string {
	return "LightGBM (Gradient Boosting)"
}
