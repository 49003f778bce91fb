package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// thresholdFile mirrors threshold_config.json written by training
type thresholdFile struct {
	Threshold *float64 `json:"threshold"`
}

// LoadThreshold reads the decision threshold.
// A missing file or field falls back to contracts.DefaultThreshold.
func LoadThreshold(path string) (float64, []byte, error) {
	if path == "" {
		return contracts.DefaultThreshold, nil, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return contracts.DefaultThreshold, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}

	return ParseThreshold(data)
}

// ParseThreshold decodes threshold_config.json content
func ParseThreshold(data []byte) (float64, []byte, error) {
	var f thresholdFile
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, nil, fmt.Errorf("%w: threshold config: %v", ErrInvalidBundle, err)
	}
	if f.Threshold == nil {
		return contracts.DefaultThreshold, data, nil
	}

	t := *f.Threshold
	if !(t >= 0 && t <= 1) {
		return 0, nil, fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidBundle, t)
	}
	return t, data, nil
}
