package artifacts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// FeatureConfig lists the model's expected feature order
type FeatureConfig struct {
	Version  int      `yaml:"version"`
	Features []string `yaml:"features"`
}

// LoadFeatureConfig reads feature_config.yaml.
// The file is optional: an empty path or a missing file returns nil.
func LoadFeatureConfig(path string) (*FeatureConfig, []byte, error) {
	if path == "" {
		return nil, nil, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	cfg, err := ParseFeatureConfig(data)
	if err != nil {
		return nil, nil, err
	}
	return cfg, data, nil
}

// ParseFeatureConfig decodes feature config YAML
// KnownFields(true): 오타 필드는 즉시 실패
func ParseFeatureConfig(data []byte) (*FeatureConfig, error) {
	var cfg FeatureConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: feature config: %v", ErrInvalidBundle, err)
	}
	if len(cfg.Features) == 0 {
		return nil, fmt.Errorf("%w: feature config lists no features", ErrInvalidBundle)
	}
	return &cfg, nil
}
