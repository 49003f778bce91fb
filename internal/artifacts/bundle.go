package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/wonny/campaign-scorer/internal/decision"
	"github.com/wonny/campaign-scorer/internal/features"
	"github.com/wonny/campaign-scorer/internal/preprocess"
	"github.com/wonny/campaign-scorer/internal/scoring"
)

// ErrInvalidBundle is returned when artifacts load but don't fit together
var ErrInvalidBundle = errors.New("invalid scoring artifacts")

// Paths locates the training artifacts on disk
type Paths struct {
	Model         string
	Preprocessor  string
	FeatureConfig string // optional
	Threshold     string // optional
}

// ModelLoader loads a classifier and returns the bytes it was read from
type ModelLoader func(path string) (scoring.Model, []byte, error)

// LoadLightGBMFile is the default ModelLoader.
// The model is parsed from the same bytes the fingerprint covers.
func LoadLightGBMFile(path string) (scoring.Model, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	m, err := scoring.ParseLightGBM(data)
	if err != nil {
		return nil, nil, err
	}
	return m, data, nil
}

// StaticLoader returns a ModelLoader that ignores the model file
func StaticLoader(probability float64) ModelLoader {
	return func(string) (scoring.Model, []byte, error) {
		m, err := scoring.NewStatic(probability, 0)
		if err != nil {
			return nil, nil, err
		}
		return m, []byte("static:" + strconv.FormatFloat(probability, 'g', -1, 64)), nil
	}
}

// Bundle is the immutable set of loaded artifacts
// ⭐ SSOT: 로드 후 불변 (한 번 publish, 이후 lock 없이 읽기)
type Bundle struct {
	Engineer    *features.Engineer
	Transform   *preprocess.ColumnTransform
	Model       scoring.Model
	Policy      *decision.Policy
	Fingerprint string
	LoadedAt    time.Time
}

// Option customizes Load
type Option func(*loadOptions)

type loadOptions struct {
	modelLoader ModelLoader
}

// WithModelLoader replaces the LightGBM loader
func WithModelLoader(l ModelLoader) Option {
	return func(o *loadOptions) {
		o.modelLoader = l
	}
}

// Load reads every artifact, cross-checks widths and fingerprints the set
func Load(ctx context.Context, paths Paths, opts ...Option) (*Bundle, error) {
	o := loadOptions{modelLoader: LoadLightGBMFile}
	for _, opt := range opts {
		opt(&o)
	}

	h := sha256.New()

	// 1. 전처리기
	ct, ppData, err := preprocess.Load(paths.Preprocessor)
	if err != nil {
		return nil, fmt.Errorf("load preprocessor %s: %w", paths.Preprocessor, err)
	}
	h.Write(ppData)

	// 2. 피처 순서 (optional)
	fc, fcData, err := LoadFeatureConfig(paths.FeatureConfig)
	if err != nil {
		return nil, fmt.Errorf("load feature config %s: %w", paths.FeatureConfig, err)
	}
	if fc != nil {
		ct, err = ct.WithOrder(fc.Features)
		if err != nil {
			return nil, fmt.Errorf("apply feature config: %w", err)
		}
		h.Write(fcData)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. 모델
	model, modelData, err := o.modelLoader(paths.Model)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", paths.Model, err)
	}
	h.Write(modelData)

	if n := model.NFeatures(); n > 0 && n != ct.Width() {
		return nil, fmt.Errorf("%w: preprocessor produces %d features, model expects %d", ErrInvalidBundle, ct.Width(), n)
	}

	// 4. 임계값
	threshold, _, err := LoadThreshold(paths.Threshold)
	if err != nil {
		return nil, fmt.Errorf("load threshold %s: %w", paths.Threshold, err)
	}
	policy, err := decision.NewPolicy(threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	h.Write([]byte(strconv.FormatFloat(threshold, 'g', -1, 64)))

	return &Bundle{
		Engineer:    features.NewEngineer(),
		Transform:   ct,
		Model:       model,
		Policy:      policy,
		Fingerprint: hex.EncodeToString(h.Sum(nil)),
		LoadedAt:    time.Now(),
	}, nil
}

// ShortFingerprint returns the first 12 hex characters of the fingerprint
func (b *Bundle) ShortFingerprint() string {
	if len(b.Fingerprint) < 12 {
		return b.Fingerprint
	}
	return b.Fingerprint[:12]
}
