package preprocess

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// Transform errors (request-level)
var (
	ErrMissingColumn   = fmt.Errorf("%w: missing column", contracts.ErrTransform)
	ErrUnknownCategory = fmt.Errorf("%w: unknown category", contracts.ErrTransform)
	ErrInvalidValue    = fmt.Errorf("%w: invalid value", contracts.ErrTransform)
)

// ErrInvalidArtifact is returned when the transform artifact can't be compiled
var ErrInvalidArtifact = errors.New("invalid preprocessor artifact")

// Transformer kinds
const (
	KindStandard = "standard"
	KindOneHot   = "onehot"
)

// handle_unknown values
const (
	UnknownIgnore = "ignore"
	UnknownError  = "error"
)

// Artifact is the serialized, pre-fitted column transform exported by training
type Artifact struct {
	Version      int               `json:"version"`
	Transformers []TransformerSpec `json:"transformers"`
}

// TransformerSpec is one block of the column transform; blocks are concatenated in order
type TransformerSpec struct {
	Name          string       `json:"name"`
	Kind          string       `json:"kind"`
	HandleUnknown string       `json:"handle_unknown,omitempty"`
	Columns       []ColumnSpec `json:"columns"`
}

// ColumnSpec holds fitted parameters for one input column
type ColumnSpec struct {
	Name       string   `json:"name"`
	Fill       any      `json:"fill,omitempty"`
	Mean       float64  `json:"mean,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// ColumnTransform applies a fitted transform. It is immutable after Compile.
// ⭐ SSOT: 전처리 변환은 여기서만 (재학습/수정 금지)
type ColumnTransform struct {
	numeric []numericColumn
	onehot  []onehotColumn
	names   []string
	width   int

	// order[i] is the source index of output feature i; nil keeps artifact order
	order []int
}

type numericColumn struct {
	name   string
	offset int
	fill   *float64
	mean   float64
	scale  float64
}

type onehotColumn struct {
	name          string
	offset        int
	fill          *string
	index         map[string]int
	ignoreUnknown bool
}

// Load reads and compiles a transform artifact from disk
func Load(path string) (*ColumnTransform, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	ct, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return ct, data, nil
}

// Parse decodes and compiles a transform artifact.
// Unknown JSON fields are rejected so a schema drift fails at load time.
func Parse(data []byte) (*ColumnTransform, error) {
	var art Artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return Compile(art)
}

// Compile validates an artifact and builds the transform plan
func Compile(art Artifact) (*ColumnTransform, error) {
	if len(art.Transformers) == 0 {
		return nil, fmt.Errorf("%w: no transformers", ErrInvalidArtifact)
	}

	ct := &ColumnTransform{}
	for _, spec := range art.Transformers {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: transformer name required", ErrInvalidArtifact)
		}

		switch spec.Kind {
		case KindStandard:
			if err := ct.addNumeric(spec); err != nil {
				return nil, err
			}
		case KindOneHot:
			if err := ct.addOneHot(spec); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: transformer %s: unsupported kind %q", ErrInvalidArtifact, spec.Name, spec.Kind)
		}
	}

	return ct, nil
}

func (ct *ColumnTransform) addNumeric(spec TransformerSpec) error {
	for _, col := range spec.Columns {
		c := numericColumn{
			name:   col.Name,
			offset: ct.width,
			mean:   col.Mean,
			scale:  col.Scale,
		}
		// sklearn StandardScaler: zero variance columns keep scale 1
		if c.scale == 0 {
			c.scale = 1
		}
		if col.Fill != nil {
			f, ok := contracts.ToFloat(col.Fill)
			if !ok {
				return fmt.Errorf("%w: %s.%s: numeric fill expected", ErrInvalidArtifact, spec.Name, col.Name)
			}
			c.fill = &f
		}

		ct.numeric = append(ct.numeric, c)
		ct.names = append(ct.names, spec.Name+"__"+col.Name)
		ct.width++
	}
	return nil
}

func (ct *ColumnTransform) addOneHot(spec TransformerSpec) error {
	var ignore bool
	switch spec.HandleUnknown {
	case "", UnknownError:
		ignore = false
	case UnknownIgnore:
		ignore = true
	default:
		return fmt.Errorf("%w: transformer %s: handle_unknown %q", ErrInvalidArtifact, spec.Name, spec.HandleUnknown)
	}

	for _, col := range spec.Columns {
		if len(col.Categories) == 0 {
			return fmt.Errorf("%w: %s.%s: categories required", ErrInvalidArtifact, spec.Name, col.Name)
		}

		c := onehotColumn{
			name:          col.Name,
			offset:        ct.width,
			index:         make(map[string]int, len(col.Categories)),
			ignoreUnknown: ignore,
		}
		for i, cat := range col.Categories {
			if _, dup := c.index[cat]; dup {
				return fmt.Errorf("%w: %s.%s: duplicate category %q", ErrInvalidArtifact, spec.Name, col.Name, cat)
			}
			c.index[cat] = i
			ct.names = append(ct.names, spec.Name+"__"+col.Name+"_"+cat)
		}
		if col.Fill != nil {
			s, ok := categoryKey(col.Fill)
			if !ok {
				return fmt.Errorf("%w: %s.%s: invalid fill", ErrInvalidArtifact, spec.Name, col.Name)
			}
			c.fill = &s
		}

		ct.onehot = append(ct.onehot, c)
		ct.width += len(col.Categories)
	}
	return nil
}

// Width returns the output vector length
func (ct *ColumnTransform) Width() int {
	return ct.width
}

// FeatureNames returns output feature names in output order
func (ct *ColumnTransform) FeatureNames() []string {
	if ct.order == nil {
		return append([]string(nil), ct.names...)
	}
	names := make([]string, len(ct.order))
	for i, src := range ct.order {
		names[i] = ct.names[src]
	}
	return names
}

// InputColumns returns the record columns the transform reads
func (ct *ColumnTransform) InputColumns() []string {
	cols := make([]string, 0, len(ct.numeric)+len(ct.onehot))
	for _, c := range ct.numeric {
		cols = append(cols, c.name)
	}
	for _, c := range ct.onehot {
		cols = append(cols, c.name)
	}
	return cols
}

// WithOrder returns a copy emitting features in the given name order.
// Every name must be produced by the transform and the widths must match.
func (ct *ColumnTransform) WithOrder(names []string) (*ColumnTransform, error) {
	if len(names) != ct.width {
		return nil, fmt.Errorf("%w: feature order lists %d names, transform produces %d", ErrInvalidArtifact, len(names), ct.width)
	}

	pos := make(map[string]int, len(ct.names))
	for i, n := range ct.names {
		pos[n] = i
	}

	order := make([]int, len(names))
	used := make(map[int]bool, len(names))
	for i, n := range names {
		src, ok := pos[n]
		if !ok {
			return nil, fmt.Errorf("%w: feature %q not produced by transform", ErrInvalidArtifact, n)
		}
		if used[src] {
			return nil, fmt.Errorf("%w: feature %q listed twice", ErrInvalidArtifact, n)
		}
		used[src] = true
		order[i] = src
	}

	cp := *ct
	cp.order = order
	return &cp, nil
}

// Transform maps an engineered record to the model's feature vector
func (ct *ColumnTransform) Transform(rec contracts.Record) (contracts.FeatureVector, error) {
	vec := make(contracts.FeatureVector, ct.width)

	for _, c := range ct.numeric {
		x, err := c.value(rec)
		if err != nil {
			return nil, err
		}
		vec[c.offset] = (x - c.mean) / c.scale
	}

	for _, c := range ct.onehot {
		idx, err := c.position(rec)
		if err != nil {
			return nil, err
		}
		if idx >= 0 {
			vec[c.offset+idx] = 1
		}
	}

	if ct.order == nil {
		return vec, nil
	}
	ordered := make(contracts.FeatureVector, len(ct.order))
	for i, src := range ct.order {
		ordered[i] = vec[src]
	}
	return ordered, nil
}

func (c numericColumn) value(rec contracts.Record) (float64, error) {
	v, ok := rec[c.name]
	if !ok || v == nil {
		if c.fill == nil {
			return 0, fmt.Errorf("%w: %s", ErrMissingColumn, c.name)
		}
		return *c.fill, nil
	}

	x, ok := contracts.ToFloat(v)
	if !ok || !contracts.IsFinite(x) {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidValue, c.name, v)
	}
	return x, nil
}

// position returns the one-hot slot for the column value, or -1 for an ignored unknown
func (c onehotColumn) position(rec contracts.Record) (int, error) {
	v, ok := rec[c.name]
	if !ok || v == nil {
		if c.fill == nil {
			return 0, fmt.Errorf("%w: %s", ErrMissingColumn, c.name)
		}
		return c.lookup(*c.fill)
	}

	key, ok := categoryKey(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidValue, c.name, v)
	}
	return c.lookup(key)
}

func (c onehotColumn) lookup(key string) (int, error) {
	if idx, ok := c.index[key]; ok {
		return idx, nil
	}
	if c.ignoreUnknown {
		return -1, nil
	}
	return 0, fmt.Errorf("%w: %s=%q", ErrUnknownCategory, c.name, key)
}

// categoryKey renders a scalar the way it appears in the fitted category list
func categoryKey(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	case json.Number:
		return s.String(), true
	}
	if f, ok := contracts.ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
