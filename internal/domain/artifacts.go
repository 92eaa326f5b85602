package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DirectionConvention selects how the direction feature is computed.
// It is recorded with the artifacts because the two conventions differ numerically.
type DirectionConvention string

const (
	// DirectionArctan is the signed planar angle atan2(dlat, dlon) in degrees
	DirectionArctan DirectionConvention = "arctan"
	// DirectionBearing is the initial compass bearing in [0, 360)
	DirectionBearing DirectionConvention = "bearing"
)

// Valid reports whether c is a known convention
func (c DirectionConvention) Valid() bool {
	return c == DirectionArctan || c == DirectionBearing
}

// Model is a trained regressor. Columns of rows follow the feature manifest;
// each output is log1p(duration_seconds).
type Model interface {
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

// FeatureNamer is implemented by models that recorded their training columns
type FeatureNamer interface {
	FeatureNames() []string
}

// ScalerParams is the persisted form of a fitted scaler
type ScalerParams struct {
	Columns []string  `json:"columns" yaml:"columns"`
	Mean    []float64 `json:"mean" yaml:"mean"`
	Scale   []float64 `json:"scale" yaml:"scale"`
}

// ScalerArtifact is a per-column standardization over a declared subset of features
type ScalerArtifact struct {
	columns []string
	mean    []float64
	scale   []float64
}

// NewScalerArtifact checks the parameter shapes; degenerate scales are reported by Validate
func NewScalerArtifact(p ScalerParams) (*ScalerArtifact, error) {
	if len(p.Columns) == 0 {
		return nil, fmt.Errorf("%w: scaler declares no columns", ErrArtifactLoad)
	}
	if len(p.Mean) != len(p.Columns) || len(p.Scale) != len(p.Columns) {
		return nil, fmt.Errorf("%w: scaler has %d columns, %d means and %d scales",
			ErrArtifactLoad, len(p.Columns), len(p.Mean), len(p.Scale))
	}
	seen := make(map[string]struct{}, len(p.Columns))
	for _, c := range p.Columns {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: scaler column %q declared twice", ErrArtifactLoad, c)
		}
		seen[c] = struct{}{}
	}
	s := &ScalerArtifact{
		columns: append([]string(nil), p.Columns...),
		mean:    append([]float64(nil), p.Mean...),
		scale:   append([]float64(nil), p.Scale...),
	}
	return s, nil
}

// FitScaler learns mean and population standard deviation of each column.
// Rows are laid out in columns order. Zero-variance columns get scale 1.
func FitScaler(columns []string, rows [][]float64) (*ScalerArtifact, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: cannot fit a scaler on zero rows", ErrDegenerateScaler)
	}
	n := float64(len(rows))
	mean := make([]float64, len(columns))
	scale := make([]float64, len(columns))
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrScalingMismatch, r, len(row), len(columns))
		}
		for j, x := range row {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range rows {
		for j, x := range row {
			d := x - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return NewScalerArtifact(ScalerParams{Columns: columns, Mean: mean, Scale: scale})
}

// ExpectedFeatureNames returns the declared columns in fit order
func (s *ScalerArtifact) ExpectedFeatureNames() []string {
	return append([]string(nil), s.columns...)
}

// Params returns a copy of the persisted form
func (s *ScalerArtifact) Params() ScalerParams {
	return ScalerParams{
		Columns: s.ExpectedFeatureNames(),
		Mean:    append([]float64(nil), s.mean...),
		Scale:   append([]float64(nil), s.scale...),
	}
}

// Validate reports the first column whose scale cannot be used.
// A scale of exactly 0 is usable; Transform substitutes 1.
func (s *ScalerArtifact) Validate() error {
	for j, sd := range s.scale {
		if math.IsNaN(sd) || math.IsInf(sd, 0) || sd < 0 {
			return fmt.Errorf("%w: column %q has std %v", ErrDegenerateScaler, s.columns[j], sd)
		}
		if math.IsNaN(s.mean[j]) || math.IsInf(s.mean[j], 0) {
			return fmt.Errorf("%w: column %q has mean %v", ErrDegenerateScaler, s.columns[j], s.mean[j])
		}
	}
	return nil
}

// Transform standardizes a matrix whose columns follow ExpectedFeatureNames
func (s *ScalerArtifact) Transform(matrix [][]float64) ([][]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := make([][]float64, len(matrix))
	for r, row := range matrix {
		if len(row) != len(s.columns) {
			return nil, fmt.Errorf("%w: scaler expects %d columns, row %d has %d",
				ErrScalingMismatch, len(s.columns), r, len(row))
		}
		scaled := make([]float64, len(row))
		for j, x := range row {
			sd := s.scale[j]
			if sd == 0 {
				sd = 1
			}
			scaled[j] = (x - s.mean[j]) / sd
		}
		out[r] = scaled
	}
	return out, nil
}

// ArtifactSet is what a repository loads: the three artifacts of one training run
type ArtifactSet struct {
	Version      string
	Direction    DirectionConvention
	FeatureNames []string
	Scaler       ScalerParams
	Model        Model
}

// Bundle is the immutable, validated artifact context every prediction runs against.
// Build it with service.NewBundle; it is read-only afterwards and safe for concurrent use.
type Bundle struct {
	Version   string
	Direction DirectionConvention
	Manifest  *FeatureManifest
	Scaler    *ScalerArtifact
	Model     Model
	LoadedAt  time.Time
}

// BundleInfo describes a loaded bundle
type BundleInfo struct {
	Version       string              `json:"version"`
	Direction     DirectionConvention `json:"direction_convention"`
	FeatureNames  []string            `json:"feature_names"`
	ScaledColumns []string            `json:"scaled_columns"`
	ModelType     string              `json:"model_type"`
	LoadedAt      time.Time           `json:"loaded_at"`
}

// ModelDescriber is implemented by models that can name their algorithm
type ModelDescriber interface {
	ModelType() string
}
