// Package regressor decodes persisted model artifacts into domain.Model implementations.
package regressor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/smartcity/tripduration/internal/domain"
)

// Model artifact types
const (
	TypeLinear       = "linear"
	TypeTreeEnsemble = "tree_ensemble"
	TypeRemote       = "remote"
)

// Spec is the JSON form of a model artifact
type Spec struct {
	Type         string   `json:"type" validate:"required,oneof=linear tree_ensemble remote"`
	FeatureNames []string `json:"feature_names,omitempty"`
	NFeatures    int      `json:"n_features_in,omitempty" validate:"gte=0"`

	// linear
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients,omitempty"`

	// tree_ensemble
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate" validate:"gte=0"`
	Aggregation  string  `json:"aggregation,omitempty" validate:"omitempty,oneof=sum mean"`
	Trees        []Tree  `json:"trees,omitempty" validate:"dive"`

	// remote
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`
}

// Options configure decoding
type Options struct {
	// RemoteURL is used for remote models whose artifact has no endpoint
	RemoteURL  string
	HTTPClient *http.Client
}

var validate = validator.New()

// Decode parses a model artifact
func Decode(data []byte, opts Options) (domain.Model, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("regressor: failed to decode model artifact: %w", err)
	}
	return FromSpec(spec, opts)
}

// FromSpec builds the model described by spec
func FromSpec(spec Spec, opts Options) (domain.Model, error) {
	if err := validate.Struct(spec); err != nil {
		return nil, fmt.Errorf("regressor: invalid model artifact: %w", err)
	}

	width := spec.NFeatures
	if len(spec.FeatureNames) > 0 {
		if width != 0 && width != len(spec.FeatureNames) {
			return nil, fmt.Errorf("regressor: n_features_in %d disagrees with %d feature names", width, len(spec.FeatureNames))
		}
		width = len(spec.FeatureNames)
	}

	switch spec.Type {
	case TypeLinear:
		return NewLinear(spec.FeatureNames, spec.Intercept, spec.Coefficients)
	case TypeTreeEnsemble:
		return NewTreeEnsemble(spec.FeatureNames, width, spec.BaseScore, spec.LearningRate, spec.Aggregation, spec.Trees)
	case TypeRemote:
		endpoint := spec.Endpoint
		if endpoint == "" {
			endpoint = opts.RemoteURL
		}
		if endpoint == "" {
			return nil, fmt.Errorf("regressor: remote model has no endpoint and ML_SERVICE_URL is not set")
		}
		return NewMLBridge(endpoint, spec.FeatureNames, opts.HTTPClient), nil
	}
	return nil, fmt.Errorf("regressor: unknown model type %q", spec.Type)
}

func checkWidth(rows [][]float64, width int) error {
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, model expects %d", i, len(row), width)
		}
	}
	return nil
}

func predictRows(ctx context.Context, rows [][]float64, width int, f func([]float64) float64) ([]float64, error) {
	if err := checkWidth(rows, width); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = f(row)
	}
	return out, nil
}
