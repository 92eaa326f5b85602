package regressor

import (
	"encoding/json"
	"fmt"

	"github.com/smartcity/tripduration/internal/domain"
)

// Encoder is implemented by models that can be written back as an artifact
type Encoder interface {
	Spec() Spec
}

// Encode serializes a model into the artifact JSON Decode reads
func Encode(m domain.Model) ([]byte, error) {
	enc, ok := m.(Encoder)
	if !ok {
		return nil, fmt.Errorf("regressor: %T cannot be encoded", m)
	}
	data, err := json.MarshalIndent(enc.Spec(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("regressor: failed to encode model artifact: %w", err)
	}
	return data, nil
}

func (m *Linear) Spec() Spec {
	return Spec{
		Type:         TypeLinear,
		FeatureNames: m.FeatureNames(),
		NFeatures:    len(m.coefficients),
		Intercept:    m.intercept,
		Coefficients: append([]float64(nil), m.coefficients...),
	}
}

func (m *TreeEnsemble) Spec() Spec {
	aggregation := "sum"
	if m.mean {
		aggregation = "mean"
	}
	return Spec{
		Type:         TypeTreeEnsemble,
		FeatureNames: m.FeatureNames(),
		NFeatures:    m.width,
		BaseScore:    m.baseScore,
		LearningRate: m.learningRate,
		Aggregation:  aggregation,
		Trees:        append([]Tree(nil), m.trees...),
	}
}

func (b *MLBridge) Spec() Spec {
	return Spec{
		Type:         TypeRemote,
		FeatureNames: b.FeatureNames(),
		Endpoint:     b.serviceURL,
	}
}
