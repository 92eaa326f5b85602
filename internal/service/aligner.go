package service

import (
	"math"

	"github.com/smartcity/tripduration/internal/domain"
)

// Align lays derived features out in manifest order.
// Manifest columns missing from derived are zero-filled and reported; extra derived features are dropped.
func Align(derived map[string]float64, manifest *domain.FeatureManifest) (domain.FeatureVector, []domain.SchemaGapWarning, error) {
	vec := domain.NewFeatureVector(manifest)
	var gaps []domain.SchemaGapWarning
	for i := 0; i < manifest.Len(); i++ {
		name := manifest.Name(i)
		v, ok := derived[name]
		if !ok {
			gaps = append(gaps, domain.SchemaGapWarning{Feature: name})
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.FeatureVector{}, nil, &domain.MalformedInputError{Field: name, Reason: "derived value is not finite"}
		}
		vec.SetAt(i, v)
	}
	return vec, gaps, nil
}
