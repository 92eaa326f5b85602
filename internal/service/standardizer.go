package service

import (
	"fmt"

	"github.com/smartcity/tripduration/internal/domain"
)

// Standardize returns a copy of v with the scaler's declared columns standardized.
// Every other column keeps its raw value and position; v itself is not modified.
func Standardize(v domain.FeatureVector, scaler *domain.ScalerArtifact) (domain.FeatureVector, error) {
	columns := scaler.ExpectedFeatureNames()
	positions := make([]int, len(columns))
	row := make([]float64, len(columns))
	for j, name := range columns {
		i, ok := v.Manifest().Index(name)
		if !ok {
			return domain.FeatureVector{}, fmt.Errorf("%w: scaler column %q is not in the feature manifest", domain.ErrScalingMismatch, name)
		}
		positions[j] = i
		row[j] = v.At(i)
	}

	scaled, err := scaler.Transform([][]float64{row})
	if err != nil {
		return domain.FeatureVector{}, err
	}

	out := v.Clone()
	for j, i := range positions {
		out.SetAt(i, scaled[0][j])
	}
	if name, ok := out.Finite(); !ok {
		return domain.FeatureVector{}, fmt.Errorf("%w: column %q standardized to a non-finite value", domain.ErrDegenerateScaler, name)
	}
	return out, nil
}
