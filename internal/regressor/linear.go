package regressor

import (
	"context"
	"fmt"
)

// Linear is an ordinary linear model: intercept + coef·x
type Linear struct {
	names        []string
	intercept    float64
	coefficients []float64
}

// NewLinear builds a linear model; names may be nil when the training run did not record them
func NewLinear(names []string, intercept float64, coefficients []float64) (*Linear, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("regressor: linear model has no coefficients")
	}
	if len(names) > 0 && len(names) != len(coefficients) {
		return nil, fmt.Errorf("regressor: linear model has %d coefficients for %d feature names", len(coefficients), len(names))
	}
	return &Linear{
		names:        append([]string(nil), names...),
		intercept:    intercept,
		coefficients: append([]float64(nil), coefficients...),
	}, nil
}

func (m *Linear) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	return predictRows(ctx, rows, len(m.coefficients), func(row []float64) float64 {
		y := m.intercept
		for j, c := range m.coefficients {
			y += c * row[j]
		}
		return y
	})
}

func (m *Linear) FeatureNames() []string {
	if len(m.names) == 0 {
		return nil
	}
	return append([]string(nil), m.names...)
}

func (m *Linear) ModelType() string { return TypeLinear }
