package service

import (
	"context"
	"fmt"
	"math"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/pkg/utils"
)

// Diagnostics are user-facing features captured before standardization
type Diagnostics struct {
	DistanceKM float64
	RushHour   bool
	Weekend    bool
}

// DiagnosticsFrom reads the diagnostic features out of a derived feature map
func DiagnosticsFrom(derived map[string]float64) Diagnostics {
	return Diagnostics{
		DistanceKM: derived[domain.FeatureDistanceKM],
		RushHour:   derived[domain.FeatureRushHour] == 1,
		Weekend:    derived[domain.FeatureWeekend] == 1,
	}
}

// Outcome is one scored row
type Outcome struct {
	LogDuration float64
	Result      domain.PredictionResult
}

// Predictor invokes the model and turns log-durations back into durations
type Predictor struct {
	model    domain.Model
	manifest *domain.FeatureManifest
}

// NewPredictor creates a predictor bound to one model and its manifest
func NewPredictor(model domain.Model, manifest *domain.FeatureManifest) *Predictor {
	return &Predictor{model: model, manifest: manifest}
}

// DurationFromLog inverts log1p and floors negative durations at zero
func DurationFromLog(logDuration float64) float64 {
	return math.Max(0, math.Expm1(logDuration))
}

// FormatDuration renders whole minutes and remaining whole seconds
func FormatDuration(seconds float64) string {
	mins := int(seconds / 60)
	secs := int(math.Mod(seconds, 60))
	return fmt.Sprintf("%d phút %d giây", mins, secs)
}

// Predict scores a single standardized vector
func (p *Predictor) Predict(ctx context.Context, scaled domain.FeatureVector, diag Diagnostics) (Outcome, error) {
	out, err := p.PredictBatch(ctx, []domain.FeatureVector{scaled}, []Diagnostics{diag})
	if err != nil {
		return Outcome{}, err
	}
	return out[0], nil
}

// PredictBatch scores many standardized vectors in one model call
func (p *Predictor) PredictBatch(ctx context.Context, scaled []domain.FeatureVector, diags []Diagnostics) ([]Outcome, error) {
	if len(scaled) != len(diags) {
		return nil, fmt.Errorf("%w: %d vectors but %d diagnostics", domain.ErrScalingMismatch, len(scaled), len(diags))
	}
	rows := make([][]float64, len(scaled))
	for i, v := range scaled {
		if v.Len() != p.manifest.Len() {
			return nil, fmt.Errorf("%w: vector %d has %d features, manifest has %d",
				domain.ErrScalingMismatch, i, v.Len(), p.manifest.Len())
		}
		rows[i] = v.Values()
	}

	preds, err := p.model.Predict(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelInvocation, err)
	}
	if len(preds) != len(rows) {
		return nil, fmt.Errorf("%w: model returned %d predictions for %d rows", domain.ErrModelInvocation, len(preds), len(rows))
	}

	out := make([]Outcome, len(preds))
	for i, logDuration := range preds {
		if math.IsNaN(logDuration) || math.IsInf(logDuration, 0) {
			return nil, fmt.Errorf("%w: model returned non-finite prediction %v for row %d", domain.ErrModelInvocation, logDuration, i)
		}
		seconds := DurationFromLog(logDuration)
		if math.IsInf(seconds, 0) {
			return nil, fmt.Errorf("%w: log prediction %v overflows a duration", domain.ErrModelInvocation, logDuration)
		}
		out[i] = Outcome{
			LogDuration: logDuration,
			Result: domain.PredictionResult{
				DurationSeconds: utils.RoundTo(seconds, 2),
				DurationMinutes: utils.RoundTo(seconds/60, 2),
				DurationText:    FormatDuration(seconds),
				DistanceKM:      utils.RoundTo(diags[i].DistanceKM, 2),
				IsRushHour:      diags[i].RushHour,
				IsWeekend:       diags[i].Weekend,
			},
		}
	}
	return out, nil
}
