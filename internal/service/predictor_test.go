package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/service"
)

func TestDurationFromLog(t *testing.T) {
	for _, seconds := range []float64{0, 1, 59.5, 600, 3600, 86400} {
		assert.InDelta(t, seconds, service.DurationFromLog(math.Log1p(seconds)), 1e-6)
	}
	assert.Equal(t, 0.0, service.DurationFromLog(-3))
	assert.Equal(t, 0.0, service.DurationFromLog(0))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0 phút 0 giây"},
		{59.9, "0 phút 59 giây"},
		{60, "1 phút 0 giây"},
		{754.4, "12 phút 34 giây"},
		{3725, "62 phút 5 giây"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, service.FormatDuration(tt.seconds))
	}
}

func TestPredictorResult(t *testing.T) {
	m, err := domain.NewFeatureManifest([]string{"a", "b"})
	require.NoError(t, err)
	model := &constModel{value: math.Log1p(754.5)}
	p := service.NewPredictor(model, m)

	out, err := p.Predict(context.Background(), domain.NewFeatureVector(m),
		service.Diagnostics{DistanceKM: 1.6443, RushHour: true})
	require.NoError(t, err)

	assert.InDelta(t, math.Log1p(754.5), out.LogDuration, 1e-12)
	assert.InDelta(t, 754.5, out.Result.DurationSeconds, 0.01)
	assert.InDelta(t, 12.575, out.Result.DurationMinutes, 0.01)
	assert.Equal(t, "12 phút 34 giây", out.Result.DurationText)
	assert.Equal(t, 1.64, out.Result.DistanceKM)
	assert.True(t, out.Result.IsRushHour)
	assert.False(t, out.Result.IsWeekend)
}

func TestPredictorFloorsNegativeDurations(t *testing.T) {
	m, err := domain.NewFeatureManifest([]string{"a"})
	require.NoError(t, err)
	p := service.NewPredictor(&constModel{value: -5}, m)

	out, err := p.Predict(context.Background(), domain.NewFeatureVector(m), service.Diagnostics{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Result.DurationSeconds)
	assert.Equal(t, "0 phút 0 giây", out.Result.DurationText)
}

func TestPredictorErrors(t *testing.T) {
	m, err := domain.NewFeatureManifest([]string{"a", "b"})
	require.NoError(t, err)
	other, err := domain.NewFeatureManifest([]string{"a"})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("vector width", func(t *testing.T) {
		p := service.NewPredictor(&constModel{value: 1}, m)
		_, err := p.Predict(ctx, domain.NewFeatureVector(other), service.Diagnostics{})
		assert.ErrorIs(t, err, domain.ErrScalingMismatch)
	})

	t.Run("diagnostics count", func(t *testing.T) {
		p := service.NewPredictor(&constModel{value: 1}, m)
		_, err := p.PredictBatch(ctx, []domain.FeatureVector{domain.NewFeatureVector(m)}, nil)
		assert.ErrorIs(t, err, domain.ErrScalingMismatch)
	})

	t.Run("model failure", func(t *testing.T) {
		p := service.NewPredictor(&constModel{err: errBoom}, m)
		_, err := p.Predict(ctx, domain.NewFeatureVector(m), service.Diagnostics{})
		assert.ErrorIs(t, err, domain.ErrModelInvocation)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("prediction count", func(t *testing.T) {
		p := service.NewPredictor(&constModel{value: 1, rows: 3}, m)
		_, err := p.Predict(ctx, domain.NewFeatureVector(m), service.Diagnostics{})
		assert.ErrorIs(t, err, domain.ErrModelInvocation)
	})

	t.Run("non-finite output", func(t *testing.T) {
		p := service.NewPredictor(&constModel{value: math.NaN()}, m)
		_, err := p.Predict(ctx, domain.NewFeatureVector(m), service.Diagnostics{})
		assert.ErrorIs(t, err, domain.ErrModelInvocation)
	})

	t.Run("overflow", func(t *testing.T) {
		p := service.NewPredictor(&constModel{value: 1000}, m)
		_, err := p.Predict(ctx, domain.NewFeatureVector(m), service.Diagnostics{})
		assert.ErrorIs(t, err, domain.ErrModelInvocation)
	})
}

func TestDiagnosticsFrom(t *testing.T) {
	d := service.DiagnosticsFrom(map[string]float64{
		domain.FeatureDistanceKM: 3.2,
		domain.FeatureRushHour:   1,
		domain.FeatureWeekend:    0,
	})
	assert.Equal(t, service.Diagnostics{DistanceKM: 3.2, RushHour: true}, d)
}
