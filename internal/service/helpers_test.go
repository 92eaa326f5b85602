package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/fixture"
	"github.com/smartcity/tripduration/internal/service"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }

// sampleTrip is the reference request from the web form
func sampleTrip() domain.RawTrip {
	return domain.RawTrip{
		VendorID:         intPtr(2),
		PickupDatetime:   "2016-06-15 10:30:00",
		PassengerCount:   intPtr(2),
		PickupLongitude:  floatPtr(-73.9776),
		PickupLatitude:   floatPtr(40.7614),
		DropoffLongitude: floatPtr(-73.9900),
		DropoffLatitude:  floatPtr(40.7500),
		StoreAndFwdFlag:  stringPtr("N"),
	}
}

func tripAt(pickup string) domain.RawTrip {
	t := sampleTrip()
	t.PickupDatetime = pickup
	return t
}

func fixtureBundle(t *testing.T) *domain.Bundle {
	t.Helper()
	set, err := fixture.Artifacts()
	require.NoError(t, err)
	b, _, err := service.NewBundle(set)
	require.NoError(t, err)
	return b
}

// constModel returns the same log-duration for every row
type constModel struct {
	value float64
	names []string
	err   error
	rows  int
}

func (m *constModel) Predict(_ context.Context, rows [][]float64) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	n := len(rows)
	if m.rows > 0 {
		n = m.rows
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = m.value
	}
	return out, nil
}

func (m *constModel) FeatureNames() []string { return m.names }

type recordingMetrics struct {
	mu          sync.Mutex
	predictions int
	stageErrs   map[domain.Stage]int
	gaps        map[string]int
	loaded      bool
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{stageErrs: map[domain.Stage]int{}, gaps: map[string]int{}}
}

func (m *recordingMetrics) ObservePrediction(_ time.Duration, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions += rows
}

func (m *recordingMetrics) StageError(stage domain.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stageErrs[stage]++
}

func (m *recordingMetrics) SchemaGap(feature string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gaps[feature]++
}

func (m *recordingMetrics) SetArtifactsLoaded(loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = loaded
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.PredictionEvent
	err    error
}

func (p *recordingPublisher) PublishPrediction(_ context.Context, e domain.PredictionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

var errBoom = errors.New("boom")
