package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/pkg/utils"
)

// Metrics receives pipeline observations
type Metrics interface {
	ObservePrediction(d time.Duration, rows int)
	StageError(stage domain.Stage)
	SchemaGap(feature string)
	SetArtifactsLoaded(loaded bool)
}

// EventPublisher announces successful predictions to downstream consumers
type EventPublisher interface {
	PublishPrediction(ctx context.Context, event domain.PredictionEvent) error
}

// HealthStatus is reported by /health
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version,omitempty"`
	Error       string `json:"error,omitempty"`
}

type healthChecker interface {
	Health(ctx context.Context) error
}

// PredictionService runs the feature pipeline against one immutable artifact bundle.
// It holds no mutable state after construction and is safe for concurrent use.
type PredictionService struct {
	bundle       *domain.Bundle
	loadErr      error
	deriver      FeatureDeriver
	predictor    *Predictor
	metrics      Metrics
	publishers   []EventPublisher
	strictBounds bool
	validate     *validator.Validate
}

// Option configures a PredictionService
type Option func(*PredictionService)

// WithMetrics records pipeline metrics
func WithMetrics(m Metrics) Option {
	return func(s *PredictionService) { s.metrics = m }
}

// WithPublisher publishes an event per successful prediction. It may be given more than once.
func WithPublisher(p EventPublisher) Option {
	return func(s *PredictionService) {
		if p != nil {
			s.publishers = append(s.publishers, p)
		}
	}
}

// WithStrictBounds rejects trips with a pickup or dropoff outside NYC
func WithStrictBounds(strict bool) Option {
	return func(s *PredictionService) { s.strictBounds = strict }
}

// NewPredictionService creates the service. When loadErr is set the bundle is ignored,
// predictions fail with ErrArtifactLoad and Health reports the failure.
func NewPredictionService(bundle *domain.Bundle, loadErr error, opts ...Option) *PredictionService {
	if loadErr == nil && bundle == nil {
		loadErr = fmt.Errorf("%w: no bundle", domain.ErrArtifactLoad)
	}
	if loadErr != nil && !errors.Is(loadErr, domain.ErrArtifactLoad) {
		loadErr = fmt.Errorf("%w: %v", domain.ErrArtifactLoad, loadErr)
	}

	s := &PredictionService{
		loadErr:  loadErr,
		metrics:  noopMetrics{},
		validate: newTripValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if loadErr == nil {
		s.bundle = bundle
		s.deriver = NewFeatureDeriver(bundle.Direction)
		s.predictor = NewPredictor(bundle.Model, bundle.Manifest)
	}
	s.metrics.SetArtifactsLoaded(s.bundle != nil)
	return s
}

func newTripValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Ready returns the artifact load error, if any
func (s *PredictionService) Ready() error {
	return s.loadErr
}

// Bundle returns the loaded bundle or the load error
func (s *PredictionService) Bundle() (*domain.Bundle, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.bundle, nil
}

// prepared is one trip after the deriver, aligner and standardizer stages
type prepared struct {
	trip   domain.RawTrip
	raw    domain.FeatureVector
	scaled domain.FeatureVector
	diag   Diagnostics
	gaps   []domain.SchemaGapWarning
}

func (s *PredictionService) checkTrip(trip domain.RawTrip) error {
	if err := s.validate.Struct(trip); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			reason := "failed " + fe.Tag()
			switch {
			case fe.Tag() == "required":
				reason = "is required"
			case fe.Param() != "":
				reason = fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
			}
			return &domain.MalformedInputError{Field: fe.Field(), Reason: reason}
		}
		return &domain.MalformedInputError{Field: "trip", Reason: err.Error()}
	}
	return nil
}

func (s *PredictionService) checkBounds(trip domain.RawTrip) error {
	if !s.strictBounds {
		return nil
	}
	if !utils.WithinBounds(*trip.PickupLatitude, *trip.PickupLongitude, utils.NYCBounds) {
		return &domain.MalformedInputError{Field: "pickup", Reason: "outside the service area"}
	}
	if !utils.WithinBounds(*trip.DropoffLatitude, *trip.DropoffLongitude, utils.NYCBounds) {
		return &domain.MalformedInputError{Field: "dropoff", Reason: "outside the service area"}
	}
	return nil
}

func (s *PredictionService) fail(err error) error {
	if stage := domain.StageOf(err); stage != "" {
		s.metrics.StageError(stage)
	}
	return err
}

func (s *PredictionService) prepare(trip domain.RawTrip) (prepared, error) {
	if err := s.checkTrip(trip); err != nil {
		return prepared{}, domain.WrapStage(domain.StageDeriver, err)
	}
	if err := s.checkBounds(trip); err != nil {
		return prepared{}, domain.WrapStage(domain.StageDeriver, err)
	}

	derived, err := s.deriver.Derive(trip)
	if err != nil {
		return prepared{}, domain.WrapStage(domain.StageDeriver, err)
	}

	raw, gaps, err := Align(derived, s.bundle.Manifest)
	if err != nil {
		return prepared{}, domain.WrapStage(domain.StageAligner, err)
	}
	for _, g := range gaps {
		s.metrics.SchemaGap(g.Feature)
		log.Printf("Warning: bundle %q: %s", s.bundle.Version, g)
	}

	scaled, err := Standardize(raw, s.bundle.Scaler)
	if err != nil {
		return prepared{}, domain.WrapStage(domain.StageStandardizer, err)
	}

	return prepared{
		trip:   trip,
		raw:    raw,
		scaled: scaled,
		diag:   DiagnosticsFrom(derived),
		gaps:   gaps,
	}, nil
}

func (s *PredictionService) score(ctx context.Context, batch []prepared) ([]Outcome, error) {
	scaled := make([]domain.FeatureVector, len(batch))
	diags := make([]Diagnostics, len(batch))
	for i, p := range batch {
		scaled[i] = p.scaled
		diags[i] = p.diag
	}
	out, err := s.predictor.PredictBatch(ctx, scaled, diags)
	if err != nil {
		return nil, domain.WrapStage(domain.StagePredictor, err)
	}
	for i := range out {
		out[i].Result.ID = uuid.NewString()
		out[i].Result.ModelVersion = s.bundle.Version
	}
	return out, nil
}

func (s *PredictionService) publish(ctx context.Context, p prepared, r domain.PredictionResult) {
	if len(s.publishers) == 0 {
		return
	}
	event := domain.PredictionEvent{
		ID:              r.ID,
		ModelVersion:    r.ModelVersion,
		PickupDatetime:  p.trip.PickupDatetime,
		DistanceKM:      r.DistanceKM,
		DurationSeconds: r.DurationSeconds,
		SchemaGaps:      len(p.gaps),
		Timestamp:       time.Now(),
	}
	for _, pub := range s.publishers {
		if err := pub.PublishPrediction(ctx, event); err != nil {
			log.Printf("Failed to publish prediction event: %v", err)
		}
	}
}

// Predict runs the full pipeline for one trip
func (s *PredictionService) Predict(ctx context.Context, trip domain.RawTrip) (domain.PredictionResult, error) {
	out, err := s.PredictBatch(ctx, []domain.RawTrip{trip})
	if err != nil {
		return domain.PredictionResult{}, err
	}
	return out[0], nil
}

// PredictBatch scores every trip in one model call. The first failing trip fails the batch.
func (s *PredictionService) PredictBatch(ctx context.Context, trips []domain.RawTrip) ([]domain.PredictionResult, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	start := time.Now()

	batch := make([]prepared, len(trips))
	for i, trip := range trips {
		p, err := s.prepare(trip)
		if err != nil {
			if len(trips) > 1 {
				err = fmt.Errorf("trip %d: %w", i, err)
			}
			return nil, s.fail(err)
		}
		batch[i] = p
	}

	out, err := s.score(ctx, batch)
	if err != nil {
		return nil, s.fail(err)
	}

	results := make([]domain.PredictionResult, len(out))
	for i, o := range out {
		results[i] = o.Result
		s.publish(ctx, batch[i], o.Result)
	}
	s.metrics.ObservePrediction(time.Since(start), len(results))
	return results, nil
}

// Explain predicts one trip and returns every model input before and after scaling
func (s *PredictionService) Explain(ctx context.Context, trip domain.RawTrip) (domain.Explanation, error) {
	if s.loadErr != nil {
		return domain.Explanation{}, s.loadErr
	}
	p, err := s.prepare(trip)
	if err != nil {
		return domain.Explanation{}, s.fail(err)
	}
	out, err := s.score(ctx, []prepared{p})
	if err != nil {
		return domain.Explanation{}, s.fail(err)
	}

	scaledCols := make(map[string]struct{})
	for _, c := range s.bundle.Scaler.ExpectedFeatureNames() {
		scaledCols[c] = struct{}{}
	}
	features := make([]domain.FeatureExplanation, p.raw.Len())
	for i, name := range p.raw.Names() {
		_, scaled := scaledCols[name]
		features[i] = domain.FeatureExplanation{
			Index:  i,
			Name:   name,
			Raw:    p.raw.At(i),
			Scaled: p.scaled.At(i),
			Scaler: scaled,
		}
	}
	var gaps []string
	for _, g := range p.gaps {
		gaps = append(gaps, g.Feature)
	}

	return domain.Explanation{
		Success:    true,
		Prediction: out[0].Result,
		LogOutput:  out[0].LogDuration,
		Features:   features,
		SchemaGaps: gaps,
	}, nil
}

// Info describes the loaded bundle
func (s *PredictionService) Info() (domain.BundleInfo, error) {
	if s.loadErr != nil {
		return domain.BundleInfo{}, s.loadErr
	}
	return Describe(s.bundle), nil
}

// Consistency re-runs the offline checks against the loaded bundle
func (s *PredictionService) Consistency() (ArtifactReport, error) {
	if s.loadErr != nil {
		return ArtifactReport{}, s.loadErr
	}
	b := s.bundle
	return InspectArtifacts(b.Version, b.Manifest, b.Scaler, b.Model), nil
}

// Health reports whether predictions can be served
func (s *PredictionService) Health(ctx context.Context) HealthStatus {
	if s.loadErr != nil {
		return HealthStatus{Status: "degraded", ModelLoaded: false, Error: s.loadErr.Error()}
	}
	status := HealthStatus{Status: "ok", ModelLoaded: true, Version: s.bundle.Version}
	if hc, ok := s.bundle.Model.(healthChecker); ok {
		if err := hc.Health(ctx); err != nil {
			status.Status = "degraded"
			status.Error = err.Error()
		}
	}
	return status
}

type noopMetrics struct{}

func (noopMetrics) ObservePrediction(time.Duration, int) {}
func (noopMetrics) StageError(domain.Stage)              {}
func (noopMetrics) SchemaGap(string)                     {}
func (noopMetrics) SetArtifactsLoaded(bool)              {}
