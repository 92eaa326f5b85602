package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/smartcity/tripduration/internal/domain"
)

// NewBundle validates an artifact set and freezes it into the context predictions run against.
// Any detectable mismatch is an ErrArtifactLoad; a bundle is never built from an inconsistent triple.
func NewBundle(set domain.ArtifactSet) (*domain.Bundle, ArtifactReport, error) {
	direction := set.Direction
	if direction == "" {
		direction = domain.DirectionArctan
	}
	if !direction.Valid() {
		return nil, ArtifactReport{}, fmt.Errorf("%w: unknown direction convention %q", domain.ErrArtifactLoad, direction)
	}
	if set.Model == nil {
		return nil, ArtifactReport{}, fmt.Errorf("%w: bundle %q has no model", domain.ErrArtifactLoad, set.Version)
	}

	manifest, err := domain.NewFeatureManifest(set.FeatureNames)
	if err != nil {
		return nil, ArtifactReport{}, err
	}
	scaler, err := domain.NewScalerArtifact(set.Scaler)
	if err != nil {
		return nil, ArtifactReport{}, err
	}

	report := InspectArtifacts(set.Version, manifest, scaler, set.Model)
	if !report.OK() {
		return nil, report, fmt.Errorf("%w: bundle %q: %s", domain.ErrArtifactLoad, set.Version, strings.Join(report.Errors(), "; "))
	}
	for _, w := range report.Warnings() {
		log.Printf("Warning: bundle %q: %s", set.Version, w)
	}

	return &domain.Bundle{
		Version:   set.Version,
		Direction: direction,
		Manifest:  manifest,
		Scaler:    scaler,
		Model:     set.Model,
		LoadedAt:  time.Now(),
	}, report, nil
}

// Describe summarises a bundle for the model info endpoint
func Describe(b *domain.Bundle) domain.BundleInfo {
	modelType := fmt.Sprintf("%T", b.Model)
	if d, ok := b.Model.(domain.ModelDescriber); ok {
		modelType = d.ModelType()
	}
	return domain.BundleInfo{
		Version:       b.Version,
		Direction:     b.Direction,
		FeatureNames:  b.Manifest.Names(),
		ScaledColumns: b.Scaler.ExpectedFeatureNames(),
		ModelType:     modelType,
		LoadedAt:      b.LoadedAt,
	}
}
