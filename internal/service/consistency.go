package service

import (
	"fmt"

	"github.com/smartcity/tripduration/internal/domain"
)

// PositionDiff compares one column position between model and manifest
type PositionDiff struct {
	Index        int    `json:"index"`
	ModelName    string `json:"model_name"`
	ManifestName string `json:"manifest_name"`
	Match        bool   `json:"match"`
}

// ConsistencyReport is the index-aligned diff of model feature names against the manifest.
// Same names in a different order is inconsistent: it yields plausible but wrong predictions.
type ConsistencyReport struct {
	Consistent    bool           `json:"consistent"`
	ModelCount    int            `json:"model_count"`
	ManifestCount int            `json:"manifest_count"`
	Positions     []PositionDiff `json:"positions"`
}

// Mismatches returns only the differing positions
func (r ConsistencyReport) Mismatches() []PositionDiff {
	var out []PositionDiff
	for _, p := range r.Positions {
		if !p.Match {
			out = append(out, p)
		}
	}
	return out
}

// CheckConsistency diffs modelNames against manifestNames position by position
func CheckConsistency(modelNames, manifestNames []string) ConsistencyReport {
	n := max(len(modelNames), len(manifestNames))
	r := ConsistencyReport{
		Consistent:    len(modelNames) == len(manifestNames),
		ModelCount:    len(modelNames),
		ManifestCount: len(manifestNames),
		Positions:     make([]PositionDiff, n),
	}
	for i := 0; i < n; i++ {
		d := PositionDiff{Index: i}
		if i < len(modelNames) {
			d.ModelName = modelNames[i]
		}
		if i < len(manifestNames) {
			d.ManifestName = manifestNames[i]
		}
		d.Match = i < len(modelNames) && i < len(manifestNames) && d.ModelName == d.ManifestName
		if !d.Match {
			r.Consistent = false
		}
		r.Positions[i] = d
	}
	return r
}

// CheckScalerCoverage returns scaler columns that are not in the manifest
func CheckScalerCoverage(scaler *domain.ScalerArtifact, manifest *domain.FeatureManifest) []string {
	var outside []string
	for _, c := range scaler.ExpectedFeatureNames() {
		if !manifest.Contains(c) {
			outside = append(outside, c)
		}
	}
	return outside
}

// CheckImportantColumns returns the important columns the manifest lacks
func CheckImportantColumns(manifest *domain.FeatureManifest) []string {
	var missing []string
	for _, c := range domain.ImportantColumns {
		if !manifest.Contains(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// CheckDerivable returns manifest columns the deriver never produces; they will always be zero-filled
func CheckDerivable(manifest *domain.FeatureManifest) []string {
	known := make(map[string]struct{}, len(DerivableFeatures))
	for _, f := range DerivableFeatures {
		known[f] = struct{}{}
	}
	var gaps []string
	for _, name := range manifest.Names() {
		if _, ok := known[name]; !ok {
			gaps = append(gaps, name)
		}
	}
	return gaps
}

// ArtifactReport collects every offline check over an artifact triple
type ArtifactReport struct {
	Version     string             `json:"version"`
	ModelNames  bool               `json:"model_exposes_feature_names"`
	Features    *ConsistencyReport `json:"features,omitempty"`
	ScalerError string             `json:"scaler_error,omitempty"`
	// ScalerOutsideManifest breaks the scaler-subset invariant
	ScalerOutsideManifest []string `json:"scaler_outside_manifest,omitempty"`
	MissingImportant      []string `json:"missing_important,omitempty"`
	Underivable           []string `json:"underivable,omitempty"`
}

// Errors lists the problems that make the triple unusable
func (r ArtifactReport) Errors() []string {
	var errs []string
	if r.Features != nil && !r.Features.Consistent {
		errs = append(errs, fmt.Sprintf("model expects %d features, manifest has %d, %d positions differ",
			r.Features.ModelCount, r.Features.ManifestCount, len(r.Features.Mismatches())))
	}
	if r.ScalerError != "" {
		errs = append(errs, r.ScalerError)
	}
	if len(r.ScalerOutsideManifest) > 0 {
		errs = append(errs, fmt.Sprintf("scaler columns not in manifest: %v", r.ScalerOutsideManifest))
	}
	return errs
}

// Warnings lists problems that degrade but do not corrupt predictions
func (r ArtifactReport) Warnings() []string {
	var warns []string
	if !r.ModelNames {
		warns = append(warns, "model does not expose feature names; column order cannot be verified")
	}
	if len(r.MissingImportant) > 0 {
		warns = append(warns, fmt.Sprintf("manifest lacks important columns: %v", r.MissingImportant))
	}
	if len(r.Underivable) > 0 {
		warns = append(warns, fmt.Sprintf("manifest columns that will be zero-filled: %v", r.Underivable))
	}
	return warns
}

// OK is true when there are no errors
func (r ArtifactReport) OK() bool {
	return len(r.Errors()) == 0
}

// InspectArtifacts runs every consistency check over one artifact triple
func InspectArtifacts(version string, manifest *domain.FeatureManifest, scaler *domain.ScalerArtifact, model domain.Model) ArtifactReport {
	r := ArtifactReport{
		Version:               version,
		ScalerOutsideManifest: CheckScalerCoverage(scaler, manifest),
		MissingImportant:      CheckImportantColumns(manifest),
		Underivable:           CheckDerivable(manifest),
	}
	if err := scaler.Validate(); err != nil {
		r.ScalerError = err.Error()
	}
	if namer, ok := model.(domain.FeatureNamer); ok {
		if names := namer.FeatureNames(); names != nil {
			c := CheckConsistency(names, manifest.Names())
			r.ModelNames = true
			r.Features = &c
		}
	}
	return r
}
