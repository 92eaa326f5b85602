// Package repository holds the decoding shared by every artifact store.
package repository

import (
	"encoding/json"
	"fmt"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/regressor"
)

// RawArtifacts is one training run as stored: descriptor fields plus three JSON documents
type RawArtifacts struct {
	Version      string
	Direction    string
	FeatureNames []byte
	Scaler       []byte
	Model        []byte
}

// Decode turns stored artifacts into an ArtifactSet. Every failure wraps domain.ErrArtifactLoad.
func Decode(raw RawArtifacts, opts regressor.Options) (domain.ArtifactSet, error) {
	if raw.Version == "" {
		return domain.ArtifactSet{}, fmt.Errorf("%w: artifacts have no version", domain.ErrArtifactLoad)
	}

	var names []string
	if err := json.Unmarshal(raw.FeatureNames, &names); err != nil {
		return domain.ArtifactSet{}, fmt.Errorf("%w: %s: feature names: %v", domain.ErrArtifactLoad, raw.Version, err)
	}

	var scaler domain.ScalerParams
	if err := json.Unmarshal(raw.Scaler, &scaler); err != nil {
		return domain.ArtifactSet{}, fmt.Errorf("%w: %s: scaler: %v", domain.ErrArtifactLoad, raw.Version, err)
	}

	model, err := regressor.Decode(raw.Model, opts)
	if err != nil {
		return domain.ArtifactSet{}, fmt.Errorf("%w: %s: %v", domain.ErrArtifactLoad, raw.Version, err)
	}

	direction := domain.DirectionConvention(raw.Direction)
	if direction != "" && !direction.Valid() {
		return domain.ArtifactSet{}, fmt.Errorf("%w: %s: unknown direction convention %q", domain.ErrArtifactLoad, raw.Version, raw.Direction)
	}

	return domain.ArtifactSet{
		Version:      raw.Version,
		Direction:    direction,
		FeatureNames: names,
		Scaler:       scaler,
		Model:        model,
	}, nil
}

// Encode is the inverse of Decode; the model must implement regressor.Encoder
func Encode(set domain.ArtifactSet) (RawArtifacts, error) {
	names, err := json.MarshalIndent(set.FeatureNames, "", "  ")
	if err != nil {
		return RawArtifacts{}, fmt.Errorf("repository: feature names: %w", err)
	}
	scaler, err := json.MarshalIndent(set.Scaler, "", "  ")
	if err != nil {
		return RawArtifacts{}, fmt.Errorf("repository: scaler: %w", err)
	}
	model, err := regressor.Encode(set.Model)
	if err != nil {
		return RawArtifacts{}, err
	}
	return RawArtifacts{
		Version:      set.Version,
		Direction:    string(set.Direction),
		FeatureNames: names,
		Scaler:       scaler,
		Model:        model,
	}, nil
}
