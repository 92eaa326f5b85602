package domain

import (
	"context"
)

// ArtifactRepository loads the artifacts of one training run.
// This follows the Dependency Inversion Principle - domain defines the interface
type ArtifactRepository interface {
	// LoadArtifacts returns the artifact set for version, or the newest one when version is empty
	LoadArtifacts(ctx context.Context, version string) (ArtifactSet, error)

	// Health checks the backing store
	Health(ctx context.Context) error
}
