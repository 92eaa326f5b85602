package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/fixture"
)

// MockRepository implements domain.ArtifactRepository for demo mode and tests.
// It serves the built-in fixture bundle instead of trained artifacts.
type MockRepository struct{}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// LoadArtifacts returns the fixture artifacts; only the fixture version exists
func (r *MockRepository) LoadArtifacts(ctx context.Context, version string) (domain.ArtifactSet, error) {
	if version != "" && version != fixture.Version {
		return domain.ArtifactSet{}, fmt.Errorf("%w: mock: only version %q is available, got %q",
			domain.ErrArtifactLoad, fixture.Version, version)
	}
	set, err := fixture.Artifacts()
	if err != nil {
		return domain.ArtifactSet{}, fmt.Errorf("%w: mock: %v", domain.ErrArtifactLoad, err)
	}
	log.Printf("Serving fixture bundle %q, predictions are not from a trained model", set.Version)
	return set, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
