package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/regressor"
	"github.com/smartcity/tripduration/internal/repository"
)

// Schema creates the artifact table
const Schema = `
CREATE TABLE IF NOT EXISTS model_artifacts (
	version              TEXT PRIMARY KEY,
	direction_convention TEXT NOT NULL DEFAULT 'arctan',
	feature_names        JSONB NOT NULL,
	scaler               JSONB NOT NULL,
	model                JSONB NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// loadQuery picks the requested version, or the newest row when $1 is empty
const loadQuery = `
	SELECT version, direction_convention, feature_names, scaler, model
	FROM model_artifacts
	WHERE $1 = '' OR version = $1
	ORDER BY created_at DESC
	LIMIT 1
`

// PostgresRepository implements domain.ArtifactRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
	opts regressor.Options
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool, opts regressor.Options) *PostgresRepository {
	return &PostgresRepository{pool: pool, opts: opts}
}

// EnsureSchema creates missing tables
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// LoadArtifacts reads one artifact row and decodes it
func (r *PostgresRepository) LoadArtifacts(ctx context.Context, version string) (domain.ArtifactSet, error) {
	var raw repository.RawArtifacts
	err := r.pool.QueryRow(ctx, loadQuery, version).Scan(
		&raw.Version, &raw.Direction, &raw.FeatureNames, &raw.Scaler, &raw.Model,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		if version == "" {
			return domain.ArtifactSet{}, fmt.Errorf("%w: postgres: model_artifacts is empty", domain.ErrArtifactLoad)
		}
		return domain.ArtifactSet{}, fmt.Errorf("%w: postgres: no artifacts for version %q", domain.ErrArtifactLoad, version)
	}
	if err != nil {
		return domain.ArtifactSet{}, fmt.Errorf("%w: postgres: failed to query artifacts: %w", domain.ErrArtifactLoad, err)
	}

	return repository.Decode(raw, r.opts)
}

// SaveArtifacts stores a training run, replacing any row with the same version
func (r *PostgresRepository) SaveArtifacts(ctx context.Context, raw repository.RawArtifacts) error {
	query := `
		INSERT INTO model_artifacts (version, direction_convention, feature_names, scaler, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (version) DO UPDATE SET
			direction_convention = EXCLUDED.direction_convention,
			feature_names = EXCLUDED.feature_names,
			scaler = EXCLUDED.scaler,
			model = EXCLUDED.model,
			created_at = EXCLUDED.created_at
	`

	direction := raw.Direction
	if direction == "" {
		direction = string(domain.DirectionArctan)
	}

	_, err := r.pool.Exec(ctx, query,
		raw.Version, direction, string(raw.FeatureNames), string(raw.Scaler), string(raw.Model), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save artifacts %q: %w", raw.Version, err)
	}

	return nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
