// Package filesystem loads artifact bundles from a directory described by bundle.yml.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/regressor"
	"github.com/smartcity/tripduration/internal/repository"
)

// DescriptorFile is the bundle descriptor expected in every artifact directory
const DescriptorFile = "bundle.yml"

// Descriptor names the files of one training run
type Descriptor struct {
	Version      string `yaml:"version" validate:"required"`
	Direction    string `yaml:"direction_convention" validate:"omitempty,oneof=arctan bearing"`
	FeatureNames string `yaml:"feature_names" validate:"required"`
	Scaler       string `yaml:"scaler" validate:"required"`
	Model        string `yaml:"model" validate:"required"`
}

// Repository implements domain.ArtifactRepository over a directory.
// An empty version loads <dir>/bundle.yml; otherwise <dir>/<version>/bundle.yml.
type Repository struct {
	dir      string
	opts     regressor.Options
	validate *validator.Validate
}

// NewRepository creates a filesystem repository rooted at dir
func NewRepository(dir string, opts regressor.Options) *Repository {
	return &Repository{dir: dir, opts: opts, validate: validator.New()}
}

// LoadArtifacts reads and decodes the bundle for version
func (r *Repository) LoadArtifacts(ctx context.Context, version string) (domain.ArtifactSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.ArtifactSet{}, err
	}
	raw, err := r.ReadRaw(version)
	if err != nil {
		return domain.ArtifactSet{}, err
	}
	return repository.Decode(raw, r.opts)
}

// ReadRaw reads the bundle files for version without decoding them
func (r *Repository) ReadRaw(version string) (repository.RawArtifacts, error) {
	dir := r.dir
	if version != "" {
		dir = filepath.Join(r.dir, version)
	}
	desc, err := r.readDescriptor(dir)
	if err != nil {
		return repository.RawArtifacts{}, err
	}
	if version != "" && desc.Version != version {
		return repository.RawArtifacts{}, fmt.Errorf("%w: filesystem: %s describes version %q, want %q",
			domain.ErrArtifactLoad, filepath.Join(dir, DescriptorFile), desc.Version, version)
	}

	raw := repository.RawArtifacts{Version: desc.Version, Direction: desc.Direction}
	files := []struct {
		name string
		dst  *[]byte
	}{
		{desc.FeatureNames, &raw.FeatureNames},
		{desc.Scaler, &raw.Scaler},
		{desc.Model, &raw.Model},
	}
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return repository.RawArtifacts{}, fmt.Errorf("%w: filesystem: %v", domain.ErrArtifactLoad, err)
		}
		*f.dst = data
	}
	return raw, nil
}

func (r *Repository) readDescriptor(dir string) (Descriptor, error) {
	path := filepath.Join(dir, DescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: filesystem: %v", domain.ErrArtifactLoad, err)
	}
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return Descriptor{}, fmt.Errorf("%w: filesystem: failed to parse %s: %v", domain.ErrArtifactLoad, path, err)
	}
	if err := r.validate.Struct(desc); err != nil {
		return Descriptor{}, fmt.Errorf("%w: filesystem: invalid %s: %v", domain.ErrArtifactLoad, path, err)
	}
	return desc, nil
}

// WriteBundle writes raw artifacts into dir under the default file names
func WriteBundle(dir string, raw repository.RawArtifacts) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filesystem: %w", err)
	}
	desc := Descriptor{
		Version:      raw.Version,
		Direction:    raw.Direction,
		FeatureNames: "feature_names.json",
		Scaler:       "scaler.json",
		Model:        "model.json",
	}
	descData, err := yaml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("filesystem: failed to encode descriptor: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{DescriptorFile, descData},
		{desc.FeatureNames, raw.FeatureNames},
		{desc.Scaler, raw.Scaler},
		{desc.Model, raw.Model},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.data, 0o644); err != nil {
			return fmt.Errorf("filesystem: %w", err)
		}
	}
	return nil
}

// Health checks that the artifact directory is readable
func (r *Repository) Health(ctx context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("filesystem: health check failed: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("filesystem: health check failed: %s is not a directory", r.dir)
	}
	return nil
}
