// Package service turns raw trips into duration predictions: deriver, aligner,
// standardizer and predictor stages over one immutable artifact bundle.
package service

import (
	"github.com/smartcity/tripduration/internal/domain"
)

// ArtifactRepository is re-exported from domain for convenience
type ArtifactRepository = domain.ArtifactRepository
