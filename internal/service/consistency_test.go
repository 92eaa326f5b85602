package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/fixture"
	"github.com/smartcity/tripduration/internal/regressor"
	"github.com/smartcity/tripduration/internal/service"
)

func TestCheckConsistency(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		r := service.CheckConsistency([]string{"a", "b", "c"}, []string{"a", "b", "c"})
		assert.True(t, r.Consistent)
		assert.Empty(t, r.Mismatches())
		assert.Len(t, r.Positions, 3)
	})

	t.Run("same names reordered", func(t *testing.T) {
		r := service.CheckConsistency([]string{"a", "c", "b"}, []string{"a", "b", "c"})
		assert.False(t, r.Consistent)
		mm := r.Mismatches()
		require.Len(t, mm, 2)
		assert.Equal(t, service.PositionDiff{Index: 1, ModelName: "c", ManifestName: "b"}, mm[0])
		assert.Equal(t, 2, mm[1].Index)
	})

	t.Run("different lengths", func(t *testing.T) {
		r := service.CheckConsistency([]string{"a", "b"}, []string{"a", "b", "c"})
		assert.False(t, r.Consistent)
		assert.Equal(t, 2, r.ModelCount)
		assert.Equal(t, 3, r.ManifestCount)
		mm := r.Mismatches()
		require.Len(t, mm, 1)
		assert.Equal(t, "", mm[0].ModelName)
		assert.Equal(t, "c", mm[0].ManifestName)
	})
}

func fixtureSet(t *testing.T) domain.ArtifactSet {
	t.Helper()
	set, err := fixture.Artifacts()
	require.NoError(t, err)
	return set
}

func TestNewBundleAcceptsFixture(t *testing.T) {
	b, report, err := service.NewBundle(fixtureSet(t))
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.True(t, report.ModelNames)
	assert.Empty(t, report.MissingImportant)
	assert.Empty(t, report.Underivable)
	assert.Equal(t, fixture.Version, b.Version)
	assert.Equal(t, domain.DirectionArctan, b.Direction)
	assert.Equal(t, domain.DefaultFeatureNames, b.Manifest.Names())
}

func TestNewBundleRejectsReorderedManifest(t *testing.T) {
	set := fixtureSet(t)
	names := append([]string(nil), set.FeatureNames...)
	names[0], names[1] = names[1], names[0]
	set.FeatureNames = names

	_, report, err := service.NewBundle(set)
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)
	require.NotNil(t, report.Features)
	assert.Len(t, report.Features.Mismatches(), 2)
}

func TestNewBundleRejectsScalerOutsideManifest(t *testing.T) {
	set := fixtureSet(t)
	set.Scaler.Columns = append(append([]string(nil), set.Scaler.Columns...), "pickup_year")
	set.Scaler.Mean = append(append([]float64(nil), set.Scaler.Mean...), 2016)
	set.Scaler.Scale = append(append([]float64(nil), set.Scaler.Scale...), 1)

	_, report, err := service.NewBundle(set)
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)
	assert.Equal(t, []string{"pickup_year"}, report.ScalerOutsideManifest)
}

func TestNewBundleRejectsDegenerateScaler(t *testing.T) {
	set := fixtureSet(t)
	set.Scaler.Scale = append([]float64(nil), set.Scaler.Scale...)
	set.Scaler.Scale[0] = -1

	_, report, err := service.NewBundle(set)
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)
	assert.Contains(t, report.ScalerError, "degenerate scaler")
}

func TestNewBundleRejectsBadInput(t *testing.T) {
	set := fixtureSet(t)
	set.Direction = "sideways"
	_, _, err := service.NewBundle(set)
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)

	set = fixtureSet(t)
	set.Model = nil
	_, _, err = service.NewBundle(set)
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)

	set = fixtureSet(t)
	set.FeatureNames = nil
	_, _, err = service.NewBundle(set)
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)
}

func TestNewBundleWarnsOnUnnamedModelAndGaps(t *testing.T) {
	set := fixtureSet(t)
	set.FeatureNames = append(append([]string(nil), set.FeatureNames...), "trip_cluster")
	model, err := regressor.NewLinear(nil, 6, make([]float64, len(set.FeatureNames)))
	require.NoError(t, err)
	set.Model = model

	_, report, err := service.NewBundle(set)
	require.NoError(t, err)
	assert.False(t, report.ModelNames)
	assert.Equal(t, []string{"trip_cluster"}, report.Underivable)
	assert.Len(t, report.Warnings(), 2)
}

func TestCheckImportantColumns(t *testing.T) {
	m, err := domain.NewFeatureManifest([]string{domain.FeatureDistanceKM, domain.FeatureVendorID})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.FeaturePickupHour, domain.FeatureRushHour}, service.CheckImportantColumns(m))
}

func TestDescribe(t *testing.T) {
	info := service.Describe(fixtureBundle(t))
	assert.Equal(t, fixture.Version, info.Version)
	assert.Equal(t, "linear", info.ModelType)
	assert.Equal(t, domain.DefaultScaledColumns, info.ScaledColumns)
}
