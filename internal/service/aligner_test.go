package service_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/service"
)

func TestAlignFollowsManifestOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	derived, err := service.NewFeatureDeriver(domain.DirectionArctan).Derive(sampleTrip())
	require.NoError(t, err)

	for iter := 0; iter < 200; iter++ {
		// random subset of derivable names plus a few names the deriver never produces
		var names []string
		for _, n := range service.DerivableFeatures {
			if rng.Intn(2) == 0 {
				names = append(names, n)
			}
		}
		unknown := rng.Intn(4)
		for k := 0; k < unknown; k++ {
			names = append(names, fmt.Sprintf("unknown_%d", k))
		}
		if len(names) == 0 {
			names = append(names, domain.FeatureDistanceKM)
		}
		rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

		manifest, err := domain.NewFeatureManifest(names)
		require.NoError(t, err)

		vec, gaps, err := service.Align(derived, manifest)
		require.NoError(t, err)
		require.Equal(t, names, vec.Names(), "iteration %d", iter)

		var wantGaps []string
		for i, n := range names {
			if v, ok := derived[n]; ok {
				assert.Equal(t, v, vec.At(i))
			} else {
				assert.Equal(t, 0.0, vec.At(i))
				wantGaps = append(wantGaps, n)
			}
		}
		gotGaps := make([]string, 0, len(gaps))
		for _, g := range gaps {
			gotGaps = append(gotGaps, g.Feature)
		}
		if len(wantGaps) == 0 {
			assert.Empty(t, gotGaps)
		} else {
			assert.Equal(t, wantGaps, gotGaps)
		}
	}
}

func TestAlignDropsExtrasSilently(t *testing.T) {
	manifest, err := domain.NewFeatureManifest(domain.DefaultFeatureNames)
	require.NoError(t, err)

	derived, err := service.NewFeatureDeriver(domain.DirectionArctan).Derive(sampleTrip())
	require.NoError(t, err)
	require.Contains(t, derived, domain.FeaturePickupYear)

	vec, gaps, err := service.Align(derived, manifest)
	require.NoError(t, err)
	assert.Empty(t, gaps)
	assert.Equal(t, len(domain.DefaultFeatureNames), vec.Len())
	_, ok := vec.Get(domain.FeaturePickupYear)
	assert.False(t, ok)
}

func TestAlignRejectsNonFiniteValues(t *testing.T) {
	manifest, err := domain.NewFeatureManifest([]string{"a", "b"})
	require.NoError(t, err)

	_, _, err = service.Align(map[string]float64{"a": 1, "b": math.NaN()}, manifest)
	assert.ErrorIs(t, err, domain.ErrMalformedInput)

	_, _, err = service.Align(map[string]float64{"a": math.Inf(1)}, manifest)
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestManifestRejectsDuplicates(t *testing.T) {
	_, err := domain.NewFeatureManifest([]string{"a", "b", "a"})
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)

	_, err = domain.NewFeatureManifest(nil)
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)

	_, err = domain.NewFeatureManifest([]string{"a", ""})
	assert.ErrorIs(t, err, domain.ErrArtifactLoad)
}
