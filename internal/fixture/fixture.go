// Package fixture builds a small, self-consistent artifact set for demo mode and tests.
// The scaler is fitted on features derived from a handful of Manhattan trips with the
// same deriver the server uses, so the triple is consistent by construction.
package fixture

import (
	"fmt"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/regressor"
	"github.com/smartcity/tripduration/internal/service"
)

// Version of the fixture bundle
const Version = "fixture-v1"

type sample struct {
	vendor, passengers int
	pickup             string
	pLat, pLon         float64
	dLat, dLon         float64
}

var samples = []sample{
	{2, 1, "2016-03-14 17:24:55", 40.767937, -73.982155, 40.765602, -73.964630},
	{1, 1, "2016-06-12 00:43:35", 40.738564, -73.980415, 40.731152, -73.999481},
	{2, 1, "2016-01-19 11:35:24", 40.763939, -73.979027, 40.710087, -74.005333},
	{2, 1, "2016-04-06 19:32:31", 40.719971, -74.010040, 40.706718, -74.012268},
	{2, 1, "2016-03-26 13:30:55", 40.793209, -73.973053, 40.782520, -73.972923},
	{2, 6, "2016-01-30 22:01:40", 40.742195, -73.982857, 40.749184, -73.992081},
	{1, 4, "2016-06-17 22:34:59", 40.757839, -73.969017, 40.765896, -73.957405},
	{2, 1, "2016-05-21 07:54:58", 40.797779, -73.969276, 40.760559, -73.922470},
	{1, 1, "2016-05-27 23:12:23", 40.738400, -73.999481, 40.732815, -73.985786},
	{2, 2, "2016-03-10 21:45:01", 40.744339, -73.981049, 40.789989, -73.973000},
}

// coefficients of the fixture linear model, keyed by feature; everything else is 0
var coefficients = map[string]float64{
	domain.FeatureDistanceKM:     0.42,
	domain.FeaturePassengerCount: 0.01,
	domain.FeaturePickupHour:     0.03,
	domain.FeatureRushHour:       0.18,
	domain.FeatureNight:          -0.12,
	domain.FeatureWeekend:        -0.08,
}

// intercept is log1p of roughly eleven minutes
const intercept = 6.5

// Trips returns the sample trips the scaler is fitted on
func Trips() []domain.RawTrip {
	trips := make([]domain.RawTrip, len(samples))
	for i, s := range samples {
		s := s
		trips[i] = domain.RawTrip{
			VendorID:         &s.vendor,
			PickupDatetime:   s.pickup,
			PassengerCount:   &s.passengers,
			PickupLatitude:   &s.pLat,
			PickupLongitude:  &s.pLon,
			DropoffLatitude:  &s.dLat,
			DropoffLongitude: &s.dLon,
		}
	}
	return trips
}

// FitScaler derives features for the sample trips and fits a scaler on columns
func FitScaler(direction domain.DirectionConvention, columns []string) (*domain.ScalerArtifact, error) {
	deriver := service.NewFeatureDeriver(direction)
	rows := make([][]float64, 0, len(samples))
	for i, trip := range Trips() {
		derived, err := deriver.Derive(trip)
		if err != nil {
			return nil, fmt.Errorf("fixture: sample %d: %w", i, err)
		}
		row := make([]float64, len(columns))
		for j, c := range columns {
			row[j] = derived[c]
		}
		rows = append(rows, row)
	}
	return domain.FitScaler(columns, rows)
}

// Artifacts returns the fixture artifact set over the reference feature order
func Artifacts() (domain.ArtifactSet, error) {
	scaler, err := FitScaler(domain.DirectionArctan, domain.DefaultScaledColumns)
	if err != nil {
		return domain.ArtifactSet{}, err
	}

	names := domain.DefaultFeatureNames
	coefs := make([]float64, len(names))
	for i, name := range names {
		coefs[i] = coefficients[name]
	}
	model, err := regressor.NewLinear(names, intercept, coefs)
	if err != nil {
		return domain.ArtifactSet{}, err
	}

	return domain.ArtifactSet{
		Version:      Version,
		Direction:    domain.DirectionArctan,
		FeatureNames: append([]string(nil), names...),
		Scaler:       scaler.Params(),
		Model:        model,
	}, nil
}
