package service

import (
	"strings"
	"time"

	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/pkg/utils"
)

// pickupLayouts are tried in order; the last two are what browser datetime inputs send
var pickupLayouts = []string{
	domain.PickupLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// DerivableFeatures lists every feature FeatureDeriver produces
var DerivableFeatures = []string{
	domain.FeatureVendorID, domain.FeaturePassengerCount,
	domain.FeaturePickupLongitude, domain.FeaturePickupLatitude,
	domain.FeatureDropoffLongitude, domain.FeatureDropoffLatitude,
	domain.FeatureStoreAndFwdFlag,
	domain.FeaturePickupYear, domain.FeaturePickupMonth, domain.FeaturePickupDay,
	domain.FeaturePickupHour, domain.FeaturePickupMinute, domain.FeaturePickupWeekday,
	domain.FeaturePickupYday, domain.FeatureWeekend, domain.FeatureRushHour, domain.FeatureNight,
	domain.FeatureDistanceKM, domain.FeatureDirection,
	domain.FeatureCenterLatitude, domain.FeatureCenterLongitude,
}

// FeatureDeriver turns a raw trip into named engineered features.
// It is a pure function of the trip and the direction convention.
type FeatureDeriver struct {
	direction domain.DirectionConvention
}

// NewFeatureDeriver creates a deriver; an empty convention means arctan
func NewFeatureDeriver(direction domain.DirectionConvention) FeatureDeriver {
	if direction == "" {
		direction = domain.DirectionArctan
	}
	return FeatureDeriver{direction: direction}
}

// ParsePickup parses a pickup timestamp without timezone
func ParsePickup(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &domain.MalformedInputError{Field: "pickup_datetime", Reason: "is required"}
	}
	for _, layout := range pickupLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &domain.MalformedInputError{
		Field:  "pickup_datetime",
		Reason: "expected format YYYY-MM-DD HH:MM:SS, got " + s,
	}
}

// Weekday returns 0 for Monday through 6 for Sunday
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsRushHour covers the morning (7-9) and evening (17-19) peaks, inclusive
func IsRushHour(hour int) bool {
	switch {
	case hour >= 7 && hour <= 9: // Morning rush
		return true
	case hour >= 17 && hour <= 19: // Evening rush
		return true
	default:
		return false
	}
}

// IsNight is true from 22:00 through 05:59
func IsNight(hour int) bool {
	return hour >= 22 || hour <= 5
}

// IsWeekend is true on Saturday and Sunday
func IsWeekend(t time.Time) bool {
	return Weekday(t) >= 5
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Derive computes every derivable feature for trip
func (d FeatureDeriver) Derive(trip domain.RawTrip) (map[string]float64, error) {
	pickup, err := ParsePickup(trip.PickupDatetime)
	if err != nil {
		return nil, err
	}

	ints := []struct {
		field string
		v     *int
	}{
		{domain.FeatureVendorID, trip.VendorID},
		{domain.FeaturePassengerCount, trip.PassengerCount},
	}
	for _, f := range ints {
		if f.v == nil {
			return nil, &domain.MalformedInputError{Field: f.field, Reason: "is required"}
		}
	}
	floats := []struct {
		field string
		v     *float64
	}{
		{domain.FeaturePickupLongitude, trip.PickupLongitude},
		{domain.FeaturePickupLatitude, trip.PickupLatitude},
		{domain.FeatureDropoffLongitude, trip.DropoffLongitude},
		{domain.FeatureDropoffLatitude, trip.DropoffLatitude},
	}
	for _, f := range floats {
		if f.v == nil {
			return nil, &domain.MalformedInputError{Field: f.field, Reason: "is required"}
		}
	}

	pLat, pLon := *trip.PickupLatitude, *trip.PickupLongitude
	dLat, dLon := *trip.DropoffLatitude, *trip.DropoffLongitude
	hour := pickup.Hour()

	var direction float64
	if d.direction == domain.DirectionBearing {
		direction = utils.BearingDegrees(pLat, pLon, dLat, dLon)
	} else {
		direction = utils.DirectionDegrees(pLat, pLon, dLat, dLon)
	}
	centerLat, centerLon := utils.Midpoint(pLat, pLon, dLat, dLon)

	return map[string]float64{
		domain.FeatureVendorID:         float64(*trip.VendorID),
		domain.FeaturePassengerCount:   float64(*trip.PassengerCount),
		domain.FeaturePickupLongitude:  pLon,
		domain.FeaturePickupLatitude:   pLat,
		domain.FeatureDropoffLongitude: dLon,
		domain.FeatureDropoffLatitude:  dLat,
		domain.FeatureStoreAndFwdFlag:  flag(trip.StoreAndFwdFlag != nil && *trip.StoreAndFwdFlag == "Y"),

		domain.FeaturePickupYear:    float64(pickup.Year()),
		domain.FeaturePickupMonth:   float64(pickup.Month()),
		domain.FeaturePickupDay:     float64(pickup.Day()),
		domain.FeaturePickupHour:    float64(hour),
		domain.FeaturePickupMinute:  float64(pickup.Minute()),
		domain.FeaturePickupWeekday: float64(Weekday(pickup)),
		domain.FeaturePickupYday:    float64(pickup.YearDay()),
		domain.FeatureWeekend:       flag(IsWeekend(pickup)),
		domain.FeatureRushHour:      flag(IsRushHour(hour)),
		domain.FeatureNight:         flag(IsNight(hour)),

		domain.FeatureDistanceKM:      utils.GreatCircleDistanceKM(pLat, pLon, dLat, dLon),
		domain.FeatureDirection:       direction,
		domain.FeatureCenterLatitude:  centerLat,
		domain.FeatureCenterLongitude: centerLon,
	}, nil
}
