package domain

import (
	"fmt"
	"math"
)

// Feature names produced by the deriver
const (
	FeatureVendorID         = "vendor_id"
	FeaturePassengerCount   = "passenger_count"
	FeaturePickupLongitude  = "pickup_longitude"
	FeaturePickupLatitude   = "pickup_latitude"
	FeatureDropoffLongitude = "dropoff_longitude"
	FeatureDropoffLatitude  = "dropoff_latitude"
	FeatureStoreAndFwdFlag  = "store_and_fwd_flag"
	FeaturePickupYear       = "pickup_year"
	FeaturePickupMonth      = "pickup_month"
	FeaturePickupDay        = "pickup_day"
	FeaturePickupHour       = "pickup_hour"
	FeaturePickupMinute     = "pickup_minute"
	FeaturePickupWeekday    = "pickup_weekday"
	FeaturePickupYday       = "pickup_yday"
	FeatureWeekend          = "pickup_weekend"
	FeatureRushHour         = "is_rush_hour"
	FeatureNight            = "is_night"
	FeatureDistanceKM       = "distance_km"
	FeatureDirection        = "direction"
	FeatureCenterLatitude   = "center_latitude"
	FeatureCenterLongitude  = "center_longitude"
)

// DefaultFeatureNames is the column order of the reference training run
var DefaultFeatureNames = []string{
	FeatureVendorID, FeaturePassengerCount,
	FeaturePickupLongitude, FeaturePickupLatitude,
	FeatureDropoffLongitude, FeatureDropoffLatitude, FeatureStoreAndFwdFlag,
	FeaturePickupMonth, FeaturePickupDay, FeaturePickupHour,
	FeaturePickupMinute, FeaturePickupWeekday, FeaturePickupYday, FeatureWeekend,
	FeatureRushHour, FeatureNight,
	FeatureDistanceKM, FeatureDirection,
	FeatureCenterLatitude, FeatureCenterLongitude,
}

// DefaultScaledColumns are the continuous columns the reference scaler was fitted on
var DefaultScaledColumns = []string{
	FeatureVendorID, FeaturePassengerCount, FeaturePickupLongitude, FeaturePickupLatitude,
	FeatureDropoffLongitude, FeatureDropoffLatitude, FeaturePickupHour,
	FeaturePickupWeekday, FeaturePickupMonth, FeatureDistanceKM, FeatureDirection,
	FeatureCenterLatitude, FeatureCenterLongitude,
}

// ImportantColumns must be present in every manifest; without them predictions are meaningless
var ImportantColumns = []string{FeatureDistanceKM, FeaturePickupHour, FeatureRushHour}

// SchemaGapWarning marks a manifest column the deriver could not produce.
// The column is zero-filled; the warning signals drift between model and serving code.
type SchemaGapWarning struct {
	Feature string `json:"feature"`
}

func (w SchemaGapWarning) String() string {
	return fmt.Sprintf("schema gap: %q missing from derived features, filled with 0", w.Feature)
}

// FeatureManifest is the ordered column list a model and scaler were fitted against
type FeatureManifest struct {
	names []string
	index map[string]int
}

// NewFeatureManifest rejects empty, blank or duplicate names
func NewFeatureManifest(names []string) (*FeatureManifest, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: feature manifest is empty", ErrArtifactLoad)
	}
	m := &FeatureManifest{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: feature manifest has an empty name at index %d", ErrArtifactLoad, i)
		}
		if prev, dup := m.index[name]; dup {
			return nil, fmt.Errorf("%w: feature %q appears at index %d and %d", ErrArtifactLoad, name, prev, i)
		}
		m.names[i] = name
		m.index[name] = i
	}
	return m, nil
}

// Names returns a copy of the ordered names
func (m *FeatureManifest) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m *FeatureManifest) Len() int { return len(m.names) }

func (m *FeatureManifest) Name(i int) string { return m.names[i] }

// Index returns the position of name
func (m *FeatureManifest) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Contains reports whether name is a manifest column
func (m *FeatureManifest) Contains(name string) bool {
	_, ok := m.index[name]
	return ok
}

// FeatureVector is a fixed-size row laid out in manifest order.
// Its columns cannot be added, removed or reordered; only values change.
type FeatureVector struct {
	manifest *FeatureManifest
	values   []float64
}

// NewFeatureVector returns a zero-valued vector for the manifest
func NewFeatureVector(m *FeatureManifest) FeatureVector {
	return FeatureVector{manifest: m, values: make([]float64, m.Len())}
}

func (v FeatureVector) Manifest() *FeatureManifest { return v.manifest }

func (v FeatureVector) Len() int { return len(v.values) }

func (v FeatureVector) At(i int) float64 { return v.values[i] }

func (v FeatureVector) SetAt(i int, value float64) { v.values[i] = value }

// Get returns the value of a named column
func (v FeatureVector) Get(name string) (float64, bool) {
	i, ok := v.manifest.Index(name)
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Set updates a named column; it reports false when the column is not in the manifest
func (v FeatureVector) Set(name string, value float64) bool {
	i, ok := v.manifest.Index(name)
	if !ok {
		return false
	}
	v.values[i] = value
	return true
}

// Values returns a copy of the row in manifest order
func (v FeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Names returns the column names in order
func (v FeatureVector) Names() []string { return v.manifest.Names() }

// Clone returns an independent copy sharing the manifest
func (v FeatureVector) Clone() FeatureVector {
	return FeatureVector{manifest: v.manifest, values: v.Values()}
}

// Finite reports the first non-finite column, if any
func (v FeatureVector) Finite() (string, bool) {
	for i, x := range v.values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return v.manifest.names[i], false
		}
	}
	return "", true
}
