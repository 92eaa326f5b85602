package domain

import "time"

// PickupLayout is the canonical pickup_datetime format
const PickupLayout = "2006-01-02 15:04:05"

// RawTrip is the loosely-structured input of a prediction.
// Numeric fields are pointers so a missing value is distinguishable from zero.
type RawTrip struct {
	VendorID         *int     `json:"vendor_id" validate:"required,gte=1,lte=2"`
	PickupDatetime   string   `json:"pickup_datetime" validate:"required"`
	PassengerCount   *int     `json:"passenger_count" validate:"required,gte=1,lte=6"`
	PickupLongitude  *float64 `json:"pickup_longitude" validate:"required,gte=-180,lte=180"`
	PickupLatitude   *float64 `json:"pickup_latitude" validate:"required,gte=-90,lte=90"`
	DropoffLongitude *float64 `json:"dropoff_longitude" validate:"required,gte=-180,lte=180"`
	DropoffLatitude  *float64 `json:"dropoff_latitude" validate:"required,gte=-90,lte=90"`
	StoreAndFwdFlag  *string  `json:"store_and_fwd_flag,omitempty" validate:"omitempty,oneof=Y N"`
}

// PredictionResult is the user-facing outcome of one prediction
type PredictionResult struct {
	ID              string  `json:"prediction_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	DurationMinutes float64 `json:"duration_minutes"`
	DurationText    string  `json:"duration_text"`
	DistanceKM      float64 `json:"distance_km"`
	IsRushHour      bool    `json:"is_rush_hour"`
	IsWeekend       bool    `json:"is_weekend"`
	ModelVersion    string  `json:"model_version"`
}

// PredictionResponse wraps a result in the success envelope
type PredictionResponse struct {
	Success bool `json:"success"`
	PredictionResult
}

// BatchPredictionRequest carries several trips scored in one model call
type BatchPredictionRequest struct {
	Trips []RawTrip `json:"trips" validate:"required,min=1,max=1000"`
}

// BatchPredictionResponse wraps batch results
type BatchPredictionResponse struct {
	Success     bool               `json:"success"`
	Predictions []PredictionResult `json:"predictions"`
	Count       int                `json:"count"`
}

// FeatureExplanation is one row of the explain table
type FeatureExplanation struct {
	Index  int     `json:"index"`
	Name   string  `json:"name"`
	Raw    float64 `json:"raw"`
	Scaled float64 `json:"scaled"`
	Scaler bool    `json:"scaled_by_scaler"`
}

// Explanation shows every model input before and after scaling
type Explanation struct {
	Success    bool                 `json:"success"`
	Prediction PredictionResult     `json:"prediction"`
	LogOutput  float64              `json:"log_prediction"`
	Features   []FeatureExplanation `json:"features"`
	SchemaGaps []string             `json:"schema_gaps,omitempty"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
}

// PredictionEvent is published after every successful prediction
type PredictionEvent struct {
	ID              string    `json:"prediction_id"`
	ModelVersion    string    `json:"model_version"`
	PickupDatetime  string    `json:"pickup_datetime"`
	DistanceKM      float64   `json:"distance_km"`
	DurationSeconds float64   `json:"duration_seconds"`
	SchemaGaps      int       `json:"schema_gaps"`
	Timestamp       time.Time `json:"timestamp"`
}
