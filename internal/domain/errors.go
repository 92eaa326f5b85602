package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; every pipeline error wraps exactly one of them.
var (
	ErrMalformedInput   = errors.New("malformed input")
	ErrDegenerateScaler = errors.New("degenerate scaler")
	ErrScalingMismatch  = errors.New("scaling mismatch")
	ErrModelInvocation  = errors.New("model invocation failed")
	ErrArtifactLoad     = errors.New("artifact load failed")
)

// Stage names a step of the prediction pipeline
type Stage string

const (
	StageDeriver      Stage = "deriver"
	StageAligner      Stage = "aligner"
	StageStandardizer Stage = "standardizer"
	StagePredictor    Stage = "predictor"
)

// MalformedInputError reports a raw trip field that is missing or unparseable
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrMalformedInput) match
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// StageError tags an error with the pipeline stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WrapStage returns nil for a nil error
func WrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded on err, or "" when err did not come from the pipeline
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
