package manager

import (
	"errors"
	"fmt"
)

// artifactNotFoundError signals that the model file could not be located.
type artifactNotFoundError struct {
	path   string
	reason string
}

func (e artifactNotFoundError) Error() string {
	msg := "model artifact not found"
	if e.path != "" {
		msg += ": " + e.path
	}
	if e.reason != "" {
		msg += " (" + e.reason + ")"
	}
	return msg
}

// ErrArtifactNotFound constructs an artifactNotFoundError.
func ErrArtifactNotFound(path string) error { return artifactNotFoundError{path: path} }

// IsArtifactNotFound reports whether err indicates a missing model artifact.
func IsArtifactNotFound(err error) bool {
	var e artifactNotFoundError
	return errors.As(err, &e)
}

// loadError wraps any failure while constructing or warming up a handle.
type loadError struct {
	stage string
	err   error
}

func (e loadError) Error() string { return fmt.Sprintf("load model (%s): %v", e.stage, e.err) }
func (e loadError) Unwrap() error { return e.err }

// IsLoadError reports whether err came from model construction or warm-up.
func IsLoadError(err error) bool {
	var e loadError
	return errors.As(err, &e)
}

// modelUnavailableError is returned when no ready handle exists.
// The HTTP layer maps it to 503.
type modelUnavailableError struct{ state State }

func (e modelUnavailableError) Error() string {
	return "model unavailable: state=" + string(e.state)
}

// ErrModelUnavailable constructs a modelUnavailableError for the given state.
func ErrModelUnavailable(state State) error { return modelUnavailableError{state: state} }

// IsModelUnavailable reports whether err indicates the model is not ready.
func IsModelUnavailable(err error) bool {
	var e modelUnavailableError
	return errors.As(err, &e)
}

// generationError signals an engine failure or malformed engine output.
type generationError struct {
	msg string
	err error
}

func (e generationError) Error() string {
	if e.err != nil {
		return "generation failed: " + e.msg + ": " + e.err.Error()
	}
	return "generation failed: " + e.msg
}

func (e generationError) Unwrap() error { return e.err }

// IsGenerationError reports whether err came from the engine.
func IsGenerationError(err error) bool {
	var e generationError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing external dependency (e.g., llama.cpp
// support not compiled in). The loader wraps it in a loadError.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
