// Package apperrors provides structured application errors with HTTP status mapping.
//
// The sentinels follow the dashboard's failure taxonomy so callers can scope a
// message to the smallest affected region (artifact card, run view, page).
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrIndexUnavailable    = errors.New("index unavailable")
	ErrUnknownRun          = errors.New("unknown run")
	ErrManifestUnavailable = errors.New("manifest unavailable")
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	ErrInternal            = errors.New("internal error")
)

// Error provides structured error with context.
type Error struct {
	Sentinel error  // Wrapped sentinel for errors.Is() classification
	Message  string // Human-readable message
	Field    string // For validation errors (e.g., "dag_id")
	Resource string // For not found / unavailable (e.g., "manifest")
	Path     string // Logical path of the document that failed, if any
	Op       string // Operation that failed (e.g., "fetch.index")
	Cause    error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Field:    field,
	}
}

// NotFound creates a not found error for a resource.
func NotFound(resource, id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("%s %s not found", resource, id),
		Resource: resource,
	}
}

// UnknownRun reports a run id that is absent from a loaded index.
func UnknownRun(dagID string) error {
	return &Error{
		Sentinel: ErrUnknownRun,
		Message:  fmt.Sprintf("run %q does not exist in the dashboard index", dagID),
		Resource: "run",
	}
}

// IndexUnavailable reports a failure to load or parse the dashboard index.
func IndexUnavailable(path string, cause error) error {
	return unavailable(ErrIndexUnavailable, "index", path, cause)
}

// ManifestUnavailable reports a failure to load or parse a run manifest.
func ManifestUnavailable(path string, cause error) error {
	return unavailable(ErrManifestUnavailable, "manifest", path, cause)
}

// ArtifactUnavailable reports a failure to load or parse one artifact.
func ArtifactUnavailable(path string, cause error) error {
	return unavailable(ErrArtifactUnavailable, "artifact", path, cause)
}

func unavailable(sentinel error, resource, path string, cause error) error {
	msg := fmt.Sprintf("could not load %s %s", resource, path)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{
		Sentinel: sentinel,
		Message:  msg,
		Resource: resource,
		Path:     path,
		Cause:    cause,
	}
}

// Internal creates an internal error wrapping an underlying cause.
func Internal(op string, cause error) error {
	return &Error{
		Sentinel: ErrInternal,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// Message returns the user-facing message for err, or "" for nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
