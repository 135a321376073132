package apperrors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the appropriate HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownRun):
		return http.StatusNotFound
	case errors.Is(err, ErrIndexUnavailable),
		errors.Is(err, ErrManifestUnavailable),
		errors.Is(err, ErrArtifactUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
