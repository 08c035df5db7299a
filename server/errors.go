package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/RyanBlaney/sonido-scope/algorithms/spectral"
	"github.com/RyanBlaney/sonido-scope/analysis"
	"github.com/RyanBlaney/sonido-scope/transcode"
)

// statusClientClosedRequest is the nginx convention for a client that went
// away before the response was written
const statusClientClosedRequest = 499

// errNoFile matches the message clients already look for
var errNoFile = errors.New("No file provided")

// statusFor maps decoder and pipeline failures to HTTP status codes
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile),
		errors.Is(err, transcode.ErrEmptyInput),
		errors.Is(err, transcode.ErrInvalidWAV),
		errors.Is(err, transcode.ErrNoSamples):
		return http.StatusBadRequest
	case errors.Is(err, transcode.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	}

	switch analysis.KindOf(err) {
	case analysis.InvalidInput:
		return http.StatusBadRequest
	case analysis.DesignError:
		return http.StatusUnprocessableEntity
	case analysis.ComputationError:
		// Too short for one segment is a property of the upload
		if errors.Is(err, spectral.ErrSignalTooShort) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}
