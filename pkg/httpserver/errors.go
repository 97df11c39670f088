package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/mselser95/overlay-build/internal/storage"
	"github.com/mselser95/overlay-build/pkg/types"
)

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	Detail      string `json:"detail,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

// errorResponse classifies err into a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	var (
		encodingErr *types.EncodingError
		buildErr    *types.BuildError
		rejected    *types.UserRejected
		failed      *types.SubmissionFailed
	)

	resp := ErrorResponse{
		Error:       err.Error(),
		Recoverable: types.Recoverable(err),
	}

	switch {
	case errors.As(err, &encodingErr):
		resp.Kind = "encoding"
		return http.StatusBadRequest, resp

	case errors.As(err, &buildErr):
		resp.Kind = buildErr.Kind.String()
		resp.Error = buildErr.Reason
		if buildErr.Detail != buildErr.Reason {
			resp.Detail = buildErr.Detail
		}
		if buildErr.Kind == types.BuildUnresolved {
			return http.StatusServiceUnavailable, resp
		}
		return http.StatusUnprocessableEntity, resp

	case errors.As(err, &rejected):
		resp.Kind = "user-rejected"
		return http.StatusConflict, resp

	case errors.As(err, &failed):
		resp.Kind = "submission-failed"
		resp.Error = "submission failed"
		resp.Detail = failed.Detail
		return http.StatusBadGateway, resp

	case errors.Is(err, types.ErrMissingDependencies):
		resp.Kind = "unavailable"
		return http.StatusServiceUnavailable, resp

	case errors.Is(err, storage.ErrNotFound):
		resp.Kind = "not-found"
		return http.StatusNotFound, resp

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		resp.Kind = "timeout"
		resp.Recoverable = true
		return http.StatusGatewayTimeout, resp

	default:
		resp.Kind = "internal"
		return http.StatusInternalServerError, resp
	}
}
