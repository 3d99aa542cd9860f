// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/z5labs/contract/validator"
)

// HttpResponseWriter is implemented by errors which write their own
// HTTP response.
type HttpResponseWriter interface {
	WriteHttpResponse(context.Context, http.ResponseWriter)
}

// ErrorHandler handles errors returned while serving a request.
type ErrorHandler interface {
	OnError(context.Context, http.ResponseWriter, error)
}

// ErrorHandlerFunc is a func type of the [ErrorHandler] interface.
type ErrorHandlerFunc func(context.Context, http.ResponseWriter, error)

// OnError implements the [ErrorHandler] interface.
func (f ErrorHandlerFunc) OnError(ctx context.Context, w http.ResponseWriter, err error) {
	f(ctx, w, err)
}

// defaultErrorHandler logs the error and writes it as Problem Details.
// A [*validator.ValidateError] anywhere in the chain is a 400.
func defaultErrorHandler() ErrorHandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, err error) {
		log.ErrorContext(ctx, "sending error response", slog.Any("error", err))

		var hrw HttpResponseWriter
		if errors.As(err, &hrw) {
			hrw.WriteHttpResponse(ctx, w)
			return
		}

		var verr *validator.ValidateError
		if errors.As(err, &verr) {
			BadRequestError{Cause: verr}.WriteHttpResponse(ctx, w)
			return
		}

		WriteProblem(ctx, w, ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(http.StatusInternalServerError),
			Status: http.StatusInternalServerError,
			Detail: "An internal server error occurred.",
		})
	}
}

// BadRequestError is a request which violates its contract.
type BadRequestError struct {
	Cause error
}

func (e BadRequestError) Error() string {
	return fmt.Sprintf("bad request error: %v", e.Cause)
}

// Unwrap
func (e BadRequestError) Unwrap() error {
	return e.Cause
}

// WriteHttpResponse implements the [HttpResponseWriter] interface. The
// issues of a wrapped [*validator.ValidateError] are included in the body.
func (e BadRequestError) WriteHttpResponse(ctx context.Context, w http.ResponseWriter) {
	p := ValidationProblem{
		ProblemDetail: ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(http.StatusBadRequest),
			Status: http.StatusBadRequest,
			Detail: "request does not satisfy its contract",
		},
	}

	var verr *validator.ValidateError
	if errors.As(e.Cause, &verr) {
		p.Reason = verr.Reason
		p.Issues = verr.Issues
	}
	WriteProblem(ctx, w, p)
}
