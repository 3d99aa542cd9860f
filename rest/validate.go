// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/validator"

	"github.com/go-chi/chi/v5"
)

// ValidateFunc builds the request validators for a request snapshot.
// It never fails: if the snapshot cannot be resolved to a spec, every
// request field of the returned bag fails with the resolution issue.
type ValidateFunc func(validator.RequestInput) validator.Bag

// NewValidateFunc returns a [ValidateFunc] for the endpoints.
func NewValidateFunc(endpoints endpoint.Endpoints) ValidateFunc {
	gen := validator.NewGenerator(endpoints)

	return func(in validator.RequestInput) validator.Bag {
		bag, err := gen.Request(in)
		if err == nil {
			return bag
		}

		var ierr validator.InputError
		if errors.As(err, &ierr) {
			return validator.Failing(ierr.Issue(), endpoint.RequestFields...)
		}
		return validator.Failing(endpoint.Issue{Message: err.Error()}, endpoint.RequestFields...)
	}
}

// MissingMiddlewareError is the issue reported by [Validate] for
// requests which did not pass through [Middleware].
type MissingMiddlewareError struct{}

func (MissingMiddlewareError) Error() string {
	return "request was not handled by the contract validation middleware"
}

// BodyTooLargeError
type BodyTooLargeError struct {
	Limit int64
}

func (e BodyTooLargeError) Error() string {
	return "request body exceeds the limit for contract validation"
}

// WriteHttpResponse implements the [HttpResponseWriter] interface.
func (e BodyTooLargeError) WriteHttpResponse(ctx context.Context, w http.ResponseWriter) {
	WriteProblem(ctx, w, ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(http.StatusRequestEntityTooLarge),
		Status: http.StatusRequestEntityTooLarge,
		Detail: e.Error(),
	})
}

type validationCtxKey struct{}

type requestValidation struct {
	validate ValidateFunc
	body     []byte
}

// MiddlewareOptions
type MiddlewareOptions struct {
	maxBodyBytes int64
	errHandler   ErrorHandler
}

// MiddlewareOption
type MiddlewareOption interface {
	ApplyMiddlewareOption(*MiddlewareOptions)
}

type middlewareOptionFunc func(*MiddlewareOptions)

func (f middlewareOptionFunc) ApplyMiddlewareOption(mo *MiddlewareOptions) {
	f(mo)
}

// MaxBodyBytes limits how much of a request body is buffered for
// validation. Larger bodies are rejected. The default is 1 MiB.
func MaxBodyBytes(n int64) MiddlewareOption {
	return middlewareOptionFunc(func(mo *MiddlewareOptions) {
		mo.maxBodyBytes = n
	})
}

// MiddlewareErrorHandler sets the [ErrorHandler] for requests the
// middleware rejects.
func MiddlewareErrorHandler(eh ErrorHandler) MiddlewareOption {
	return middlewareOptionFunc(func(mo *MiddlewareOptions) {
		mo.errHandler = eh
	})
}

// Middleware attaches a request scoped validator to every request,
// which handlers retrieve with [Validate]. The request body is buffered
// once and restored so handlers can still read it.
func Middleware(endpoints endpoint.Endpoints, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	mo := &MiddlewareOptions{
		maxBodyBytes: 1 << 20,
		errHandler:   defaultErrorHandler(),
	}
	for _, opt := range opts {
		opt.ApplyMiddlewareOption(mo)
	}

	validate := NewValidateFunc(endpoints)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := readBody(r, mo.maxBodyBytes)
			if err != nil {
				mo.errHandler.OnError(r.Context(), w, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := context.WithValue(r.Context(), validationCtxKey{}, &requestValidation{
				validate: validate,
				body:     body,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	b, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, BodyTooLargeError{Limit: limit}
	}
	return b, nil
}

// Validate returns the request validators for r. The path template is
// the route pattern matched by the chi router or [http.ServeMux], so
// Validate must be called from within a routed handler. Nothing is validated until a
// field of the returned bag is invoked.
func Validate(r *http.Request) validator.Bag {
	rv, ok := r.Context().Value(validationCtxKey{}).(*requestValidation)
	if !ok {
		issue := endpoint.Issue{
			Message: MissingMiddlewareError{}.Error(),
			Extra:   map[string]any{"target": "middleware"},
		}
		return validator.Failing(issue, endpoint.RequestFields...)
	}

	return rv.validate(snapshot(r, rv.body))
}

func snapshot(r *http.Request, body []byte) validator.RequestInput {
	in := validator.RequestInput{
		Path:    r.URL.Path,
		Method:  r.Method,
		Params:  map[string]string{},
		Query:   validator.QueryValues(r.URL.Query()),
		Body:    validator.ParseJSONBody(body),
		Headers: validator.HeaderValues(r.Header),
	}

	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		fromServeMux(&in, r)
		return in
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		in.Path = Template(pattern)
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		in.Params[key] = rctx.URLParams.Values[i]
	}
	return in
}

// fromServeMux fills the template and params from the [http.ServeMux]
// pattern which matched r. Subtree patterns, e.g. "/files/" or
// "/files/{path...}", have no template form so the concrete path is
// kept for them.
func fromServeMux(in *validator.RequestInput, r *http.Request) {
	if r.Pattern == "" {
		return
	}

	pattern := r.Pattern
	if _, p, ok := strings.Cut(pattern, " "); ok {
		pattern = strings.TrimLeft(p, " ")
	}
	if i := strings.Index(pattern, "/"); i > 0 {
		pattern = pattern[i:]
	}

	subtree := strings.HasSuffix(pattern, "/")
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		inner, ok := strings.CutPrefix(seg, "{")
		if !ok {
			continue
		}
		inner, ok = strings.CutSuffix(inner, "}")
		if !ok {
			continue
		}

		switch {
		case inner == "$":
			segs[i] = ""
			subtree = false
		case strings.HasSuffix(inner, "..."):
			name := strings.TrimSuffix(inner, "...")
			in.Params[name] = r.PathValue(name)
			subtree = true
		default:
			in.Params[inner] = r.PathValue(inner)
			segs[i] = ":" + inner
		}
	}
	if subtree {
		return
	}
	in.Path = strings.Join(segs, "/")
}
