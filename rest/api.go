// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/z5labs/contract"
	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/health"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var log = contract.Logger("github.com/z5labs/contract/rest")

type route struct {
	method   endpoint.Method
	template string
	handler  http.Handler
}

// ApiOptions holds configuration values used when constructing an [Api].
type ApiOptions struct {
	mux        *chi.Mux
	endpoints  endpoint.Endpoints
	routes     []route
	middleware []MiddlewareOption
	readiness  http.Handler
	liveness   http.Handler
}

// ApiOption configures an [Api].
type ApiOption interface {
	ApplyApiOption(*ApiOptions)
}

type apiOptionFunc func(*ApiOptions)

func (f apiOptionFunc) ApplyApiOption(ao *ApiOptions) {
	f(ao)
}

// OperationOptions holds configuration for an operation registered with
// [Handle] or [HandleFunc].
type OperationOptions struct {
	errHandler ErrorHandler
}

// OperationOption configures an operation.
type OperationOption func(*OperationOptions)

// OnError configures a custom [ErrorHandler] for an operation. By
// default, contract violations are answered with a 400 Problem Details
// body and every other error with a 500.
func OnError(eh ErrorHandler) OperationOption {
	return func(oo *OperationOptions) {
		oo.errHandler = eh
	}
}

// Handle registers h for the declared endpoint at method and template.
// The template uses the ":name" form of the endpoint declarations.
//
// Handle panics when the endpoint was not declared to [NewApi].
func Handle(method endpoint.Method, template string, h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		_, ok := ao.endpoints.Lookup(template, method)
		if !ok {
			panic(fmt.Sprintf("rest: no endpoint declared for %s %s", method, template))
		}

		ao.routes = append(ao.routes, route{
			method:   method,
			template: template,
			handler:  h,
		})
	})
}

// HandleFunc registers f like [Handle]. Errors returned by f, including
// recovered panics, are passed to the operation [ErrorHandler].
func HandleFunc(method endpoint.Method, template string, f func(http.ResponseWriter, *http.Request) error, opts ...OperationOption) ApiOption {
	oo := &OperationOptions{
		errHandler: defaultErrorHandler(),
	}
	for _, opt := range opts {
		opt(oo)
	}

	return Handle(method, template, &operation{
		tracer:     otel.Tracer("github.com/z5labs/contract/rest"),
		errHandler: oo.errHandler,
		handle:     f,
	})
}

// WithMiddlewareOptions configures the validation middleware every
// operation is wrapped with.
func WithMiddlewareOptions(opts ...MiddlewareOption) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.middleware = append(ao.middleware, opts...)
	})
}

// Readiness serves the monitor at GET /health/readiness.
func Readiness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.readiness = HealthHandler(m)
	})
}

// Liveness serves the monitor at GET /health/liveness.
func Liveness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.liveness = HealthHandler(m)
	})
}

// NotFound overrides the handler for requests matching no route.
func NotFound(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.NotFound(h.ServeHTTP)
	})
}

// MethodNotAllowed overrides the handler for requests matching a route
// but none of its methods.
func MethodNotAllowed(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.MethodNotAllowed(h.ServeHTTP)
	})
}

// Api is an [http.Handler] serving the operations of a set of declared
// endpoints. Every operation is reached through the validation
// [Middleware], so handlers can call [Validate] or [Require].
//
// Every Api also serves:
//   - the OpenAPI 3 document of the endpoints at GET /openapi.json
//   - GET /health/readiness and GET /health/liveness
type Api struct {
	router *chi.Mux
	def    *openapi3.Spec
}

// NewApi creates an [Api] for the declared endpoints.
//
// NewApi panics if the endpoints are invalid or cannot be documented.
func NewApi(title, version string, endpoints endpoint.Endpoints, opts ...ApiOption) *Api {
	err := endpoints.Validate()
	if err != nil {
		panic(err)
	}

	def := &openapi3.Spec{
		Openapi: "3.0.3",
		Info: openapi3.Info{
			Title:   title,
			Version: version,
		},
	}
	err = addOperations(def, endpoints)
	if err != nil {
		panic(err)
	}

	ao := &ApiOptions{
		mux:       chi.NewMux(),
		endpoints: endpoints,
		readiness: HealthHandler(health.MonitorFunc(alwaysHealthy)),
		liveness:  HealthHandler(health.MonitorFunc(alwaysHealthy)),
	}
	ao.mux.NotFound(problemHandler(http.StatusNotFound, "path not found"))
	ao.mux.MethodNotAllowed(problemHandler(http.StatusMethodNotAllowed, "method not allowed for path"))
	for _, opt := range opts {
		opt.ApplyApiOption(ao)
	}

	validate := Middleware(endpoints, ao.middleware...)
	for _, rt := range ao.routes {
		pattern := RoutePattern(rt.template)
		ao.mux.Method(rt.method.HTTP(), pattern, otelhttp.WithRouteTag(pattern, validate(rt.handler)))
	}

	ao.mux.Method(http.MethodGet, "/health/readiness", ao.readiness)
	ao.mux.Method(http.MethodGet, "/health/liveness", ao.liveness)
	ao.mux.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		enc := json.NewEncoder(w)
		err := enc.Encode(def)
		if err == nil {
			return
		}
		log.ErrorContext(
			r.Context(),
			"failed to encode openapi schema to json",
			slog.Any("error", err),
		)
	})

	return &Api{
		router: ao.mux,
		def:    def,
	}
}

// Spec returns the OpenAPI document served at /openapi.json.
func (api *Api) Spec() *openapi3.Spec {
	return api.def
}

// ServeHTTP implements the [http.Handler] interface.
func (api *Api) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	api.router.ServeHTTP(w, req)
}

func alwaysHealthy(context.Context) (bool, error) {
	return true, nil
}

func problemHandler(status int, detail string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(r.Context(), w, ProblemDetail{
			Type:     "about:blank",
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   detail,
			Instance: r.URL.Path,
		})
	}
}

type operation struct {
	tracer     trace.Tracer
	errHandler ErrorHandler
	handle     func(http.ResponseWriter, *http.Request) error
}

func (o *operation) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	spanCtx, span := o.tracer.Start(r.Context(), "operation.ServeHTTP")
	defer span.End()

	err := o.serve(w, r.WithContext(spanCtx))
	if err == nil {
		return
	}
	span.RecordError(err)
	o.errHandler.OnError(spanCtx, w, err)
}

func (o *operation) serve(w http.ResponseWriter, r *http.Request) (err error) {
	defer try.Recover(&err)

	return o.handle(w, r)
}
