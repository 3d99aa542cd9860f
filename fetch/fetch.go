// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package fetch validates outgoing HTTP calls, and the responses they
// receive, against declared endpoint contracts.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/z5labs/contract"
	"github.com/z5labs/contract/config"
	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/z5labs/contract/fetch"

// Direction distinguishes issues found in the request from those found
// in the response.
type Direction string

const (
	Request  Direction = "request"
	Response Direction = "response"
)

// Error wraps the error returned by the issue handler along with the
// direction it was raised for.
type Error struct {
	Direction Direction
	Cause     error
}

func (e *Error) Error() string {
	return string(e.Direction) + " " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type policyFunc func(*slog.Logger) validator.IssueHandler

// TransportOptions
type TransportOptions struct {
	policy     policyFunc
	observers  []validator.IssueHandler
	logHandler slog.Handler
}

// TransportOption
type TransportOption interface {
	ApplyTransportOption(*TransportOptions)
}

type transportOptionFunc func(*TransportOptions)

func (f transportOptionFunc) ApplyTransportOption(to *TransportOptions) {
	f(to)
}

// Policy sets how violations are surfaced. The default,
// [validator.Throw], fails the call with an [*Error] wrapping a
// [*validator.ValidateError].
func Policy(h validator.IssueHandler) TransportOption {
	return transportOptionFunc(func(to *TransportOptions) {
		to.policy = func(*slog.Logger) validator.IssueHandler {
			return h
		}
	})
}

// ConfiguredPolicy selects the policy from its configured name.
func ConfiguredPolicy(p config.Policy) TransportOption {
	return transportOptionFunc(func(to *TransportOptions) {
		to.policy = func(log *slog.Logger) validator.IssueHandler {
			return validator.Policy(p, log)
		}
	})
}

// LogPolicy logs violations and lets the call through.
func LogPolicy() TransportOption {
	return transportOptionFunc(func(to *TransportOptions) {
		to.policy = validator.Log
	})
}

// LogHandler overrides where the transport logs to.
func LogHandler(h slog.Handler) TransportOption {
	return transportOptionFunc(func(to *TransportOptions) {
		to.logHandler = h
	})
}

// OnIssue registers a handler which observes every violation before the
// policy handles it. Observers returning an error fail the call.
func OnIssue(h validator.IssueHandler) TransportOption {
	return transportOptionFunc(func(to *TransportOptions) {
		to.observers = append(to.observers, h)
	})
}

// Transport is a [http.RoundTripper] which validates each request before
// forwarding it to a base transport and validates the response it gets
// back. Callers always receive an unread response body.
type Transport struct {
	base   http.RoundTripper
	gen    *validator.Generator
	log    *slog.Logger
	policy policyFunc

	observers []validator.IssueHandler

	tracer trace.Tracer
	issues metric.Int64Counter
}

// NewTransport initializes a [Transport]. A nil base uses
// [http.DefaultTransport].
func NewTransport(base http.RoundTripper, endpoints endpoint.Endpoints, opts ...TransportOption) *Transport {
	to := &TransportOptions{}
	for _, opt := range opts {
		opt.ApplyTransportOption(to)
	}
	if base == nil {
		base = http.DefaultTransport
	}

	log := contract.Logger(instrumentationName)
	if to.logHandler != nil {
		log = slog.New(to.logHandler)
	}

	policy := to.policy
	if policy == nil {
		policy = func(*slog.Logger) validator.IssueHandler {
			return validator.Throw()
		}
	}

	issues, err := otel.Meter(instrumentationName).Int64Counter(
		"contract.validation.issues",
		metric.WithDescription("Number of contract violations found in HTTP calls."),
		metric.WithUnit("{issue}"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return &Transport{
		base:      base,
		gen:       validator.NewGenerator(endpoints),
		log:       log,
		policy:    policy,
		observers: to.observers,
		tracer:    otel.Tracer(instrumentationName),
		issues:    issues,
	}
}

// NewClient returns a [http.Client] which validates every call it makes
// and is instrumented with OpenTelemetry.
func NewClient(endpoints endpoint.Endpoints, opts ...TransportOption) *http.Client {
	return &http.Client{
		Transport: NewTransport(otelhttp.NewTransport(http.DefaultTransport), endpoints, opts...),
	}
}

// RoundTrip implements the [http.RoundTripper] interface.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(req.Context(), "Transport.RoundTrip")
	defer span.End()

	callID := uuid.NewString()
	log := t.log.With(slog.String("call.id", callID))

	template, params := t.match(req)
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	span.SetAttributes(
		attribute.String("call.id", callID),
		attribute.String("http.request.method", method),
		attribute.String("http.route", template),
	)

	req, body, err := bufferRequestBody(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	err = t.validateRequest(ctx, log, validator.RequestInput{
		Path:    template,
		Method:  method,
		Params:  params,
		Query:   validator.QueryValues(req.URL.Query()),
		Body:    validator.ParseJSONBody(body),
		Headers: validator.HeaderValues(req.Header),
	})
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		span.SetStatus(codes.Error, "request contract violated")
		span.RecordError(err)
		return nil, err
	}

	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	err = t.validateResponse(ctx, log, validator.ResponseInput{
		Path:       template,
		Method:     method,
		StatusCode: resp.StatusCode,
		Body:       validator.ParseJSONBody(respBody),
		Headers:    validator.HeaderValues(resp.Header),
	})
	if err != nil {
		resp.Body.Close()
		span.SetStatus(codes.Error, "response contract violated")
		span.RecordError(err)
		return nil, err
	}
	return resp, nil
}

func (t *Transport) match(req *http.Request) (string, map[string]string) {
	m, err := t.gen.Matcher().Best(req.URL.EscapedPath())
	if err != nil {
		return "", map[string]string{}
	}
	return m.Template, m.Params
}

func (t *Transport) handler(log *slog.Logger, dir Direction) validator.IssueHandler {
	counter := validator.IssueHandlerFunc(func(ctx context.Context, reason string, issues []endpoint.Issue) error {
		if t.issues != nil {
			t.issues.Add(ctx, int64(len(issues)), metric.WithAttributes(
				attribute.String("direction", string(dir)),
				attribute.String("reason", reason),
			))
		}
		log.DebugContext(ctx, "contract violation found", slog.String("direction", string(dir)), slog.String("reason", reason))
		return nil
	})

	hs := append([]validator.IssueHandler{counter}, t.observers...)
	return validator.Handlers(append(hs, t.policy(log))...)
}

func (t *Transport) validateRequest(ctx context.Context, log *slog.Logger, in validator.RequestInput) error {
	h := t.handler(log, Request)

	bag, err := t.gen.Request(in)
	return wrap(Request, run(ctx, bag, err, h))
}

func (t *Transport) validateResponse(ctx context.Context, log *slog.Logger, in validator.ResponseInput) error {
	h := t.handler(log, Response)

	bag, err := t.gen.Response(in)
	return wrap(Response, run(ctx, bag, err, h))
}

func run(ctx context.Context, bag validator.Bag, err error, h validator.IssueHandler) error {
	if err == nil {
		return validator.Run(ctx, bag, h)
	}

	var ierr validator.InputError
	if errors.As(err, &ierr) {
		return validator.PreCheck(ctx, ierr, h)
	}
	return err
}

func wrap(dir Direction, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Direction: dir, Cause: err}
}

// bufferRequestBody reads the request payload without consuming the
// body which will be sent. If the request cannot replay its body, a
// clone carrying a buffered copy is returned instead.
func bufferRequestBody(req *http.Request) (*http.Request, []byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil, nil
	}

	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return req, nil, err
		}
		defer rc.Close()

		b, err := io.ReadAll(rc)
		return req, b, err
	}

	b, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return req, nil, err
	}

	clone := req.Clone(req.Context())
	clone.Body = io.NopCloser(bytes.NewReader(b))
	clone.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return clone, b, nil
}
