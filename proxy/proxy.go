// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package proxy implements a reverse proxy which enforces an endpoint
// contract on every call passing through it.
//
// Request violations are answered with a 400 and response violations
// with a 502, both as RFC 7807 Problem Details. With the log policy
// violations are only logged and calls pass through unchanged.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/z5labs/contract"
	"github.com/z5labs/contract/app"
	"github.com/z5labs/contract/config"
	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/fetch"
	"github.com/z5labs/contract/health"
	"github.com/z5labs/contract/internal/httpserver"
	"github.com/z5labs/contract/rest"
	"github.com/z5labs/contract/specfile"
	"github.com/z5labs/contract/validator"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var log = contract.Logger("github.com/z5labs/contract/proxy")

// InvalidUpstreamError is returned by [Build] if the upstream is not an
// absolute http(s) url or carries a path, query or fragment. Calls are
// forwarded on their own path so the upstream must be scheme and host only.
type InvalidUpstreamError struct {
	URL    string
	Reason string
}

func (e InvalidUpstreamError) Error() string {
	return fmt.Sprintf("invalid upstream %q: %s", e.URL, e.Reason)
}

// Options configure the proxy [http.Handler].
type Options struct {
	Policy    config.Policy
	Readiness health.Monitor
	Transport http.RoundTripper
}

// NewHandler returns an [http.Handler] forwarding every call to the
// upstream through a [fetch.Transport] enforcing the endpoints. The
// health probes are served at GET /health/readiness and
// GET /health/liveness.
func NewHandler(upstream *url.URL, endpoints endpoint.Endpoints, opts Options) http.Handler {
	base := opts.Transport
	if base == nil {
		base = otelhttp.NewTransport(http.DefaultTransport)
	}
	readiness := opts.Readiness
	if readiness == nil {
		readiness = health.MonitorFunc(func(context.Context) (bool, error) {
			return true, nil
		})
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(&url.URL{Scheme: upstream.Scheme, Host: upstream.Host})
			pr.SetXForwarded()
		},
		Transport:    fetch.NewTransport(base, endpoints, fetch.ConfiguredPolicy(opts.Policy)),
		ErrorHandler: errorHandler,
	}

	mux := chi.NewMux()
	mux.Method(http.MethodGet, "/health/readiness", rest.HealthHandler(readiness))
	mux.Method(http.MethodGet, "/health/liveness", rest.HealthHandler(health.MonitorFunc(func(context.Context) (bool, error) {
		return true, nil
	})))
	mux.Handle("/*", rp)
	return mux
}

func errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var ferr *fetch.Error
	if !errors.As(err, &ferr) {
		log.ErrorContext(ctx, "failed to proxy call", slog.Any("error", err))
		rest.WriteProblem(ctx, w, rest.ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(http.StatusBadGateway),
			Status: http.StatusBadGateway,
			Detail: "upstream call failed",
		})
		return
	}

	status := http.StatusBadRequest
	detail := "request does not satisfy its contract"
	if ferr.Direction == fetch.Response {
		status = http.StatusBadGateway
		detail = "upstream response does not satisfy its contract"
	}

	p := rest.ValidationProblem{
		ProblemDetail: rest.ProblemDetail{
			Type:     "about:blank",
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   detail,
			Instance: r.URL.Path,
		},
	}
	var verr *validator.ValidateError
	if errors.As(err, &verr) {
		p.Reason = verr.Reason
		p.Issues = verr.Issues
	}
	rest.WriteProblem(ctx, w, p)
}

func parseUpstream(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, InvalidUpstreamError{URL: s, Reason: "must be an absolute http(s) url"}
	}
	if u.Path != "" && u.Path != "/" {
		return nil, InvalidUpstreamError{URL: s, Reason: "must not have a path"}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, InvalidUpstreamError{URL: s, Reason: "must not have a query or fragment"}
	}
	return u, nil
}

// Build loads the contract and returns the proxy server. The server is
// ready once it runs and, if configured, the upstream health URL
// answers 200.
func Build(ctx context.Context, cfg Config) (app.Runtime, error) {
	upstream, err := parseUpstream(cfg.Proxy.URL)
	if err != nil {
		return nil, err
	}

	endpoints, err := specfile.LoadFile(ctx, cfg.Proxy.Spec)
	if err != nil {
		return nil, err
	}

	started := &health.Binary{}
	var readiness health.Monitor = started
	if cfg.Proxy.Health != "" {
		readiness = health.And(started, health.HTTP(
			&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			cfg.Proxy.Health,
		))
	}

	h := NewHandler(upstream, endpoints, Options{
		Policy:    cfg.Validation.Policy,
		Readiness: readiness,
	})

	ls, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTP.Port))
	if err != nil {
		return nil, err
	}

	srv := httpserver.NewApp(
		ls,
		otelhttp.NewHandler(h, "contract-proxy"),
		httpserver.ErrorLog(log.Handler()),
	)

	log.InfoContext(
		ctx,
		"proxying",
		slog.String("addr", ls.Addr().String()),
		slog.String("upstream", upstream.String()),
		slog.Int("templates", len(endpoints)),
	)

	return app.Recover(app.RuntimeFunc(func(ctx context.Context) error {
		started.MarkHealthy()
		defer started.MarkUnhealthy()

		return srv.Run(ctx)
	})), nil
}

// Run reads the config from r, layered over the defaults, and runs the
// proxy until the process is signalled to stop.
func Run(ctx context.Context, r io.Reader) error {
	cfg, err := ReadConfig(r)
	if err != nil {
		return err
	}

	return app.Run(ctx, app.WithHooks(func(ctx context.Context, h *app.HookRegistry) (app.Runtime, error) {
		shutdown, err := cfg.InitializeOTel(ctx)
		if err != nil {
			return nil, err
		}
		h.OnPostRun(shutdown)

		return Build(ctx, cfg)
	}))
}
