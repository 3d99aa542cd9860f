// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel installs the global OpenTelemetry providers.
package otel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/z5labs/contract/concurrent"
	"github.com/z5labs/contract/config"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ShutdownFunc flushes and stops every provider installed by [Initialize].
type ShutdownFunc func(context.Context) error

// UnknownOTLPConnTypeError
type UnknownOTLPConnTypeError struct {
	Type config.OTLPConnType
}

func (e UnknownOTLPConnTypeError) Error() string {
	return fmt.Sprintf("unknown otlp conn type: %q", e.Type)
}

// UnsupportedExporterError is returned when a signal is configured with
// an exporter type it cannot use.
type UnsupportedExporterError struct {
	Signal string
	Type   config.ExporterType
}

func (e UnsupportedExporterError) Error() string {
	return fmt.Sprintf("unsupported %s exporter: %q", e.Signal, e.Type)
}

// Initialize sets the global tracer, meter and logger providers along with
// the W3C trace context propagator.
func Initialize(ctx context.Context, cfg config.OTel) (ShutdownFunc, error) {
	r, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Resource.ServiceName),
			attribute.String("service.version", cfg.Resource.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	conns := concurrent.NewCache[string, *grpc.ClientConn]()

	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, f := range shutdowns {
			errs = append(errs, f(ctx))
		}
		return errors.Join(errs...)
	}

	tp, err := initTracerProvider(ctx, cfg.Trace, r, conns)
	if err != nil {
		return nil, err
	}
	if tp != nil {
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	mp, err := initMeterProvider(ctx, cfg.Metric, r, conns)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}
	if mp != nil {
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)

		err = runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}
	}

	lp, err := initLoggerProvider(ctx, cfg.Log, r, conns)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}
	if lp != nil {
		global.SetLoggerProvider(lp)
		shutdowns = append(shutdowns, lp.Shutdown)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return shutdown, nil
}

func clientConn(cfg config.OTLP, conns *concurrent.Cache[string, *grpc.ClientConn]) (*grpc.ClientConn, error) {
	return conns.GetOr(cfg.Target, func() (*grpc.ClientConn, error) {
		// TODO: support TLS credentials for collectors outside the pod network
		return grpc.NewClient(cfg.Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	})
}

func initTracerProvider(ctx context.Context, cfg config.Trace, r *resource.Resource, conns *concurrent.Cache[string, *grpc.ClientConn]) (*trace.TracerProvider, error) {
	var exp trace.SpanExporter
	var err error
	switch cfg.Exporter.Type {
	case "", config.NoneExporter:
		return nil, nil
	case config.OTLPExporter:
		switch cfg.Exporter.OTLP.Type {
		case config.OTLPGRPC:
			cc, cerr := clientConn(cfg.Exporter.OTLP, conns)
			if cerr != nil {
				return nil, cerr
			}
			exp, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(cc))
		case config.OTLPHTTP:
			exp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Exporter.OTLP.Target))
		default:
			return nil, UnknownOTLPConnTypeError{Type: cfg.Exporter.OTLP.Type}
		}
	default:
		return nil, UnsupportedExporterError{Signal: "trace", Type: cfg.Exporter.Type}
	}
	if err != nil {
		return nil, err
	}

	var batchOpts []trace.BatchSpanProcessorOption
	if cfg.Batch.ExportInterval > 0 {
		batchOpts = append(batchOpts, trace.WithBatchTimeout(cfg.Batch.ExportInterval))
	}
	if cfg.Batch.MaxSize > 0 {
		batchOpts = append(batchOpts, trace.WithMaxExportBatchSize(cfg.Batch.MaxSize))
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp, batchOpts...),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplingRatio))),
		trace.WithResource(r),
	)
	return tp, nil
}

func initMeterProvider(ctx context.Context, cfg config.Metric, r *resource.Resource, conns *concurrent.Cache[string, *grpc.ClientConn]) (*metric.MeterProvider, error) {
	var exp metric.Exporter
	var err error
	switch cfg.Exporter.Type {
	case "", config.NoneExporter:
		return nil, nil
	case config.OTLPExporter:
		switch cfg.Exporter.OTLP.Type {
		case config.OTLPGRPC:
			cc, cerr := clientConn(cfg.Exporter.OTLP, conns)
			if cerr != nil {
				return nil, cerr
			}
			exp, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(cc))
		case config.OTLPHTTP:
			exp, err = otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Exporter.OTLP.Target))
		default:
			return nil, UnknownOTLPConnTypeError{Type: cfg.Exporter.OTLP.Type}
		}
	default:
		return nil, UnsupportedExporterError{Signal: "metric", Type: cfg.Exporter.Type}
	}
	if err != nil {
		return nil, err
	}

	var readerOpts []metric.PeriodicReaderOption
	if cfg.ExportInterval > 0 {
		readerOpts = append(readerOpts, metric.WithInterval(cfg.ExportInterval))
	}
	readerOpts = append(readerOpts, metric.WithProducer(runtime.NewProducer()))

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exp, readerOpts...)),
		metric.WithResource(r),
	)
	return mp, nil
}

func initLoggerProvider(ctx context.Context, cfg config.Log, r *resource.Resource, conns *concurrent.Cache[string, *grpc.ClientConn]) (*log.LoggerProvider, error) {
	var exp log.Exporter
	var err error
	switch cfg.Exporter.Type {
	case config.NoneExporter:
		return nil, nil
	case "", config.StdoutExporter:
		exp = newJSONExporter(os.Stdout)
	case config.OTLPExporter:
		switch cfg.Exporter.OTLP.Type {
		case config.OTLPGRPC:
			cc, cerr := clientConn(cfg.Exporter.OTLP, conns)
			if cerr != nil {
				return nil, cerr
			}
			exp, err = otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(cc))
		case config.OTLPHTTP:
			exp, err = otlploghttp.New(ctx, otlploghttp.WithEndpoint(cfg.Exporter.OTLP.Target))
		default:
			return nil, UnknownOTLPConnTypeError{Type: cfg.Exporter.OTLP.Type}
		}
	default:
		return nil, UnsupportedExporterError{Signal: "log", Type: cfg.Exporter.Type}
	}
	if err != nil {
		return nil, err
	}

	var p log.Processor
	switch cfg.Processor {
	case config.BatchLogProcessor:
		var batchOpts []log.BatchProcessorOption
		if cfg.Batch.ExportInterval > 0 {
			batchOpts = append(batchOpts, log.WithExportInterval(cfg.Batch.ExportInterval))
		}
		if cfg.Batch.MaxSize > 0 {
			batchOpts = append(batchOpts, log.WithExportMaxBatchSize(cfg.Batch.MaxSize))
		}
		p = log.NewBatchProcessor(exp, batchOpts...)
	default:
		p = log.NewSimpleProcessor(exp)
	}

	lp := log.NewLoggerProvider(
		log.WithProcessor(newLevelFilter(p, cfg.Levels)),
		log.WithResource(r),
	)
	return lp, nil
}
