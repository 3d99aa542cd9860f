// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// jsonExporter re-emits OTel log records as slog JSON records so logs
// stay readable without a collector.
type jsonExporter struct {
	handler slog.Handler
}

func newJSONExporter(w io.Writer) *jsonExporter {
	return &jsonExporter{
		handler: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
}

// Export implements the [sdklog.Exporter] interface.
func (s *jsonExporter) Export(ctx context.Context, records []sdklog.Record) error {
	const sevOffset = log.SeverityDebug - log.Severity(slog.LevelDebug)
	for _, record := range records {
		sr := slog.Record{
			Time:    record.Timestamp(),
			Level:   slog.Level(record.Severity() - sevOffset),
			Message: record.Body().AsString(),
		}

		record.WalkAttributes(func(kv log.KeyValue) bool {
			sr.AddAttrs(slog.Attr{
				Key:   kv.Key,
				Value: mapLogValue(kv.Value),
			})
			return true
		})

		if record.TraceID().IsValid() {
			sr.AddAttrs(
				slog.String("trace_id", record.TraceID().String()),
				slog.String("span_id", record.SpanID().String()),
			)
		}

		err := s.handler.Handle(ctx, sr)
		if err != nil {
			return err
		}
	}

	return nil
}

func mapLogValue(v log.Value) slog.Value {
	switch v.Kind() {
	case log.KindBool:
		return slog.BoolValue(v.AsBool())
	case log.KindBytes:
		return slog.AnyValue(v.AsBytes())
	case log.KindFloat64:
		return slog.Float64Value(v.AsFloat64())
	case log.KindInt64:
		return slog.Int64Value(v.AsInt64())
	case log.KindMap:
		kvs := v.AsMap()
		attrs := make([]slog.Attr, len(kvs))
		for i, kv := range kvs {
			attrs[i] = slog.Attr{Key: kv.Key, Value: mapLogValue(kv.Value)}
		}
		return slog.GroupValue(attrs...)
	case log.KindSlice:
		vs := v.AsSlice()
		vals := make([]any, len(vs))
		for i := range vs {
			vals[i] = mapLogValue(vs[i]).Any()
		}
		return slog.AnyValue(vals)
	case log.KindString:
		return slog.StringValue(v.AsString())
	default:
		return slog.StringValue(v.String())
	}
}

func (s *jsonExporter) ForceFlush(ctx context.Context) error { return nil }

func (s *jsonExporter) Shutdown(ctx context.Context) error { return nil }
