// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type levelRule struct {
	prefix string
	min    log.Severity
}

// levelFilter drops records whose severity is below the minimum
// configured for the longest matching logger name prefix.
// Loggers without a matching prefix are never filtered.
type levelFilter struct {
	sdklog.Processor

	rules []levelRule
}

func newLevelFilter(inner sdklog.Processor, levels map[string]string) *levelFilter {
	rules := make([]levelRule, 0, len(levels))
	for prefix, lvl := range levels {
		rules = append(rules, levelRule{prefix: prefix, min: parseLevel(lvl)})
	}
	slices.SortFunc(rules, func(a, b levelRule) int {
		return cmp.Compare(len(b.prefix), len(a.prefix))
	})

	return &levelFilter{
		Processor: inner,
		rules:     rules,
	}
}

func parseLevel(s string) log.Severity {
	switch strings.ToLower(s) {
	case "info":
		return log.SeverityInfo
	case "warn", "warning":
		return log.SeverityWarn
	case "error":
		return log.SeverityError
	default:
		return log.SeverityDebug
	}
}

// OnEmit implements the [sdklog.Processor] interface.
func (f *levelFilter) OnEmit(ctx context.Context, record *sdklog.Record) error {
	name := record.InstrumentationScope().Name
	for _, rule := range f.rules {
		if !strings.HasPrefix(name, rule.prefix) {
			continue
		}
		if record.Severity() < rule.min {
			return nil
		}
		break
	}
	return f.Processor.OnEmit(ctx, record)
}
