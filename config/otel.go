// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import "time"

// Resource describes the service emitting telemetry.
type Resource struct {
	ServiceName    string `config:"service_name"`
	ServiceVersion string `config:"service_version"`
}

// ExporterType selects where a signal is exported to.
type ExporterType string

const (
	// NoneExporter discards the signal.
	NoneExporter ExporterType = "none"

	// StdoutExporter writes the signal to stdout as JSON. Only supported for logs.
	StdoutExporter ExporterType = "stdout"

	// OTLPExporter ships the signal to an OTLP collector.
	OTLPExporter ExporterType = "otlp"
)

// OTLPConnType
type OTLPConnType string

const (
	OTLPHTTP OTLPConnType = "http"
	OTLPGRPC OTLPConnType = "grpc"
)

// OTLP
type OTLP struct {
	Type   OTLPConnType `config:"type"`
	Target string       `config:"target"`
}

// Exporter
type Exporter struct {
	Type ExporterType `config:"type"`
	OTLP OTLP         `config:"otlp"`
}

// Batch
type Batch struct {
	ExportInterval time.Duration `config:"export_interval"`
	MaxSize        int           `config:"max_size"`
}

// Trace configures the tracer provider.
type Trace struct {
	// SamplingRatio is the fraction of traces recorded, between 0 and 1.
	SamplingRatio float64  `config:"sampling_ratio"`
	Batch         Batch    `config:"batch"`
	Exporter      Exporter `config:"exporter"`
}

// Metric configures the meter provider.
type Metric struct {
	ExportInterval time.Duration `config:"export_interval"`
	Exporter       Exporter      `config:"exporter"`
}

// LogProcessorType
type LogProcessorType string

const (
	SimpleLogProcessor LogProcessorType = "simple"
	BatchLogProcessor  LogProcessorType = "batch"
)

// Log configures the logger provider.
type Log struct {
	Processor LogProcessorType `config:"processor"`
	Batch     Batch            `config:"batch"`
	Exporter  Exporter         `config:"exporter"`

	// Levels maps logger name prefixes to a minimum level
	// (debug, info, warn or error).
	Levels map[string]string `config:"levels"`
}

// OTel
type OTel struct {
	Resource Resource `config:"resource"`
	Trace    Trace    `config:"trace"`
	Metric   Metric   `config:"metric"`
	Log      Log      `config:"log"`
}
