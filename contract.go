// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package contract provides the common logging, configuration and
// telemetry setup shared by applications which enforce HTTP contracts.
//
// The contract machinery itself lives in the sub packages:
//   - endpoint - declaring endpoints and their request/response schemas
//   - validator - generating and running per-field validators
//   - fetch - validating outgoing calls and their responses
//   - rest - validating incoming requests
package contract

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"log/slog"
	"os"

	"github.com/z5labs/contract/config"
	"github.com/z5labs/contract/internal/otel"

	bedrockcfg "github.com/z5labs/bedrock/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a [slog.Logger] which emits through the global
// OpenTelemetry logger provider.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// ConfigSource renders r as a Go text/template before parsing it as YAML.
// Two template functions are available:
//   - env - substitutes an environment variable, or nil if it is unset
//   - default - replaces a nil value with a default
func ConfigSource(r io.Reader) bedrockcfg.Source {
	return bedrockcfg.FromYaml(
		bedrockcfg.RenderTextTemplate(
			r,
			bedrockcfg.TemplateFunc("env", func(key string) any {
				v, ok := os.LookupEnv(key)
				if ok {
					return v
				}
				return nil
			}),
			bedrockcfg.TemplateFunc("default", func(def, v any) any {
				if v == nil {
					return def
				}
				return v
			}),
		),
	)
}

//go:embed default_config.yaml
var defaultConfig []byte

// DefaultConfig returns the source backing the defaults of [Config].
func DefaultConfig() bedrockcfg.Source {
	return ConfigSource(bytes.NewReader(defaultConfig))
}

// ReadConfig layers each reader, as a [ConfigSource], on top of
// [DefaultConfig] and decodes the result into T.
func ReadConfig[T any](rs ...io.Reader) (T, error) {
	srcs := []bedrockcfg.Source{DefaultConfig()}
	for _, r := range rs {
		srcs = append(srcs, ConfigSource(r))
	}
	return config.Read[T](srcs...)
}

// Config defines the common configuration for all contract based applications.
type Config struct {
	OTel       config.OTel       `config:"otel"`
	Validation config.Validation `config:"validation"`
}

// InitializeOTel installs the global OpenTelemetry providers described by
// the config. The returned func flushes and stops them.
func (cfg Config) InitializeOTel(ctx context.Context) (func(context.Context) error, error) {
	return otel.Initialize(ctx, cfg.OTel)
}
