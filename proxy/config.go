// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package proxy

import (
	"bytes"
	_ "embed"
	"io"

	"github.com/z5labs/contract"
	"github.com/z5labs/contract/config"

	bedrockcfg "github.com/z5labs/bedrock/config"
)

//go:embed default_config.yaml
var defaultConfig []byte

// DefaultConfig returns the contract defaults layered with the proxy
// specific defaults of [Config].
func DefaultConfig() bedrockcfg.Source {
	return bedrockcfg.MultiSource(
		contract.DefaultConfig(),
		contract.ConfigSource(bytes.NewReader(defaultConfig)),
	)
}

// HTTP
type HTTP struct {
	Port uint `config:"port"`
}

// Upstream configures where validated calls are forwarded to.
type Upstream struct {
	// URL of the upstream service, scheme and host only. Calls keep
	// their path, so the path templates of the contract must match the
	// upstream paths.
	URL string `config:"upstream"`

	// Health is an optional URL polled by the readiness probe.
	Health string `config:"upstream_health"`

	// Spec is the contract file, see specfile.LoadFile.
	Spec string `config:"spec"`
}

// Config
type Config struct {
	contract.Config `config:",squash"`

	HTTP  HTTP     `config:"http"`
	Proxy Upstream `config:"proxy"`
}

// ReadConfig layers src over the contract and proxy defaults. A nil
// src yields the defaults.
func ReadConfig(src io.Reader) (Config, error) {
	srcs := []bedrockcfg.Source{DefaultConfig()}
	if src != nil {
		srcs = append(srcs, contract.ConfigSource(src))
	}
	return config.Read[Config](srcs...)
}
