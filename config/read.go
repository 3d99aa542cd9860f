// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config defines the configuration types shared by contract
// applications and how they are decoded.
package config

import (
	bedrockcfg "github.com/z5labs/bedrock/config"
)

// Read layers the given sources in order, so later sources override
// keys set by earlier ones, and decodes the result into T. Struct fields
// are matched by their `config` tag.
func Read[T any](srcs ...bedrockcfg.Source) (T, error) {
	var cfg T

	m, err := bedrockcfg.Read(bedrockcfg.MultiSource(srcs...))
	if err != nil {
		return cfg, err
	}

	err = m.Unmarshal(&cfg)
	return cfg, err
}
