// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

// Policy is how contract violations are surfaced.
type Policy string

const (
	// ThrowPolicy fails the call on the first violation.
	ThrowPolicy Policy = "throw"

	// LogPolicy records violations and lets the call through.
	LogPolicy Policy = "log"
)

// Validation
type Validation struct {
	Policy Policy `config:"policy"`
}
