// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package schema adapts schema libraries to [endpoint.Schema].
package schema

import (
	"github.com/swaggest/jsonschema-go"
)

// Describer is implemented by schemas which can be rendered as a JSON
// Schema, e.g. for an OpenAPI document.
type Describer interface {
	JSONSchema() (jsonschema.Schema, error)
}

func reflectSchema[T any]() (jsonschema.Schema, error) {
	var reflector jsonschema.Reflector
	return reflector.Reflect(new(T), jsonschema.InlineRefs)
}
