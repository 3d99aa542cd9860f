// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package specfile loads endpoint declarations from contract files.
//
// Two formats are understood: a YAML document listing endpoints with
// JSON Schema nodes, see [Load], and OpenAPI 3 documents, see
// [LoadOpenAPI].
package specfile

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/schema"

	"go.yaml.in/yaml/v3"
)

// SchemaError reports a schema node which failed to compile.
type SchemaError struct {
	Template string
	Method   string
	Field    string
	Cause    error
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("failed to compile %s schema of %s %s: %s", e.Field, e.Method, e.Template, e.Cause)
}

// Unwrap
func (e SchemaError) Unwrap() error {
	return e.Cause
}

// LoadFile reads a contract file, detecting OpenAPI documents by their
// root "openapi" key.
func LoadFile(ctx context.Context, path string) (endpoint.Endpoints, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	isOpenAPI, err := detectOpenAPI(b)
	if err != nil {
		return nil, err
	}
	if isOpenAPI {
		return LoadOpenAPI(ctx, b)
	}
	return Load(bytes.NewReader(b))
}

func detectOpenAPI(b []byte) (bool, error) {
	var root map[string]any
	err := yaml.Unmarshal(b, &root)
	if err != nil {
		return false, fmt.Errorf("failed to parse contract file: %w", err)
	}
	_, ok := root["openapi"]
	return ok, nil
}

// compileNode compiles a decoded schema node. An absent node means the
// field is not validated.
func compileNode(node any, opts ...schema.JSONOption) (endpoint.Schema, error) {
	if node == nil {
		return nil, nil
	}
	s, err := schema.FromDocument(node, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}
