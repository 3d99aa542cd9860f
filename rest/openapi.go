// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"slices"
	"strconv"

	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/schema"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

// describe returns the JSON Schema of s if it can describe itself.
func describe(s endpoint.Schema) (*jsonschema.Schema, error) {
	d, ok := s.(schema.Describer)
	if !ok {
		return nil, nil
	}
	js, err := d.JSONSchema()
	if err != nil {
		return nil, err
	}
	return &js, nil
}

func schemaOrRef(sb jsonschema.SchemaOrBool) *openapi3.SchemaOrRef {
	var sor openapi3.SchemaOrRef
	sor.FromJSONSchema(sb)
	return &sor
}

func stringSchema() jsonschema.SchemaOrBool {
	var s jsonschema.Schema
	s.AddType(jsonschema.String)
	return s.ToSchemaOrBool()
}

func jsonContent(js *jsonschema.Schema) map[string]openapi3.MediaType {
	return map[string]openapi3.MediaType{
		"application/json": {
			Schema: schemaOrRef(js.ToSchemaOrBool()),
		},
	}
}

// addOperations documents every declared endpoint. Fields whose schema
// is not a [schema.Describer] are documented without a schema.
func addOperations(def *openapi3.Spec, endpoints endpoint.Endpoints) error {
	for _, template := range endpoints.Templates() {
		for _, m := range endpoint.Methods {
			spec, ok := endpoints.Lookup(template, m)
			if !ok {
				continue
			}

			op, err := operationOf(template, spec)
			if err != nil {
				return err
			}

			err = def.AddOperation(m.HTTP(), RoutePattern(template), op)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func operationOf(template string, spec *endpoint.Spec) (openapi3.Operation, error) {
	op := openapi3.Operation{
		Tags: spec.Tags,
	}
	if spec.Summary != "" {
		op.Summary = ptr.Ref(spec.Summary)
	}
	if spec.Description != "" {
		op.Description = ptr.Ref(spec.Description)
	}

	params, err := describe(spec.Params)
	if err != nil {
		return op, err
	}
	for _, name := range templateParams(template) {
		p := &openapi3.Parameter{
			Name:     name,
			In:       openapi3.ParameterInPath,
			Required: ptr.Ref(true),
			Schema:   schemaOrRef(stringSchema()),
		}
		if params != nil {
			if prop, ok := params.Properties[name]; ok {
				p.Schema = schemaOrRef(prop)
			}
		}
		op.Parameters = append(op.Parameters, openapi3.ParameterOrRef{Parameter: p})
	}

	for _, in := range []struct {
		schema endpoint.Schema
		in     openapi3.ParameterIn
	}{
		{spec.Query, openapi3.ParameterInQuery},
		{spec.Headers, openapi3.ParameterInHeader},
	} {
		js, err := describe(in.schema)
		if err != nil {
			return op, err
		}
		op.Parameters = append(op.Parameters, objectParameters(js, in.in)...)
	}

	body, err := describe(spec.Body)
	if err != nil {
		return op, err
	}
	if body != nil {
		op.RequestBody = &openapi3.RequestBodyOrRef{
			RequestBody: &openapi3.RequestBody{
				Required: ptr.Ref(true),
				Content:  jsonContent(body),
			},
		}
	} else if spec.Body != nil {
		op.RequestBody = &openapi3.RequestBodyOrRef{
			RequestBody: &openapi3.RequestBody{
				Content: map[string]openapi3.MediaType{"application/json": {}},
			},
		}
	}

	responses := make(map[string]openapi3.ResponseOrRef, len(spec.Responses))
	for code, resp := range spec.Responses {
		r := &openapi3.Response{
			Description: endpoint.StatusText(code, resp.Description),
		}

		js, err := describe(resp.Body)
		if err != nil {
			return op, err
		}
		if js != nil {
			r.Content = jsonContent(js)
		}
		responses[strconv.Itoa(code)] = openapi3.ResponseOrRef{Response: r}
	}
	if len(responses) == 0 {
		responses["default"] = openapi3.ResponseOrRef{
			Response: &openapi3.Response{Description: "Undocumented response"},
		}
	}
	op.Responses = openapi3.Responses{
		MapOfResponseOrRefValues: responses,
	}

	return op, nil
}

// objectParameters documents each property of an object schema as a
// parameter.
func objectParameters(js *jsonschema.Schema, in openapi3.ParameterIn) []openapi3.ParameterOrRef {
	if js == nil {
		return nil
	}

	names := make([]string, 0, len(js.Properties))
	for name := range js.Properties {
		names = append(names, name)
	}
	slices.Sort(names)

	params := make([]openapi3.ParameterOrRef, 0, len(names))
	for _, name := range names {
		params = append(params, openapi3.ParameterOrRef{
			Parameter: &openapi3.Parameter{
				Name:     name,
				In:       in,
				Required: ptr.Ref(slices.Contains(js.Required, name)),
				Schema:   schemaOrRef(js.Properties[name]),
			},
		})
	}
	return params
}
