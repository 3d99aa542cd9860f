// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package specfile

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"slices"
	"strconv"
	"strings"

	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/schema"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// LoadOpenAPI reads the operations of an OpenAPI 3 document.
//
// Parameters are grouped by location into object schemas. Since path,
// query and header values always arrive as strings, integer, number and
// boolean parameter schemas are checked by their string form. Only JSON
// request and response bodies are validated and responses keyed by a
// range or "default" are skipped. References into #/components/schemas
// are resolved against the document's own components.
func LoadOpenAPI(ctx context.Context, data []byte) (endpoint.Endpoints, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}

	err = doc.Validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	components, err := componentSchemas(doc)
	if err != nil {
		return nil, err
	}
	b := &builder{components: components}

	endpoints := make(endpoint.Endpoints, len(doc.Paths))
	for path, item := range doc.Paths {
		if item == nil {
			continue
		}

		template := FromRoutePattern(path)
		ep := make(endpoint.Endpoint)
		for name, op := range item.Operations() {
			m, ok := endpoint.ParseMethod(name)
			if !ok || op == nil {
				continue
			}

			spec, err := b.spec(item.Parameters, op)
			if err != nil {
				return nil, SchemaError{Template: template, Method: string(m), Field: err.field, Cause: err.cause}
			}
			ep[m] = spec
		}
		if len(ep) > 0 {
			endpoints[template] = ep
		}
	}

	err = endpoints.Validate()
	if err != nil {
		return nil, err
	}
	return endpoints, nil
}

// FromRoutePattern converts "{name}" path segments into ":name".
func FromRoutePattern(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			segs[i] = ":" + seg[1:len(seg)-1]
		}
	}
	return strings.Join(segs, "/")
}

func componentSchemas(doc *openapi3.T) (any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Components struct {
			Schemas map[string]any `json:"schemas"`
		} `json:"components"`
	}
	err = json.Unmarshal(b, &raw)
	if err != nil {
		return nil, err
	}
	if len(raw.Components.Schemas) == 0 {
		return nil, nil
	}
	return toJSONSchema(raw.Components.Schemas), nil
}

type builder struct {
	components any
}

type fieldError struct {
	field string
	cause error
}

func (b *builder) spec(common openapi3.Parameters, op *openapi3.Operation) (*endpoint.Spec, *fieldError) {
	spec := &endpoint.Spec{
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        op.Tags,
	}

	params := map[string]*object{
		openapi3.ParameterInPath:   {},
		openapi3.ParameterInQuery:  {},
		openapi3.ParameterInHeader: {},
	}
	for _, ref := range slices.Concat(common, op.Parameters) {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value

		obj, ok := params[p.In]
		if !ok {
			continue
		}

		name := p.Name
		if p.In == openapi3.ParameterInHeader {
			name = strings.ToLower(name)
		}
		node, err := marshalSchema(p.Schema)
		if err != nil {
			return nil, &fieldError{field: p.In, cause: err}
		}
		obj.set(name, stringly(node), p.Required || p.In == openapi3.ParameterInPath)
	}

	var err error
	fields := []struct {
		field string
		obj   *object
		dst   *endpoint.Schema
	}{
		{"params", params[openapi3.ParameterInPath], &spec.Params},
		{"query", params[openapi3.ParameterInQuery], &spec.Query},
		{"headers", params[openapi3.ParameterInHeader], &spec.Headers},
	}
	for _, f := range fields {
		if f.obj.empty() {
			continue
		}
		*f.dst, err = b.compile(f.obj.node())
		if err != nil {
			return nil, &fieldError{field: f.field, cause: err}
		}
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		node, err := jsonBody(op.RequestBody.Value.Content)
		if err != nil {
			return nil, &fieldError{field: "body", cause: err}
		}
		if node != nil {
			if !op.RequestBody.Value.Required {
				node = map[string]any{
					"anyOf": []any{map[string]any{"type": "null"}, node},
				}
			}
			spec.Body, err = b.compile(node)
			if err != nil {
				return nil, &fieldError{field: "body", cause: err}
			}
		}
	}

	for code, ref := range op.Responses {
		status, err := strconv.Atoi(code)
		if err != nil || ref == nil || ref.Value == nil {
			continue
		}

		resp, ferr := b.response(ref.Value)
		if ferr != nil {
			return nil, ferr
		}
		if spec.Responses == nil {
			spec.Responses = make(map[int]endpoint.Response)
		}
		spec.Responses[status] = resp
	}

	return spec, nil
}

func (b *builder) response(r *openapi3.Response) (endpoint.Response, *fieldError) {
	var resp endpoint.Response
	if r.Description != nil {
		resp.Description = *r.Description
	}

	node, err := jsonBody(r.Content)
	if err != nil {
		return resp, &fieldError{field: "response body", cause: err}
	}
	if node != nil {
		resp.Body, err = b.compile(node)
		if err != nil {
			return resp, &fieldError{field: "response body", cause: err}
		}
	}

	headers := &object{}
	for name, ref := range r.Headers {
		if ref == nil || ref.Value == nil {
			continue
		}
		node, err := marshalSchema(ref.Value.Schema)
		if err != nil {
			return resp, &fieldError{field: "response headers", cause: err}
		}
		headers.set(strings.ToLower(name), stringly(node), ref.Value.Required)
	}
	if !headers.empty() {
		resp.Headers, err = b.compile(headers.node())
		if err != nil {
			return resp, &fieldError{field: "response headers", cause: err}
		}
	}

	return resp, nil
}

// compile validates with draft 4 semantics, which OpenAPI 3.0 schemas
// follow, and makes the document components resolvable.
func (b *builder) compile(node map[string]any) (endpoint.Schema, error) {
	if b.components != nil {
		node["components"] = map[string]any{"schemas": b.components}
	}
	return compileNode(node, schema.Draft(jsonschema.Draft4))
}

func jsonBody(content openapi3.Content) (map[string]any, error) {
	for _, ct := range sortedKeys(content) {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			continue
		}
		if mt != "application/json" && !strings.HasSuffix(mt, "+json") {
			continue
		}

		media := content[ct]
		if media == nil || media.Schema == nil {
			return map[string]any{}, nil
		}
		return marshalSchema(media.Schema)
	}
	return nil, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// marshalSchema encodes a schema ref as a JSON Schema node. References
// are kept as "$ref" so recursive schemas stay finite.
func marshalSchema(ref *openapi3.SchemaRef) (map[string]any, error) {
	if ref == nil {
		return map[string]any{}, nil
	}

	b, err := json.Marshal(ref)
	if err != nil {
		return nil, err
	}

	var node map[string]any
	err = json.Unmarshal(b, &node)
	if err != nil {
		return nil, err
	}
	return toJSONSchema(node).(map[string]any), nil
}

// toJSONSchema rewrites the OpenAPI "nullable" keyword into a "null"
// type.
func toJSONSchema(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			v[k] = toJSONSchema(child)
		}

		nullable, _ := v["nullable"].(bool)
		delete(v, "nullable")
		if !nullable {
			return v
		}
		if t, ok := v["type"].(string); ok {
			v["type"] = []any{t, "null"}
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = toJSONSchema(child)
		}
		return v
	default:
		return v
	}
}

var stringPatterns = map[string]string{
	"integer": `^-?[0-9]+$`,
	"number":  `^-?[0-9]+(\.[0-9]+)?([eE][-+]?[0-9]+)?$`,
	"boolean": `^(true|false)$`,
}

// stringly turns a scalar schema into a pattern on its string form.
func stringly(node map[string]any) map[string]any {
	t, _ := node["type"].(string)
	if t == "array" {
		if items, ok := node["items"].(map[string]any); ok {
			node["items"] = stringly(items)
			return map[string]any{
				"anyOf": []any{node, node["items"]},
			}
		}
		return node
	}

	pattern, ok := stringPatterns[t]
	if !ok {
		return node
	}

	out := map[string]any{
		"type":    "string",
		"pattern": pattern,
	}
	if enum, ok := node["enum"].([]any); ok {
		strs := make([]any, len(enum))
		for i, e := range enum {
			strs[i] = fmt.Sprint(e)
		}
		out["enum"] = strs
	}
	if desc, ok := node["description"]; ok {
		out["description"] = desc
	}
	return out
}

type object struct {
	properties map[string]any
	required   []string
}

func (o *object) set(name string, node map[string]any, required bool) {
	if o.properties == nil {
		o.properties = make(map[string]any)
	}
	o.properties[name] = node
	if required && !slices.Contains(o.required, name) {
		o.required = append(o.required, name)
	}
}

func (o *object) empty() bool {
	return len(o.properties) == 0
}

func (o *object) node() map[string]any {
	node := map[string]any{
		"type":       "object",
		"properties": o.properties,
	}
	if len(o.required) > 0 {
		slices.Sort(o.required)
		required := make([]any, len(o.required))
		for i, r := range o.required {
			required[i] = r
		}
		node["required"] = required
	}
	return node
}
