// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package specfile

import (
	"io"

	"github.com/z5labs/contract/endpoint"

	"go.yaml.in/yaml/v3"
)

type document struct {
	Endpoints map[string]map[string]specNode `yaml:"endpoints"`
}

type specNode struct {
	Summary     string               `yaml:"summary"`
	Description string               `yaml:"description"`
	Tags        []string             `yaml:"tags"`
	Params      any                  `yaml:"params"`
	Query       any                  `yaml:"query"`
	Body        any                  `yaml:"body"`
	Headers     any                  `yaml:"headers"`
	Responses   map[int]responseNode `yaml:"responses"`
}

type responseNode struct {
	Description string `yaml:"description"`
	Body        any    `yaml:"body"`
	Headers     any    `yaml:"headers"`
}

// Load reads a YAML contract file of the form:
//
//	endpoints:
//	  /users/:id:
//	    get:
//	      params:
//	        type: object
//	        properties:
//	          id: {type: string, pattern: "^[0-9]+$"}
//	      responses:
//	        200:
//	          body: {type: object, required: [id]}
//
// Every schema node is a JSON Schema document.
func Load(r io.Reader) (endpoint.Endpoints, error) {
	var doc document
	err := yaml.NewDecoder(r).Decode(&doc)
	if err != nil && err != io.EOF {
		return nil, err
	}

	endpoints := make(endpoint.Endpoints, len(doc.Endpoints))
	for template, methods := range doc.Endpoints {
		ep := make(endpoint.Endpoint, len(methods))
		for name, node := range methods {
			m, ok := endpoint.ParseMethod(name)
			if !ok {
				return nil, endpoint.UnknownMethodError{Template: template, Method: endpoint.Method(name)}
			}

			spec, err := node.spec(template, name)
			if err != nil {
				return nil, err
			}
			ep[m] = spec
		}
		endpoints[template] = ep
	}

	err = endpoints.Validate()
	if err != nil {
		return nil, err
	}
	return endpoints, nil
}

func (n specNode) spec(template, method string) (*endpoint.Spec, error) {
	spec := &endpoint.Spec{
		Summary:     n.Summary,
		Description: n.Description,
		Tags:        n.Tags,
	}

	fields := []struct {
		name string
		node any
		dst  *endpoint.Schema
	}{
		{"params", n.Params, &spec.Params},
		{"query", n.Query, &spec.Query},
		{"body", n.Body, &spec.Body},
		{"headers", n.Headers, &spec.Headers},
	}
	for _, f := range fields {
		s, err := compileNode(f.node)
		if err != nil {
			return nil, SchemaError{Template: template, Method: method, Field: f.name, Cause: err}
		}
		*f.dst = s
	}

	if len(n.Responses) == 0 {
		return spec, nil
	}

	spec.Responses = make(map[int]endpoint.Response, len(n.Responses))
	for code, rn := range n.Responses {
		body, err := compileNode(rn.Body)
		if err != nil {
			return nil, SchemaError{Template: template, Method: method, Field: "response body", Cause: err}
		}
		headers, err := compileNode(rn.Headers)
		if err != nil {
			return nil, SchemaError{Template: template, Method: method, Field: "response headers", Cause: err}
		}

		spec.Responses[code] = endpoint.Response{
			Description: rn.Description,
			Body:        body,
			Headers:     headers,
		}
	}
	return spec, nil
}
