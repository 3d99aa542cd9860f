// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package validator turns declared endpoint contracts into lazily
// evaluated, per-field validators and runs them.
package validator

import (
	"context"

	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/pathmatch"
)

// RequestInput is a snapshot of an HTTP request. Path may either be a
// declared template or a concrete path.
type RequestInput struct {
	Path    string
	Method  string
	Params  map[string]string
	Query   map[string]any
	Body    any
	Headers map[string]any
}

// ResponseInput is a snapshot of an HTTP response to a request for
// Method on Path.
type ResponseInput struct {
	Path       string
	Method     string
	StatusCode int
	Body       any
	Headers    map[string]any
}

// Generator builds validator bags from a fixed set of endpoints.
// It is safe for concurrent use.
type Generator struct {
	endpoints endpoint.Endpoints
	matcher   *pathmatch.Matcher
}

// NewGenerator initializes a [Generator].
func NewGenerator(endpoints endpoint.Endpoints) *Generator {
	return &Generator{
		endpoints: endpoints,
		matcher:   pathmatch.New(endpoints.Templates()),
	}
}

// Endpoints returns the endpoints the generator was built from.
func (g *Generator) Endpoints() endpoint.Endpoints {
	return g.endpoints
}

// Matcher returns the path matcher over the declared templates.
func (g *Generator) Matcher() *pathmatch.Matcher {
	return g.matcher
}

// Resolve finds the spec for the method on the path. The method is
// checked first, then the path and finally the method on the matched
// template. The returned match holds the declared template and, for a
// concrete path, the params captured from it.
func (g *Generator) Resolve(path, method string) (pathmatch.Match, *endpoint.Spec, error) {
	m, ok := endpoint.ParseMethod(method)
	if !ok {
		return pathmatch.Match{}, nil, &MethodInvalidError{Actual: method}
	}

	match := pathmatch.Match{Template: path}
	if _, ok := g.endpoints[path]; !ok {
		var err error
		match, err = g.matcher.Best(path)
		if err != nil {
			return pathmatch.Match{}, nil, &PathNotFoundError{Actual: path}
		}
	}

	spec, ok := g.endpoints.Lookup(match.Template, m)
	if !ok {
		return match, nil, &MethodNotFoundError{Actual: method}
	}
	return match, spec, nil
}

// Request returns a bag of validators for every request field declared
// by the matched spec. No schema runs until its validator is called.
// Params captured from a concrete path are used when none are given.
// The error is always an [InputError].
func (g *Generator) Request(in RequestInput) (Bag, error) {
	match, spec, err := g.Resolve(in.Path, in.Method)
	if err != nil {
		return nil, err
	}

	params := in.Params
	if len(params) == 0 {
		params = match.Params
	}

	values := map[endpoint.Field]any{
		endpoint.Params:  paramsValue(params),
		endpoint.Query:   in.Query,
		endpoint.Body:    in.Body,
		endpoint.Headers: in.Headers,
	}

	bag := make(Bag, len(endpoint.RequestFields))
	for _, f := range endpoint.RequestFields {
		s := spec.Schema(f)
		if s == nil {
			continue
		}
		bag[f] = bind(s, values[f])
	}
	return bag, nil
}

// Response returns a bag of validators for the response fields declared
// for the status code. An undeclared status code yields an empty bag.
// The error is always an [InputError].
func (g *Generator) Response(in ResponseInput) (Bag, error) {
	_, spec, err := g.Resolve(in.Path, in.Method)
	if err != nil {
		return nil, err
	}

	resp, ok := spec.Responses[in.StatusCode]
	if !ok {
		return Bag{}, nil
	}

	values := map[endpoint.Field]any{
		endpoint.Body:    in.Body,
		endpoint.Headers: in.Headers,
	}

	bag := make(Bag, len(endpoint.ResponseFields))
	for _, f := range endpoint.ResponseFields {
		s := resp.Schema(f)
		if s == nil {
			continue
		}
		bag[f] = bind(s, values[f])
	}
	return bag, nil
}

func bind(s endpoint.Schema, v any) Func {
	return func(ctx context.Context) endpoint.Result {
		return s.Validate(ctx, v)
	}
}

func paramsValue(params map[string]string) map[string]any {
	m := make(map[string]any, len(params))
	for k, v := range params {
		m[k] = v
	}
	return m
}
