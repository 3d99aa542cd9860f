// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint declares HTTP endpoint contracts.
//
// A contract is an [Endpoints] value: path templates mapped to the
// methods they accept, with a [Spec] per method describing which request
// fields and responses are validated and by which [Schema]. Path
// templates use ":name" segments for path parameters, e.g. "/users/:id".
//
// Endpoints are read only once constructed and may be shared by any
// number of goroutines.
package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Method is a lower case HTTP method name.
type Method string

const (
	Get     Method = "get"
	Post    Method = "post"
	Put     Method = "put"
	Delete  Method = "delete"
	Patch   Method = "patch"
	Options Method = "options"
	Head    Method = "head"
)

// Methods lists every supported [Method].
var Methods = []Method{Get, Post, Put, Delete, Patch, Options, Head}

// ParseMethod case-insensitively parses s into a [Method].
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(s))
	return m, slices.Contains(Methods, m)
}

// HTTP returns the upper case form used on the wire.
func (m Method) HTTP() string {
	return strings.ToUpper(string(m))
}

// Field names a validated part of a request or response.
type Field string

const (
	Params  Field = "params"
	Query   Field = "query"
	Body    Field = "body"
	Headers Field = "headers"
)

// RequestFields are the fields of a request in the order they are validated.
var RequestFields = []Field{Params, Query, Body, Headers}

// ResponseFields are the fields of a response in the order they are validated.
var ResponseFields = []Field{Body, Headers}

// Schema validates a raw value. Implementations may block, e.g. on a
// remote lookup, but must respect ctx.
type Schema interface {
	Validate(ctx context.Context, value any) Result
}

// SchemaFunc is a func type of the [Schema] interface.
type SchemaFunc func(context.Context, any) Result

// Validate implements the [Schema] interface.
func (f SchemaFunc) Validate(ctx context.Context, value any) Result {
	return f(ctx, value)
}

// Response describes one status code of an endpoint.
type Response struct {
	Description string
	Body        Schema
	Headers     Schema
}

// Schema returns the schema declared for the given response field.
func (r Response) Schema(f Field) Schema {
	switch f {
	case Body:
		return r.Body
	case Headers:
		return r.Headers
	default:
		return nil
	}
}

// Spec describes a single method on a single path template. A nil
// schema means the field is not validated.
type Spec struct {
	Summary     string
	Description string
	Tags        []string

	Params  Schema
	Query   Schema
	Body    Schema
	Headers Schema

	Responses map[int]Response
}

// Schema returns the schema declared for the given request field.
func (s *Spec) Schema(f Field) Schema {
	switch f {
	case Params:
		return s.Params
	case Query:
		return s.Query
	case Body:
		return s.Body
	case Headers:
		return s.Headers
	default:
		return nil
	}
}

// Endpoint maps methods to their spec for one path template.
type Endpoint map[Method]*Spec

// Endpoints maps path templates to their [Endpoint].
type Endpoints map[string]Endpoint

// Templates returns every declared path template in lexical order.
func (e Endpoints) Templates() []string {
	templates := make([]string, 0, len(e))
	for t := range e {
		templates = append(templates, t)
	}
	slices.Sort(templates)
	return templates
}

// Lookup returns the spec declared for the method on the template.
func (e Endpoints) Lookup(template string, m Method) (*Spec, bool) {
	ep, ok := e[template]
	if !ok {
		return nil, false
	}
	spec, ok := ep[m]
	if !ok || spec == nil {
		return nil, false
	}
	return spec, true
}

// InvalidTemplateError
type InvalidTemplateError struct {
	Template string
	Reason   string
}

func (e InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid path template %q: %s", e.Template, e.Reason)
}

// UnknownMethodError
type UnknownMethodError struct {
	Template string
	Method   Method
}

func (e UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %q declared on path template %q", e.Method, e.Template)
}

// Validate checks that every template is well formed and every declared
// method is known.
func (e Endpoints) Validate() error {
	for _, t := range e.Templates() {
		if !strings.HasPrefix(t, "/") {
			return InvalidTemplateError{Template: t, Reason: "must start with /"}
		}

		seen := make(map[string]bool)
		for _, seg := range strings.Split(t, "/") {
			name, ok := strings.CutPrefix(seg, ":")
			if !ok {
				continue
			}
			if name == "" {
				return InvalidTemplateError{Template: t, Reason: "path parameter without a name"}
			}
			if seen[name] {
				return InvalidTemplateError{Template: t, Reason: fmt.Sprintf("duplicate path parameter %q", name)}
			}
			seen[name] = true
		}

		for m := range e[t] {
			if !slices.Contains(Methods, m) {
				return UnknownMethodError{Template: t, Method: m}
			}
		}
	}
	return nil
}

// StatusText is a helper for response descriptions which defaults to
// the standard text of the status code.
func StatusText(code int, description string) string {
	if description != "" {
		return description
	}
	return http.StatusText(code)
}
