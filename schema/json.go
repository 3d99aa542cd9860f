// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/z5labs/contract/endpoint"

	"github.com/santhosh-tekuri/jsonschema/v6"
	swaggest "github.com/swaggest/jsonschema-go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// JSONOptions
type JSONOptions struct {
	draft      *jsonschema.Draft
	url        string
	skipFormat bool
}

// JSONOption
type JSONOption interface {
	ApplyJSONOption(*JSONOptions)
}

type jsonOptionFunc func(*JSONOptions)

func (f jsonOptionFunc) ApplyJSONOption(jo *JSONOptions) {
	f(jo)
}

// Draft sets the JSON Schema draft used for documents which do not
// declare one with "$schema". The default is draft 2020-12.
func Draft(d *jsonschema.Draft) JSONOption {
	return jsonOptionFunc(func(jo *JSONOptions) {
		jo.draft = d
	})
}

// URL identifies the schema resource. It shows up as the prefix of the
// schemaUrl of every issue.
func URL(url string) JSONOption {
	return jsonOptionFunc(func(jo *JSONOptions) {
		jo.url = url
	})
}

// IgnoreFormat disables asserting the "format" keyword.
func IgnoreFormat() JSONOption {
	return jsonOptionFunc(func(jo *JSONOptions) {
		jo.skipFormat = true
	})
}

// JSON validates values against a compiled JSON Schema.
type JSON struct {
	doc    any
	schema *jsonschema.Schema
}

// CompileJSON compiles a JSON encoded JSON Schema document.
func CompileJSON(doc []byte, opts ...JSONOption) (*JSON, error) {
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	return compile(v, opts...)
}

// MustCompileJSON is like [CompileJSON] but panics if the document does
// not compile.
func MustCompileJSON(doc string, opts ...JSONOption) *JSON {
	s, err := CompileJSON([]byte(doc), opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// FromDocument compiles an already decoded JSON Schema document, e.g.
// one read from YAML.
func FromDocument(doc any, opts ...JSONOption) (*JSON, error) {
	v, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	return compile(v, opts...)
}

func compile(doc any, opts ...JSONOption) (*JSON, error) {
	jo := &JSONOptions{
		url: "contract.json",
	}
	for _, opt := range opts {
		opt.ApplyJSONOption(jo)
	}

	c := jsonschema.NewCompiler()
	if !jo.skipFormat {
		c.AssertFormat()
	}
	if jo.draft != nil {
		c.DefaultDraft(jo.draft)
	}

	err := c.AddResource(jo.url, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	s, err := c.Compile(jo.url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &JSON{doc: doc, schema: s}, nil
}

// normalize converts any Go value into the shape produced by decoding
// JSON, with numbers as [json.Number].
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

// Validate implements the [endpoint.Schema] interface. The value is
// passed through a JSON round trip first, so structs are validated by
// their JSON form.
func (s *JSON) Validate(_ context.Context, value any) endpoint.Result {
	inst, err := normalize(value)
	if err != nil {
		return endpoint.Failure(endpoint.Issue{
			Message: fmt.Sprintf("value is not representable as json: %s", err),
			Extra:   map[string]any{"keyword": "json"},
		})
	}

	err = s.schema.Validate(inst)
	if err == nil {
		return endpoint.Success(value)
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return endpoint.Failure(endpoint.Issue{Message: err.Error()})
	}

	var issues []endpoint.Issue
	collect(verr, inst, &issues)
	return endpoint.Failure(issues...)
}

func collect(verr *jsonschema.ValidationError, inst any, issues *[]endpoint.Issue) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			collect(cause, inst, issues)
		}
		return
	}

	*issues = append(*issues, endpoint.Issue{
		Message: verr.ErrorKind.LocalizedString(printer),
		Path:    instancePath(inst, verr.InstanceLocation),
		Extra: map[string]any{
			"keyword":   strings.Join(verr.ErrorKind.KeywordPath(), "/"),
			"schemaUrl": verr.SchemaURL,
		},
	})
}

// instancePath turns a JSON pointer into object keys and array indexes
// by walking the instance it points into.
func instancePath(inst any, loc []string) []any {
	if len(loc) == 0 {
		return nil
	}

	path := make([]any, len(loc))
	cur := inst
	for i, tok := range loc {
		switch v := cur.(type) {
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(v) {
				path[i] = tok
				cur = nil
				continue
			}
			path[i] = idx
			cur = v[idx]
		case map[string]any:
			path[i] = tok
			cur = v[tok]
		default:
			path[i] = tok
			cur = nil
		}
	}
	return path
}

// JSONSchema implements the [Describer] interface.
func (s *JSON) JSONSchema() (swaggest.Schema, error) {
	var js swaggest.Schema
	b, err := json.Marshal(s.doc)
	if err != nil {
		return js, err
	}
	err = json.Unmarshal(b, &js)
	return js, err
}

// Reflect builds a JSON Schema from the JSON form of T, honoring the
// struct tags understood by swaggest/jsonschema-go, e.g. `required:"true"`
// and `minLength:"1"`.
func Reflect[T any](opts ...JSONOption) (*JSON, error) {
	js, err := reflectSchema[T]()
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(js)
	if err != nil {
		return nil, err
	}
	return CompileJSON(b, opts...)
}
