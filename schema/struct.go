// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"context"
	"errors"
	"fmt"
	rf "reflect"
	"strconv"
	"strings"

	"github.com/z5labs/contract/endpoint"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	swaggest "github.com/swaggest/jsonschema-go"
)

// Struct validates values by decoding them into T and checking the
// `validate` struct tags of T. Fields are matched by their `json` tag.
// Decoding is weakly typed so string query and header values decode
// into numeric and boolean fields.
//
// On success the result value is the decoded T.
type Struct[T any] struct {
	validate *validator.Validate
}

// NewStruct initializes a [Struct].
func NewStruct[T any]() *Struct[T] {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field rf.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		default:
			return name
		}
	})

	return &Struct[T]{validate: v}
}

// Validate implements the [endpoint.Schema] interface.
func (s *Struct[T]) Validate(ctx context.Context, value any) endpoint.Result {
	var t T

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &t,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return endpoint.Failure(endpoint.Issue{Message: err.Error()})
	}

	err = dec.Decode(value)
	if err != nil {
		return endpoint.Failure(endpoint.Issue{
			Message: err.Error(),
			Extra:   map[string]any{"tag": "decode"},
		})
	}

	if rf.Indirect(rf.ValueOf(t)).Kind() != rf.Struct {
		return endpoint.Success(t)
	}

	err = s.validate.StructCtx(ctx, t)
	if err == nil {
		return endpoint.Success(t)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return endpoint.Failure(endpoint.Issue{Message: err.Error()})
	}

	issues := make([]endpoint.Issue, len(verrs))
	for i, fe := range verrs {
		extra := map[string]any{"tag": fe.Tag()}
		if fe.Param() != "" {
			extra["param"] = fe.Param()
		}
		issues[i] = endpoint.Issue{
			Message: fieldMessage(fe),
			Path:    namespacePath(fe.Namespace()),
			Extra:   extra,
		}
	}
	return endpoint.Failure(issues...)
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
	return fmt.Sprintf("failed on the '%s=%s' tag", fe.Tag(), fe.Param())
}

// namespacePath converts "T.items[0].id" into ["items", 0, "id"].
func namespacePath(ns string) []any {
	parts := strings.Split(ns, ".")
	if len(parts) > 0 {
		parts = parts[1:]
	}

	var path []any
	for _, part := range parts {
		name, rest, found := strings.Cut(part, "[")
		path = append(path, name)
		for found {
			var key string
			key, rest, _ = strings.Cut(rest, "]")
			if idx, err := strconv.Atoi(key); err == nil {
				path = append(path, idx)
			} else {
				path = append(path, key)
			}
			_, rest, found = strings.Cut(rest, "[")
		}
	}
	return path
}

// JSONSchema implements the [Describer] interface.
func (s *Struct[T]) JSONSchema() (swaggest.Schema, error) {
	return reflectSchema[T]()
}
