// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	t.Run("will be case insensitive", func(t *testing.T) {
		for _, s := range []string{"GET", "get", "Get"} {
			m, ok := ParseMethod(s)
			if !assert.True(t, ok, s) {
				return
			}
			assert.Equal(t, Get, m)
		}
	})

	t.Run("will reject unknown methods", func(t *testing.T) {
		_, ok := ParseMethod("TRACE")
		assert.False(t, ok)

		_, ok = ParseMethod("")
		assert.False(t, ok)
	})

	t.Run("will round trip to the wire form", func(t *testing.T) {
		assert.Equal(t, "DELETE", Delete.HTTP())
	})
}

func TestEndpoints_Lookup(t *testing.T) {
	spec := &Spec{Summary: "get user"}
	eps := Endpoints{
		"/users/:id": {Get: spec, Post: nil},
	}

	t.Run("will return a declared spec", func(t *testing.T) {
		s, ok := eps.Lookup("/users/:id", Get)
		if !assert.True(t, ok) {
			return
		}
		assert.Same(t, spec, s)
	})

	t.Run("will treat a nil spec as undeclared", func(t *testing.T) {
		_, ok := eps.Lookup("/users/:id", Post)
		assert.False(t, ok)
	})

	t.Run("will not find an undeclared template", func(t *testing.T) {
		_, ok := eps.Lookup("/users", Get)
		assert.False(t, ok)
	})
}

func TestEndpoints_Templates(t *testing.T) {
	eps := Endpoints{
		"/users/:id": {},
		"/":          {},
		"/users":     {},
	}
	assert.Equal(t, []string{"/", "/users", "/users/:id"}, eps.Templates())
}

func TestEndpoints_Validate(t *testing.T) {
	t.Run("will accept well formed templates", func(t *testing.T) {
		eps := Endpoints{
			"/":                        {Get: &Spec{}},
			"/users/:id/books/:bookId": {Get: &Spec{}, Delete: &Spec{}},
		}
		assert.NoError(t, eps.Validate())
	})

	t.Run("will return an error", func(t *testing.T) {
		testCases := []struct {
			Name      string
			Endpoints Endpoints
		}{
			{
				Name:      "if a template is relative",
				Endpoints: Endpoints{"users": {}},
			},
			{
				Name:      "if a path parameter has no name",
				Endpoints: Endpoints{"/users/:": {}},
			},
			{
				Name:      "if a path parameter is repeated",
				Endpoints: Endpoints{"/a/:id/b/:id": {}},
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				err := testCase.Endpoints.Validate()

				var terr InvalidTemplateError
				if !assert.ErrorAs(t, err, &terr) {
					return
				}
				assert.NotEmpty(t, terr.Error())
			})
		}

		t.Run("if a method is unknown", func(t *testing.T) {
			err := Endpoints{"/": {"trace": &Spec{}}}.Validate()

			var merr UnknownMethodError
			assert.ErrorAs(t, err, &merr)
		})
	})
}

func TestSpec_Schema(t *testing.T) {
	body := SchemaFunc(func(ctx context.Context, v any) Result { return Success(v) })
	spec := &Spec{Body: body}

	assert.NotNil(t, spec.Schema(Body))
	assert.Nil(t, spec.Schema(Query))
	assert.Nil(t, spec.Schema(Field("cookies")))

	resp := Response{Headers: body}
	assert.NotNil(t, resp.Schema(Headers))
	assert.Nil(t, resp.Schema(Body))
	assert.Nil(t, resp.Schema(Params))
}

func TestIssue_MarshalJSON(t *testing.T) {
	t.Run("will flatten extra fields", func(t *testing.T) {
		b, err := json.Marshal(Issue{
			Message: "path does not exist in endpoints",
			Extra: map[string]any{
				"target": "path",
				"actual": "/nope",
			},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"message":"path does not exist in endpoints","target":"path","actual":"/nope"}`, string(b))
	})

	t.Run("will include the path if present", func(t *testing.T) {
		b, err := json.Marshal(Issue{Message: "required", Path: []any{"items", 0, "id"}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"message":"required","path":["items",0,"id"]}`, string(b))
	})
}

func TestResult_OK(t *testing.T) {
	assert.True(t, Success(nil).OK())
	assert.False(t, Failure(Issue{Message: "bad"}).OK())
}
