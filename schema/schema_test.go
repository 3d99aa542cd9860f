// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"context"
	"testing"

	"github.com/z5labs/contract/endpoint"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

func TestJSON_Validate(t *testing.T) {
	s := MustCompileJSON(userSchema)

	t.Run("will succeed with the original value", func(t *testing.T) {
		v := map[string]any{"id": "x"}

		res := s.Validate(context.Background(), v)
		if !assert.True(t, res.OK(), res.Issues) {
			return
		}
		assert.Equal(t, v, res.Value)
	})

	t.Run("will report a missing required property", func(t *testing.T) {
		res := s.Validate(context.Background(), map[string]any{})
		if !assert.Len(t, res.Issues, 1) {
			return
		}

		issue := res.Issues[0]
		assert.NotEmpty(t, issue.Message)
		assert.Equal(t, "required", issue.Extra["keyword"])
		assert.Contains(t, issue.Extra["schemaUrl"], "contract.json")
	})

	t.Run("will locate issues inside arrays", func(t *testing.T) {
		res := s.Validate(context.Background(), map[string]any{
			"id":   "x",
			"tags": []any{"a", 1},
		})
		if !assert.Len(t, res.Issues, 1) {
			return
		}
		assert.Equal(t, []any{"tags", 1}, res.Issues[0].Path)
		assert.Equal(t, "type", res.Issues[0].Extra["keyword"])
	})

	t.Run("will validate structs by their json form", func(t *testing.T) {
		type user struct {
			ID string `json:"id"`
		}

		assert.True(t, s.Validate(context.Background(), user{ID: "x"}).OK())
		assert.False(t, s.Validate(context.Background(), user{}).OK())
	})

	t.Run("will reject a value which is not json", func(t *testing.T) {
		res := s.Validate(context.Background(), make(chan int))
		assert.False(t, res.OK())
	})
}

func TestCompileJSON(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the document is not json", func(t *testing.T) {
			_, err := CompileJSON([]byte("{"))
			assert.Error(t, err)
		})

		t.Run("if the document is not a valid schema", func(t *testing.T) {
			_, err := CompileJSON([]byte(`{"type": 5}`))
			assert.Error(t, err)
		})
	})
}

func TestFromDocument(t *testing.T) {
	t.Run("will accept documents decoded from yaml", func(t *testing.T) {
		s, err := FromDocument(map[string]any{
			"type":    "integer",
			"maximum": 10,
		})
		require.NoError(t, err)

		assert.True(t, s.Validate(context.Background(), 3).OK())
		assert.False(t, s.Validate(context.Background(), 11).OK())
	})
}

func TestJSON_JSONSchema(t *testing.T) {
	s := MustCompileJSON(userSchema)

	js, err := s.JSONSchema()
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, js.Required)
	assert.Contains(t, js.Properties, "tags")
}

type createUser struct {
	Name  string `json:"name" validate:"required"`
	Age   int    `json:"age" validate:"gte=0,lte=150"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Items []item `json:"items" validate:"dive"`
}

type item struct {
	ID string `json:"id" validate:"required"`
}

func TestStruct_Validate(t *testing.T) {
	s := NewStruct[createUser]()

	t.Run("will return the decoded value", func(t *testing.T) {
		res := s.Validate(context.Background(), map[string]any{
			"name": "gopher",
			"age":  "12",
		})
		if !assert.True(t, res.OK(), res.Issues) {
			return
		}
		assert.Equal(t, createUser{Name: "gopher", Age: 12}, res.Value)
	})

	t.Run("will report failed tags by json path", func(t *testing.T) {
		res := s.Validate(context.Background(), map[string]any{
			"age":   200,
			"items": []any{map[string]any{}},
		})
		if !assert.Len(t, res.Issues, 3) {
			return
		}

		var paths [][]any
		for _, issue := range res.Issues {
			paths = append(paths, issue.Path)
		}
		assert.Contains(t, paths, []any{"name"})
		assert.Contains(t, paths, []any{"age"})
		assert.Contains(t, paths, []any{"items", 0, "id"})
	})

	t.Run("will report values which cannot be decoded", func(t *testing.T) {
		res := s.Validate(context.Background(), map[string]any{"age": "old"})
		if !assert.False(t, res.OK()) {
			return
		}
		assert.Equal(t, "decode", res.Issues[0].Extra["tag"])
	})

	t.Run("will describe T as a json schema", func(t *testing.T) {
		js, err := s.JSONSchema()
		require.NoError(t, err)
		assert.Contains(t, js.Properties, "name")
	})
}

func TestNamespacePath(t *testing.T) {
	assert.Equal(t, []any{"items", 0, "id"}, namespacePath("createUser.items[0].id"))
	assert.Equal(t, []any{"labels", "env"}, namespacePath("createUser.labels[env]"))
	assert.Equal(t, []any{"name"}, namespacePath("createUser.name"))
}

func TestReflect(t *testing.T) {
	type query struct {
		Page int `json:"page" required:"true" minimum:"1"`
	}

	s, err := Reflect[query]()
	require.NoError(t, err)

	assert.True(t, s.Validate(context.Background(), map[string]any{"page": 1}).OK())
	assert.False(t, s.Validate(context.Background(), map[string]any{"page": 0}).OK())
	assert.False(t, s.Validate(context.Background(), map[string]any{}).OK())
}

var (
	_ endpoint.Schema = (*JSON)(nil)
	_ endpoint.Schema = (*Struct[createUser])(nil)
	_ Describer       = (*JSON)(nil)
	_ Describer       = (*Struct[createUser])(nil)
)
