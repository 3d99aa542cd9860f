// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/z5labs/contract/endpoint"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireKeys fails unless the value is a map holding every key.
func requireKeys(keys ...string) endpoint.Schema {
	return endpoint.SchemaFunc(func(_ context.Context, v any) endpoint.Result {
		m, ok := v.(map[string]any)
		if !ok {
			return endpoint.Failure(endpoint.Issue{Message: "expected object"})
		}
		var issues []endpoint.Issue
		for _, k := range keys {
			if _, ok := m[k]; !ok {
				issues = append(issues, endpoint.Issue{Message: "required", Path: []any{k}})
			}
		}
		if len(issues) > 0 {
			return endpoint.Failure(issues...)
		}
		return endpoint.Success(v)
	})
}

func usersEndpoints() endpoint.Endpoints {
	return endpoint.Endpoints{
		"/users": {
			endpoint.Get: &endpoint.Spec{
				Query: requireKeys("page"),
				Responses: map[int]endpoint.Response{
					200: {Body: requireKeys("users")},
				},
			},
			endpoint.Post: &endpoint.Spec{
				Body:    requireKeys("name"),
				Headers: requireKeys("content-type"),
				Responses: map[int]endpoint.Response{
					201: {Body: requireKeys("id"), Headers: requireKeys("location")},
				},
			},
		},
		"/users/:id": {
			endpoint.Get: &endpoint.Spec{
				Params: requireKeys("id"),
				Responses: map[int]endpoint.Response{
					200: {Body: requireKeys("id")},
				},
			},
		},
	}
}

func TestGenerator_Request(t *testing.T) {
	g := NewGenerator(usersEndpoints())

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the method is not an http method", func(t *testing.T) {
			_, err := g.Request(RequestInput{Path: "/users", Method: "FETCH"})

			var merr *MethodInvalidError
			if !assert.ErrorAs(t, err, &merr) {
				return
			}

			issue := merr.Issue()
			assert.Equal(t, "MethodInvalid: FETCH", issue.Message)
			assert.Equal(t, "MethodInvalid", issue.Extra["error"])
			assert.Equal(t, "FETCH", issue.Extra["actual"])
		})

		t.Run("if the method is checked before the path", func(t *testing.T) {
			_, err := g.Request(RequestInput{Path: "/nope", Method: "FETCH"})
			assert.ErrorAs(t, err, new(*MethodInvalidError))
		})

		t.Run("if no template matches the path", func(t *testing.T) {
			_, err := g.Request(RequestInput{Path: "/books/1", Method: "GET"})

			var perr *PathNotFoundError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}

			issue := perr.Issue()
			assert.Equal(t, "path does not exist in endpoints", issue.Message)
			assert.Equal(t, "path", issue.Extra["target"])
			assert.Equal(t, "/books/1", issue.Extra["actual"])
		})

		t.Run("if the matched template does not declare the method", func(t *testing.T) {
			_, err := g.Request(RequestInput{Path: "/users/1", Method: "DELETE"})

			var merr *MethodNotFoundError
			if !assert.ErrorAs(t, err, &merr) {
				return
			}

			issue := merr.Issue()
			assert.Equal(t, "method does not exist in endpoint", issue.Message)
			assert.Equal(t, "method", issue.Extra["target"])
			assert.Equal(t, "DELETE", issue.Extra["actual"])
		})
	})

	t.Run("will only include declared fields", func(t *testing.T) {
		bag, err := g.Request(RequestInput{Path: "/users", Method: "get"})
		require.NoError(t, err)

		_, ok := bag.Get(endpoint.Query)
		assert.True(t, ok)
		_, ok = bag.Get(endpoint.Body)
		assert.False(t, ok)
		assert.Len(t, bag, 1)
	})

	t.Run("will resolve a declared template directly", func(t *testing.T) {
		bag, err := g.Request(RequestInput{
			Path:   "/users/:id",
			Method: "GET",
			Params: map[string]string{"id": "1"},
		})
		require.NoError(t, err)
		assert.True(t, bag.Params(context.Background()).OK())
	})

	t.Run("will bind the params captured from a concrete path", func(t *testing.T) {
		bag, err := g.Request(RequestInput{
			Path:   "/users/1",
			Method: "GET",
		})
		require.NoError(t, err)

		res := bag.Params(context.Background())
		require.True(t, res.OK())
		assert.Equal(t, map[string]any{"id": "1"}, res.Value)
	})

	t.Run("will prefer the given params over the captured ones", func(t *testing.T) {
		match, _, err := g.Resolve("/users/1", "GET")
		require.NoError(t, err)
		assert.Equal(t, "/users/:id", match.Template)
		assert.Equal(t, map[string]string{"id": "1"}, match.Params)

		bag, err := g.Request(RequestInput{
			Path:   "/users/1",
			Method: "GET",
			Params: map[string]string{"id": "2"},
		})
		require.NoError(t, err)

		res := bag.Params(context.Background())
		require.True(t, res.OK())
		assert.Equal(t, map[string]any{"id": "2"}, res.Value)
	})

	t.Run("will not run any schema until a validator is called", func(t *testing.T) {
		var calls atomic.Int32
		counting := endpoint.SchemaFunc(func(_ context.Context, v any) endpoint.Result {
			calls.Add(1)
			return endpoint.Success(v)
		})
		g := NewGenerator(endpoint.Endpoints{
			"/": {endpoint.Post: &endpoint.Spec{Query: counting, Body: counting, Headers: counting}},
		})

		bag, err := g.Request(RequestInput{Path: "/", Method: "POST"})
		require.NoError(t, err)
		assert.Equal(t, int32(0), calls.Load())

		bag.Body(context.Background())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("will return the same result each time a validator is called", func(t *testing.T) {
		bag, err := g.Request(RequestInput{
			Path:    "/users",
			Method:  "POST",
			Body:    map[string]any{},
			Headers: map[string]any{"content-type": "application/json"},
		})
		require.NoError(t, err)

		first := bag.Body(context.Background())
		second := bag.Body(context.Background())
		assert.Equal(t, first, second)
		assert.False(t, first.OK())
	})

	t.Run("will pass undeclared fields through", func(t *testing.T) {
		bag, err := g.Request(RequestInput{Path: "/users", Method: "GET"})
		require.NoError(t, err)

		res := bag.Headers(context.Background())
		assert.True(t, res.OK())
		assert.Nil(t, res.Value)
	})
}

func TestGenerator_Response(t *testing.T) {
	g := NewGenerator(usersEndpoints())

	t.Run("will return an empty bag for an undeclared status code", func(t *testing.T) {
		bag, err := g.Response(ResponseInput{Path: "/users", Method: "GET", StatusCode: 500})
		require.NoError(t, err)
		assert.Empty(t, bag)
	})

	t.Run("will validate the declared response fields", func(t *testing.T) {
		bag, err := g.Response(ResponseInput{
			Path:       "/users",
			Method:     "POST",
			StatusCode: 201,
			Body:       map[string]any{"id": "1"},
			Headers:    map[string]any{},
		})
		require.NoError(t, err)

		assert.True(t, bag.Body(context.Background()).OK())
		assert.False(t, bag.Headers(context.Background()).OK())
	})

	t.Run("will return an error if the path is not declared", func(t *testing.T) {
		_, err := g.Response(ResponseInput{Path: "", Method: "GET", StatusCode: 200})
		assert.ErrorAs(t, err, new(*PathNotFoundError))
	})
}
