// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/z5labs/contract/validator"

	"github.com/stretchr/testify/require"
)

func TestRoutePattern(t *testing.T) {
	testCases := []struct {
		Name     string
		Template string
		Pattern  string
	}{
		{Name: "root", Template: "/", Pattern: "/"},
		{Name: "static", Template: "/books", Pattern: "/books"},
		{Name: "single param", Template: "/books/:id", Pattern: "/books/{id}"},
		{Name: "many params", Template: "/a/:x/b/:y", Pattern: "/a/{x}/b/{y}"},
		{Name: "bare colon", Template: "/a/:", Pattern: "/a/:"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			require.Equal(t, testCase.Pattern, RoutePattern(testCase.Template))
		})
	}
}

func TestTemplate(t *testing.T) {
	testCases := []struct {
		Name     string
		Pattern  string
		Template string
	}{
		{Name: "static", Pattern: "/books", Template: "/books"},
		{Name: "param", Pattern: "/books/{id}", Template: "/books/:id"},
		{Name: "regexp param", Pattern: "/books/{id:[0-9]+}", Template: "/books/:id"},
		{Name: "wildcard", Pattern: "/files/*", Template: "/files/*"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			require.Equal(t, testCase.Template, Template(testCase.Pattern))
		})
	}
}

func TestTemplateParams(t *testing.T) {
	t.Run("will return params in order", func(t *testing.T) {
		require.Equal(t, []string{"x", "y"}, templateParams("/a/:x/b/:y"))
		require.Empty(t, templateParams("/a/b"))
	})
}

func TestFromServeMux(t *testing.T) {
	testCases := []struct {
		Name       string
		Pattern    string
		Path       string
		PathValues map[string]string
		Template   string
		Params     map[string]string
	}{
		{
			Name:       "method and param",
			Pattern:    "GET /books/{id}",
			Path:       "/books/7",
			PathValues: map[string]string{"id": "7"},
			Template:   "/books/:id",
			Params:     map[string]string{"id": "7"},
		},
		{
			Name:       "host",
			Pattern:    "example.com/books/{id}",
			Path:       "/books/7",
			PathValues: map[string]string{"id": "7"},
			Template:   "/books/:id",
			Params:     map[string]string{"id": "7"},
		},
		{
			Name:     "exact trailing slash",
			Pattern:  "GET /books/{$}",
			Path:     "/books/",
			Template: "/books/",
			Params:   map[string]string{},
		},
		{
			Name:     "subtree",
			Pattern:  "/books/",
			Path:     "/books/7/pages",
			Template: "/books/7/pages",
			Params:   map[string]string{},
		},
		{
			Name:       "remaining segments",
			Pattern:    "GET /files/{path...}",
			Path:       "/files/a/b",
			PathValues: map[string]string{"path": "a/b"},
			Template:   "/files/a/b",
			Params:     map[string]string{"path": "a/b"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, testCase.Path, nil)
			r.Pattern = testCase.Pattern
			for k, v := range testCase.PathValues {
				r.SetPathValue(k, v)
			}

			in := validator.RequestInput{Path: r.URL.Path, Params: map[string]string{}}
			fromServeMux(&in, r)

			require.Equal(t, testCase.Template, in.Path)
			require.Equal(t, testCase.Params, in.Params)
		})
	}
}
