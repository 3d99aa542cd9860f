// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/z5labs/contract/config"
	"github.com/z5labs/contract/endpoint"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	reason string
	issues []endpoint.Issue
}

func recorder(calls *[]call) IssueHandler {
	return IssueHandlerFunc(func(_ context.Context, reason string, issues []endpoint.Issue) error {
		*calls = append(*calls, call{reason: reason, issues: issues})
		return nil
	})
}

func TestRun(t *testing.T) {
	g := NewGenerator(endpoint.Endpoints{
		"/users": {
			endpoint.Get: &endpoint.Spec{
				Query: requireKeys("page"),
				Body:  requireKeys("name"),
			},
		},
	})

	t.Run("will only report the failing field", func(t *testing.T) {
		bag, err := g.Request(RequestInput{
			Path:   "/users",
			Method: "GET",
			Query:  map[string]any{},
			Body:   map[string]any{"name": "x"},
		})
		require.NoError(t, err)

		var calls []call
		err = Run(context.Background(), bag, recorder(&calls))
		require.NoError(t, err)

		if !assert.Len(t, calls, 1) {
			return
		}
		assert.Equal(t, "query", calls[0].reason)
	})

	t.Run("will report every failing field in canonical order", func(t *testing.T) {
		bag := Bag{
			endpoint.Headers: func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "h"}) },
			endpoint.Body:    func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "b"}) },
			endpoint.Params:  func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "p"}) },
			endpoint.Query:   func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "q"}) },
		}

		var calls []call
		err := Run(context.Background(), bag, recorder(&calls))
		require.NoError(t, err)

		var reasons []string
		for _, c := range calls {
			reasons = append(reasons, c.reason)
		}
		assert.Equal(t, []string{"params", "query", "body", "headers"}, reasons)
	})

	t.Run("will stop at the first error returned by the handler", func(t *testing.T) {
		bag := Bag{
			endpoint.Query: func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "q"}) },
			endpoint.Body:  func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "b"}) },
		}

		err := Run(context.Background(), bag, Throw())

		var verr *ValidateError
		if !assert.ErrorAs(t, err, &verr) {
			return
		}
		assert.Equal(t, "query", verr.Reason)
		assert.Equal(t, "q", verr.Issues[0].Message)
	})

	t.Run("will not call the handler if every field passes", func(t *testing.T) {
		bag := Bag{
			endpoint.Body: func(context.Context) endpoint.Result { return endpoint.Success(1) },
		}

		var calls []call
		err := Run(context.Background(), bag, recorder(&calls))
		require.NoError(t, err)
		assert.Empty(t, calls)
	})
}

func TestPreCheck(t *testing.T) {
	t.Run("will report the input error under the precheck reason", func(t *testing.T) {
		err := PreCheck(context.Background(), &PathNotFoundError{Actual: "/x"}, Throw())

		var verr *ValidateError
		if !assert.ErrorAs(t, err, &verr) {
			return
		}
		assert.Equal(t, ReasonPreCheck, verr.Reason)
		assert.Equal(t, "path", verr.Issues[0].Extra["target"])
	})
}

func TestRunAll(t *testing.T) {
	t.Run("will return a result for every declared field", func(t *testing.T) {
		bag := Bag{
			endpoint.Params: func(context.Context) endpoint.Result { return endpoint.Success("p") },
			endpoint.Body:   func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "b"}) },
		}

		results := RunAll(context.Background(), bag)
		if !assert.Len(t, results, 2) {
			return
		}
		assert.Equal(t, "p", results[endpoint.Params].Value)
		assert.False(t, results[endpoint.Body].OK())
	})
}

func TestLog(t *testing.T) {
	t.Run("will log every failure and continue", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		bag := Bag{
			endpoint.Query: func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "q"}) },
			endpoint.Body:  func(context.Context) endpoint.Result { return endpoint.Failure(endpoint.Issue{Message: "b"}) },
		}

		err := Run(context.Background(), bag, Log(log))
		require.NoError(t, err)

		dec := json.NewDecoder(&buf)
		var reasons []string
		for dec.More() {
			var line map[string]any
			require.NoError(t, dec.Decode(&line))
			assert.Equal(t, "ERROR", line["level"])
			reasons = append(reasons, line["reason"].(string))
		}
		assert.Equal(t, []string{"query", "body"}, reasons)
	})
}

func TestPolicy(t *testing.T) {
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	issues := []endpoint.Issue{{Message: "bad"}}

	assert.Error(t, Policy(config.ThrowPolicy, log).HandleIssues(context.Background(), "body", issues))
	assert.NoError(t, Policy(config.LogPolicy, log).HandleIssues(context.Background(), "body", issues))
	assert.Error(t, Policy("", log).HandleIssues(context.Background(), "body", issues))
}

func TestHandlers(t *testing.T) {
	t.Run("will stop at the first handler error", func(t *testing.T) {
		stop := errors.New("stop")

		var calls []call
		h := Handlers(
			recorder(&calls),
			IssueHandlerFunc(func(context.Context, string, []endpoint.Issue) error { return stop }),
			recorder(&calls),
		)

		err := h.HandleIssues(context.Background(), "body", nil)
		assert.ErrorIs(t, err, stop)
		assert.Len(t, calls, 1)
	})
}

func TestValidateError_Error(t *testing.T) {
	err := &ValidateError{Reason: "body", Issues: []endpoint.Issue{{Message: "a"}, {Message: "b"}}}
	assert.Equal(t, "validation error: body: a; b", err.Error())
	assert.Equal(t, "validation error: preCheck", (&ValidateError{Reason: ReasonPreCheck}).Error())
}

func TestFailing(t *testing.T) {
	issue := (&MethodNotFoundError{Actual: "PATCH"}).Issue()
	bag := Failing(issue, endpoint.RequestFields...)

	for _, f := range endpoint.RequestFields {
		res := bag.Validate(context.Background(), f)
		if !assert.False(t, res.OK(), f) {
			return
		}
		assert.Equal(t, issue, res.Issues[0])
	}
}

func TestQueryValues(t *testing.T) {
	q := url.Values{
		"page": {"1"},
		"tag":  {"a", "b"},
	}
	assert.Equal(t, map[string]any{
		"page": "1",
		"tag":  []any{"a", "b"},
	}, QueryValues(q))
}

func TestHeaderValues(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Add("Accept", "text/plain")
	h.Add("Accept", "application/json")

	assert.Equal(t, map[string]any{
		"content-type": "application/json",
		"accept":       "text/plain, application/json",
	}, HeaderValues(h))
}

func TestParseJSONBody(t *testing.T) {
	t.Run("will return nil for an empty body", func(t *testing.T) {
		assert.Nil(t, ParseJSONBody(nil))
		assert.Nil(t, ParseJSONBody([]byte("  \n")))
	})

	t.Run("will decode json", func(t *testing.T) {
		v := ParseJSONBody([]byte(`{"id":"x","n":1}`))
		assert.Equal(t, map[string]any{"id": "x", "n": json.Number("1")}, v)
	})

	t.Run("will return the raw text if the body is not json", func(t *testing.T) {
		assert.Equal(t, "not json", ParseJSONBody([]byte("not json")))
		assert.Equal(t, `{} {}`, ParseJSONBody([]byte(`{} {}`)))
	})
}
