// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validator

import (
	"fmt"
	"strings"

	"github.com/z5labs/contract/endpoint"
)

// InputError is returned by a [Generator] when the request or response
// cannot be resolved to a declared spec. Issue renders the error in the
// same form as schema issues so it can be reported alongside them.
type InputError interface {
	error
	Issue() endpoint.Issue
}

// MethodInvalidError is returned when the method is not an HTTP method
// known to [endpoint.ParseMethod].
type MethodInvalidError struct {
	Actual string
}

func (e *MethodInvalidError) Error() string {
	return "MethodInvalid: " + e.Actual
}

// Issue implements the [InputError] interface.
func (e *MethodInvalidError) Issue() endpoint.Issue {
	return endpoint.Issue{
		Message: e.Error(),
		Extra: map[string]any{
			"error":  "MethodInvalid",
			"actual": e.Actual,
		},
	}
}

// PathNotFoundError is returned when no declared template matches the path.
type PathNotFoundError struct {
	Actual string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path does not exist in endpoints: %q", e.Actual)
}

// Issue implements the [InputError] interface.
func (e *PathNotFoundError) Issue() endpoint.Issue {
	return endpoint.Issue{
		Message: "path does not exist in endpoints",
		Extra: map[string]any{
			"target": "path",
			"actual": e.Actual,
		},
	}
}

// MethodNotFoundError is returned when the matched template does not
// declare the method.
type MethodNotFoundError struct {
	Actual string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method does not exist in endpoint: %s", strings.ToLower(e.Actual))
}

// Issue implements the [InputError] interface.
func (e *MethodNotFoundError) Issue() endpoint.Issue {
	return endpoint.Issue{
		Message: "method does not exist in endpoint",
		Extra: map[string]any{
			"target": "method",
			"actual": e.Actual,
		},
	}
}

// ValidateError reports the issues of a single failed field, or of a
// structural failure when Reason is [ReasonPreCheck].
type ValidateError struct {
	Reason string
	Issues []endpoint.Issue
}

func (e *ValidateError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Reason, strings.Join(msgs, "; "))
}
