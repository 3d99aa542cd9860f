// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"encoding/json"
	"maps"
)

// Issue is a single schema violation. Path locates the offending value
// inside the validated field, as object keys and array indexes. Extra
// carries schema library specific details.
type Issue struct {
	Message string
	Path    []any
	Extra   map[string]any
}

// MarshalJSON flattens Extra next to the message and path.
func (i Issue) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(i.Extra)+2)
	maps.Copy(m, i.Extra)
	m["message"] = i.Message
	if len(i.Path) > 0 {
		m["path"] = i.Path
	}
	return json.Marshal(m)
}

// Result is the outcome of validating a value.
type Result struct {
	// Value is the validated, possibly transformed, value.
	Value  any
	Issues []Issue
}

// OK reports whether the value passed validation.
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// Success
func Success(v any) Result {
	return Result{Value: v}
}

// Failure
func Failure(issues ...Issue) Result {
	return Result{Issues: issues}
}
