// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// QueryValues flattens query values. Keys with a single value map to a
// string and repeated keys map to a []any of strings.
func QueryValues(q url.Values) map[string]any {
	m := make(map[string]any, len(q))
	for k, vs := range q {
		switch len(vs) {
		case 0:
			continue
		case 1:
			m[k] = vs[0]
		default:
			arr := make([]any, len(vs))
			for i, v := range vs {
				arr[i] = v
			}
			m[k] = arr
		}
	}
	return m
}

// HeaderValues flattens headers into lower case names. Repeated values
// are joined with ", ".
func HeaderValues(h http.Header) map[string]any {
	m := make(map[string]any, len(h))
	for k, vs := range h {
		m[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return m
}

// ParseJSONBody decodes a JSON payload. An empty payload is nil and a
// payload which is not valid JSON is returned as a string, leaving the
// body schema to reject it.
func ParseJSONBody(b []byte) any {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil || dec.More() {
		return string(b)
	}
	return v
}
