// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"net/http"

	"github.com/z5labs/contract/endpoint"
	"github.com/z5labs/contract/validator"
)

// Require validates the given request fields, or every request field
// if none are given, and returns their validated values. The first
// failing field is returned as a [BadRequestError].
func Require(r *http.Request, fields ...endpoint.Field) (map[endpoint.Field]any, error) {
	if len(fields) == 0 {
		fields = endpoint.RequestFields
	}

	bag := Validate(r)

	values := make(map[endpoint.Field]any, len(fields))
	for _, f := range fields {
		res := bag.Validate(r.Context(), f)
		if !res.OK() {
			return nil, BadRequestError{
				Cause: &validator.ValidateError{Reason: string(f), Issues: res.Issues},
			}
		}
		values[f] = res.Value
	}
	return values, nil
}
