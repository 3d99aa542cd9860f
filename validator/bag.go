// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validator

import (
	"context"

	"github.com/z5labs/contract/endpoint"
)

// Func lazily validates one field. Calling it more than once yields the
// same result as long as the schema is deterministic.
type Func func(context.Context) endpoint.Result

// Bag holds a [Func] for every field the matched spec declares. Fields
// without a schema are absent.
type Bag map[endpoint.Field]Func

// Get returns the validator for the field, if declared.
func (b Bag) Get(f endpoint.Field) (Func, bool) {
	fn, ok := b[f]
	return fn, ok && fn != nil
}

// Validate runs the validator for the field. Undeclared fields always
// pass with a nil value.
func (b Bag) Validate(ctx context.Context, f endpoint.Field) endpoint.Result {
	fn, ok := b.Get(f)
	if !ok {
		return endpoint.Success(nil)
	}
	return fn(ctx)
}

// Params
func (b Bag) Params(ctx context.Context) endpoint.Result {
	return b.Validate(ctx, endpoint.Params)
}

// Query
func (b Bag) Query(ctx context.Context) endpoint.Result {
	return b.Validate(ctx, endpoint.Query)
}

// Body
func (b Bag) Body(ctx context.Context) endpoint.Result {
	return b.Validate(ctx, endpoint.Body)
}

// Headers
func (b Bag) Headers(ctx context.Context) endpoint.Result {
	return b.Validate(ctx, endpoint.Headers)
}

// Failing returns a bag in which every field fails with the issue. It is
// used to surface an [InputError] through code that only inspects bags.
func Failing(issue endpoint.Issue, fields ...endpoint.Field) Bag {
	b := make(Bag, len(fields))
	for _, f := range fields {
		b[f] = func(context.Context) endpoint.Result {
			return endpoint.Failure(issue)
		}
	}
	return b
}
