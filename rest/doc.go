// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rest serves HTTP handlers for a set of declared endpoints and
// validates their requests against the endpoint contracts.
//
// Every handler registered with [Handle] or [HandleFunc] runs behind
// [Middleware], which makes the request validators available through
// [Validate]:
//
//	api := rest.NewApi(
//	    "Books",
//	    "v1.0.0",
//	    endpoints,
//	    rest.HandleFunc(endpoint.Post, "/books", func(w http.ResponseWriter, r *http.Request) error {
//	        v, err := rest.Require(r, endpoint.Body)
//	        if err != nil {
//	            return err
//	        }
//	        return json.NewEncoder(w).Encode(v[endpoint.Body])
//	    }),
//	)
//
// Contract violations are answered with an RFC 7807 Problem Details
// body carrying the failing field as its reason and the schema issues.
package rest
