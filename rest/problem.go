// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/z5labs/contract/endpoint"
)

// ProblemDetail is an RFC 7807 Problem Details response body.
//
// Reference: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// ValidationProblem is the Problem Details body for a contract
// violation. Reason names the failing field, or "preCheck" when the
// request did not resolve to a declared endpoint.
type ValidationProblem struct {
	ProblemDetail

	Reason string           `json:"reason"`
	Issues []endpoint.Issue `json:"issues"`
}

// WriteProblem writes v as an application/problem+json response. The
// status is taken from a [ProblemDetail] or [ValidationProblem] and is
// 500 for anything else.
func WriteProblem(ctx context.Context, w http.ResponseWriter, v any) {
	status := http.StatusInternalServerError
	switch p := v.(type) {
	case ProblemDetail:
		status = p.Status
	case ValidationProblem:
		status = p.Status
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.ErrorContext(ctx, "failed to encode problem details", slog.Any("error", err))
	}
}
