// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package validator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/z5labs/contract/config"
	"github.com/z5labs/contract/endpoint"

	"github.com/sourcegraph/conc/pool"
)

// ReasonPreCheck is the reason reported for an [InputError], i.e. when
// the request or response could not be resolved to a spec at all.
const ReasonPreCheck = "preCheck"

// IssueHandler is notified of every field which failed validation.
// Returning an error stops the run.
type IssueHandler interface {
	HandleIssues(ctx context.Context, reason string, issues []endpoint.Issue) error
}

// IssueHandlerFunc is a func type of the [IssueHandler] interface.
type IssueHandlerFunc func(ctx context.Context, reason string, issues []endpoint.Issue) error

// HandleIssues implements the [IssueHandler] interface.
func (f IssueHandlerFunc) HandleIssues(ctx context.Context, reason string, issues []endpoint.Issue) error {
	return f(ctx, reason, issues)
}

// Run invokes every declared field of the bag in canonical order (params,
// query, body, headers) and reports failures to h. Fields that pass are
// not reported. Run only stops early when h returns an error.
func Run(ctx context.Context, bag Bag, h IssueHandler) error {
	for _, f := range endpoint.RequestFields {
		fn, ok := bag.Get(f)
		if !ok {
			continue
		}

		res := fn(ctx)
		if res.OK() {
			continue
		}

		err := h.HandleIssues(ctx, string(f), res.Issues)
		if err != nil {
			return err
		}
	}
	return nil
}

// PreCheck reports an [InputError] to h under [ReasonPreCheck].
func PreCheck(ctx context.Context, err InputError, h IssueHandler) error {
	return h.HandleIssues(ctx, ReasonPreCheck, []endpoint.Issue{err.Issue()})
}

// RunAll invokes every declared field of the bag concurrently and
// returns each result keyed by field.
func RunAll(ctx context.Context, bag Bag) map[endpoint.Field]endpoint.Result {
	var mu sync.Mutex
	results := make(map[endpoint.Field]endpoint.Result, len(bag))

	p := pool.New().WithContext(ctx)
	for f, fn := range bag {
		if fn == nil {
			continue
		}
		p.Go(func(ctx context.Context) error {
			res := fn(ctx)

			mu.Lock()
			defer mu.Unlock()
			results[f] = res
			return nil
		})
	}
	p.Wait()

	return results
}

// Throw returns an [IssueHandler] which stops at the first failure with
// a [*ValidateError].
func Throw() IssueHandler {
	return IssueHandlerFunc(func(_ context.Context, reason string, issues []endpoint.Issue) error {
		return &ValidateError{Reason: reason, Issues: issues}
	})
}

// Log returns an [IssueHandler] which records every failure as an
// error log and never stops the run.
func Log(log *slog.Logger) IssueHandler {
	return IssueHandlerFunc(func(ctx context.Context, reason string, issues []endpoint.Issue) error {
		log.ErrorContext(
			ctx,
			"contract violated",
			slog.String("reason", reason),
			slog.Any("error", &ValidateError{Reason: reason, Issues: issues}),
			slog.Any("issues", issues),
		)
		return nil
	})
}

// Policy maps a configured policy to its [IssueHandler]. Unknown
// policies throw.
func Policy(p config.Policy, log *slog.Logger) IssueHandler {
	switch p {
	case config.LogPolicy:
		return Log(log)
	default:
		return Throw()
	}
}

// Handlers fans failures out to every handler in order, stopping at the
// first one which returns an error.
func Handlers(hs ...IssueHandler) IssueHandler {
	return IssueHandlerFunc(func(ctx context.Context, reason string, issues []endpoint.Issue) error {
		for _, h := range hs {
			err := h.HandleIssues(ctx, reason, issues)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
