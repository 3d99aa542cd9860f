// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app runs long lived processes, like the validating proxy,
// until they fail or the process is signalled to stop.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/z5labs/sdk-go/try"
)

// Builder initializes a T.
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is a func type of the [Builder] interface.
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// Bind builds the result of a into the input of the next builder.
func Bind[A, B any](a Builder[A], f func(A) Builder[B]) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		v, err := a.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(v).Build(ctx)
	})
}

// Runtime runs until its context is cancelled or it fails.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a func type of the [Runtime] interface.
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Recover turns a panic in rt into the returned error.
func Recover(rt Runtime) Runtime {
	return RuntimeFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return rt.Run(ctx)
	})
}

// Run builds a [Runtime] and runs it. The context given to both is
// cancelled on SIGINT or SIGTERM.
func Run[T Runtime](ctx context.Context, b Builder[T]) error {
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := b.Build(sigCtx)
	if err != nil {
		return err
	}
	return rt.Run(sigCtx)
}
