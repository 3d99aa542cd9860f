// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
)

// HookFunc releases a resource once a [Runtime] has returned.
type HookFunc func(context.Context) error

// HookRegistry collects the post run hooks of a [Runtime] while it is
// being built.
type HookRegistry struct {
	hooks []HookFunc
}

// OnPostRun registers a hook. Hooks run in registration order.
func (r *HookRegistry) OnPostRun(hook HookFunc) {
	r.hooks = append(r.hooks, hook)
}

type hookRuntime struct {
	inner Runtime
	hooks []HookFunc
}

// Run runs the inner runtime followed by every hook, even those after a
// failing one. All errors are joined.
func (rt hookRuntime) Run(ctx context.Context) error {
	err := rt.inner.Run(ctx)

	// hooks must still run after the context was cancelled
	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range rt.hooks {
		err = errors.Join(err, hook(hookCtx))
	}
	return err
}

// WithHooks builds a [Runtime] with f, running the hooks f registers
// after it returns. Hooks registered before f fails are run
// immediately, so partially initialized resources are still released.
func WithHooks[T Runtime](f func(context.Context, *HookRegistry) (T, error)) Builder[Runtime] {
	return BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
		registry := &HookRegistry{}

		inner, err := f(ctx, registry)
		if err != nil {
			hookCtx := context.WithoutCancel(ctx)
			for _, hook := range registry.hooks {
				err = errors.Join(err, hook(hookCtx))
			}
			return nil, err
		}

		return hookRuntime{
			inner: inner,
			hooks: registry.hooks,
		}, nil
	})
}
