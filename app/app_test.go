// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	t.Run("will pass the built value to the next builder", func(t *testing.T) {
		b := Bind(
			BuilderFunc[int](func(ctx context.Context) (int, error) {
				return 2, nil
			}),
			func(n int) Builder[int] {
				return BuilderFunc[int](func(ctx context.Context) (int, error) {
					return n * 3, nil
				})
			},
		)

		v, err := b.Build(context.Background())
		require.Nil(t, err)
		require.Equal(t, 6, v)
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the first builder fails", func(t *testing.T) {
			buildErr := errors.New("failed")
			called := false

			b := Bind(
				BuilderFunc[int](func(ctx context.Context) (int, error) {
					return 0, buildErr
				}),
				func(n int) Builder[int] {
					called = true
					return nil
				},
			)

			_, err := b.Build(context.Background())
			require.ErrorIs(t, err, buildErr)
			require.False(t, called)
		})
	})
}

func TestRecover(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the runtime panics", func(t *testing.T) {
			rt := Recover(RuntimeFunc(func(ctx context.Context) error {
				panic("boom")
			}))

			err := rt.Run(context.Background())
			require.Error(t, err)
		})
	})

	t.Run("will return the runtime error", func(t *testing.T) {
		runErr := errors.New("failed")
		rt := Recover(RuntimeFunc(func(ctx context.Context) error {
			return runErr
		}))

		err := rt.Run(context.Background())
		require.ErrorIs(t, err, runErr)
	})
}

func TestRun(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the builder fails", func(t *testing.T) {
			buildErr := errors.New("failed")

			err := Run(context.Background(), BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
				return nil, buildErr
			}))
			require.ErrorIs(t, err, buildErr)
		})

		t.Run("if the runtime fails", func(t *testing.T) {
			runErr := errors.New("failed")

			err := Run(context.Background(), BuilderFunc[RuntimeFunc](func(ctx context.Context) (RuntimeFunc, error) {
				return func(ctx context.Context) error {
					return runErr
				}, nil
			}))
			require.ErrorIs(t, err, runErr)
		})
	})
}
