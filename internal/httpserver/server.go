// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpserver runs an [http.Handler] on a listener as an
// app.Runtime.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// AppOptions
type AppOptions struct {
	errorLogHandler slog.Handler
	shutdownTimeout time.Duration
	readHeader      time.Duration
}

// AppOption
type AppOption interface {
	ApplyAppOption(*AppOptions)
}

type appOptionFunc func(*AppOptions)

func (f appOptionFunc) ApplyAppOption(ao *AppOptions) {
	f(ao)
}

// ErrorLog sets where the server logs connection errors.
func ErrorLog(h slog.Handler) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.errorLogHandler = h
	})
}

// ShutdownTimeout bounds how long in flight requests may take to finish
// once the server is stopped. The default is 10 seconds.
func ShutdownTimeout(d time.Duration) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.shutdownTimeout = d
	})
}

// ReadHeaderTimeout
func ReadHeaderTimeout(d time.Duration) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.readHeader = d
	})
}

// App
type App struct {
	ls              net.Listener
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewApp initializes a [App].
func NewApp(ls net.Listener, h http.Handler, opts ...AppOption) *App {
	ao := &AppOptions{
		errorLogHandler: slog.DiscardHandler,
		shutdownTimeout: 10 * time.Second,
		readHeader:      5 * time.Second,
	}
	for _, opt := range opts {
		opt.ApplyAppOption(ao)
	}

	return &App{
		ls: ls,
		server: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: ao.readHeader,
			ErrorLog:          slog.NewLogLogger(ao.errorLogHandler, slog.LevelError),
		},
		shutdownTimeout: ao.shutdownTimeout,
	}
}

// Addr returns the address the server listens on.
func (a *App) Addr() net.Addr {
	return a.ls.Addr()
}

// Run serves until ctx is cancelled and then gracefully shuts down.
func (a *App) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.server.Serve(a.ls)
	})
	eg.Go(func() error {
		<-egCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(egCtx), a.shutdownTimeout)
		defer cancel()

		return a.server.Shutdown(shutdownCtx)
	})

	err := eg.Wait()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
