// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health defines monitors backing readiness and liveness probes.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
)

// Monitor reports whether some part of the application is healthy.
type Monitor interface {
	Healthy(context.Context) (bool, error)
}

// MonitorFunc is a func type of the [Monitor] interface.
type MonitorFunc func(context.Context) (bool, error)

// Healthy implements the [Monitor] interface.
func (f MonitorFunc) Healthy(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Binary is a [Monitor] which is flipped between healthy and unhealthy
// by the application. The zero value is unhealthy.
type Binary struct {
	healthy atomic.Bool
}

// MarkHealthy
func (b *Binary) MarkHealthy() {
	b.healthy.Store(true)
}

// MarkUnhealthy
func (b *Binary) MarkUnhealthy() {
	b.healthy.Store(false)
}

// Healthy implements the [Monitor] interface.
func (b *Binary) Healthy(ctx context.Context) (bool, error) {
	return b.healthy.Load(), nil
}

// And is healthy only if every monitor is healthy. It stops at the first
// unhealthy monitor.
func And(ms ...Monitor) Monitor {
	return MonitorFunc(func(ctx context.Context) (bool, error) {
		for _, m := range ms {
			healthy, err := m.Healthy(ctx)
			if !healthy || err != nil {
				return false, err
			}
		}
		return true, nil
	})
}

// UnexpectedStatusError
type UnexpectedStatusError struct {
	URL    string
	Status int
}

func (e UnexpectedStatusError) Error() string {
	return fmt.Sprintf("health probe %s returned status %d", e.URL, e.Status)
}

// HTTP probes url with a GET request. Any 2xx status is healthy.
func HTTP(client *http.Client, url string) Monitor {
	return MonitorFunc(func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return false, UnexpectedStatusError{URL: url, Status: resp.StatusCode}
		}
		return true, nil
	})
}
