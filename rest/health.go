// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"log/slog"
	"net/http"

	"github.com/z5labs/contract/health"
)

// HealthHandler answers 200 while the monitor is healthy and 503
// otherwise.
func HealthHandler(m health.Monitor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		healthy, err := m.Healthy(r.Context())
		if err != nil {
			log.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		}
		if !healthy || err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
