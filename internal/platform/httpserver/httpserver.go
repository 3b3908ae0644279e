// Package httpserver builds the API's *http.Server from configuration.
package httpserver

import (
	"net/http"
	"time"

	"contractdesk/internal/platform/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
)

// New returns a server on cfg.Addr whose handler is bounded by cfg.RequestTimeout.
// Writes get a few extra seconds so the timeout response itself can be sent.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           http.TimeoutHandler(handler, cfg.RequestTimeout, `{"error":"timeout","error_description":"request timed out"}`),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       idleTimeout,
	}
}
