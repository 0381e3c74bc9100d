// Package httpserver constructs the API server. Timeouts are sized around
// the router's 30s per-request budget: the write timeout sits above it so
// the middleware deadline fires first and the client gets a 504 body
// instead of a dropped connection.
package httpserver

import (
	"net/http"
	"time"
)

func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
