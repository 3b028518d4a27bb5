package httpserver

import (
	"net/http"
	"time"
)

// New builds the credential API server. Header and write timeouts bound slow
// clients; the write timeout sits above the 30s per-request deadline the
// middleware chain applies, so the handler's own timeout fires first.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
