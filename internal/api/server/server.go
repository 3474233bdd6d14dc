package server

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
)

// New builds the HTTP server around the router. Write timeout is generous
// because synchronous processing holds the connection open for the whole
// pipeline run.
func New(addr string, router *ginext.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
