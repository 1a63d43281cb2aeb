package infra

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// HTTPServer wraps http.Server for the API process. Long-lived feed
// connections are hijacked from the server, so they are closed through
// shutdown hooks rather than by Shutdown itself.
type HTTPServer struct {
	server *http.Server

	mu    sync.Mutex
	hooks []func()
}

// NewHTTPServer creates a configured HTTP server instance.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &HTTPServer{server: srv}
}

// OnShutdown registers fn to run once Shutdown begins. Hooks run in
// registration order and Shutdown waits for them before draining requests.
func (s *HTTPServer) OnShutdown(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Start runs the HTTP server in the current goroutine. A graceful shutdown
// is not reported as an error.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown runs the registered hooks, then gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
