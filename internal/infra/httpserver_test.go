package infra

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerShutdownRunsHooks(t *testing.T) {
	srv := NewHTTPServer(&Config{Port: "0", HTTPIdleTimeout: time.Second}, http.NotFoundHandler())

	var order []string
	srv.OnShutdown(func() { order = append(order, "feed") })
	srv.OnShutdown(nil)
	srv.OnShutdown(func() { order = append(order, "second") })

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	if len(order) != 2 || order[0] != "feed" || order[1] != "second" {
		t.Fatalf("hooks ran as %v, want [feed second]", order)
	}

	// Hooks run once.
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown returned error: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("hooks ran again: %v", order)
	}
}

func TestHTTPServerStartAfterShutdown(t *testing.T) {
	srv := NewHTTPServer(&Config{Port: "0"}, http.NotFoundHandler())
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start after Shutdown = %v, want nil", err)
	}
}
