package log

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareInstallsLogger(t *testing.T) {
	installed := New(Config{
		Component: ComponentHTTP,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})

	var got *Logger
	handler := Middleware(installed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != installed {
		t.Fatal("FromContext should return the logger the middleware installed")
	}
	if got.Component() != ComponentHTTP {
		t.Fatalf("component %q, want %q", got.Component(), ComponentHTTP)
	}
}

func TestFromContextWithoutLogger(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("FromContext must always return a usable logger")
	}
	if logger.Component() != ComponentApp {
		t.Fatalf("fallback component %q, want %q", logger.Component(), ComponentApp)
	}
}

func TestContextWithRoundTrip(t *testing.T) {
	logger := New(Config{
		Component: ComponentWorker,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
	ctx := ContextWith(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Fatal("ContextWith then FromContext must return the same logger")
	}
}
