package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"RestQueryAPI/internal/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLogging_RequestIDAndStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger.UseCore(core)
	t.Cleanup(func() { logger.UseCore(zap.NewNop().Core()) })

	h := withLogging(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/people/1", nil)
	req.Header.Set(requestIDHeader, "abc")
	w := httptest.NewRecorder()
	h(w, req)

	if got := w.Header().Get(requestIDHeader); got != "abc" {
		t.Fatalf("incoming request id must be echoed, got %q", got)
	}
	entries := logs.FilterMessage("response").All()
	if len(entries) != 1 {
		t.Fatalf("expected one response entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zap.WarnLevel {
		t.Fatalf("4xx must log at warn, got %s", e.Level)
	}
	ctx := e.ContextMap()
	if ctx["request_id"] != "abc" || ctx["status"] != int64(http.StatusConflict) {
		t.Fatalf("unexpected fields %v", ctx)
	}

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/api/people", nil))
	if got := w.Header().Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("generated request id must be a uuid, got %q", got)
	}
}
