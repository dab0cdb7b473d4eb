package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(Logger(zap.New(core)))
	r.Get("/recommendation/{clientCode}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpReqTotal.WithLabelValues(http.MethodGet, "/recommendation/{clientCode}", "418"))

	req := httptest.NewRequest(http.MethodGet, "/recommendation/1001", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpReqTotal.WithLabelValues(http.MethodGet, "/recommendation/{clientCode}", "418"))
	if after-before != 1 {
		t.Fatalf("request counter grew by %v, want 1", after-before)
	}

	entries := logs.FilterMessage("got incoming HTTP request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("logged status = %v, want %d", fields["status"], http.StatusTeapot)
	}
	if fields["uri"] != "/recommendation/1001" {
		t.Fatalf("logged uri = %v", fields["uri"])
	}
}
