package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ogurasousui/personnel-core/internal/platform/config"
)

func TestInitWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{ServiceName: "personnel-core"}, "test")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	t.Parallel()

	h := HTTPMiddleware("personnel-core")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected %d, got %d", http.StatusTeapot, rec.Code)
	}
}

func TestInstrumentClientWrapsTransport(t *testing.T) {
	t.Parallel()

	client := InstrumentClient(nil)
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Fatalf("expected an instrumented transport, got %T", client.Transport)
	}
}
