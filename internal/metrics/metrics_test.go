package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading /metrics: %v", err)
	}
	return string(body)
}

func assertSample(t *testing.T, body, sample string) {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if line == sample {
			return
		}
	}
	t.Errorf("/metrics missing %q", sample)
}

func TestProcessMetrics(t *testing.T) {
	m := New()

	m.RecordStart("FastAPI", true)
	assertSample(t, scrape(t, m), `hsdesk_process_up{process="FastAPI"} 1`)

	m.RecordExit("FastAPI", "failed")
	m.RecordRestart("FastAPI")
	m.RecordStart("FastAPI", false)

	body := scrape(t, m)
	for _, sample := range []string{
		`hsdesk_process_up{process="FastAPI"} 0`,
		`hsdesk_process_exits_total{process="FastAPI",status="failed"} 1`,
		`hsdesk_process_starts_total{process="FastAPI",result="error"} 1`,
		`hsdesk_process_starts_total{process="FastAPI",result="ok"} 1`,
		`hsdesk_process_restarts_total{process="FastAPI"} 1`,
	} {
		assertSample(t, body, sample)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordRestart("gRPC")
	if strings.Contains(scrape(t, b), "hsdesk_process_restarts_total{") {
		t.Error("second registry saw restarts recorded on the first")
	}
}

func TestMiddleware(t *testing.T) {
	m := New()
	h := m.Middleware(func(*http.Request) string { return "api" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/parametres", nil))
	m.RecordReady("FastAPI", 300*time.Millisecond)
	m.RecordProxyError()

	body := scrape(t, m)
	assertSample(t, body, `hsdesk_http_requests_total{method="GET",route="api",status="418"} 1`)
	assertSample(t, body, `hsdesk_backend_ready_seconds_count{process="FastAPI"} 1`)
	assertSample(t, body, `hsdesk_proxy_errors_total 1`)
	if !strings.Contains(body, "go_goroutines") {
		t.Error("/metrics missing Go runtime collector")
	}
}
