package frontend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hsdesk/internal/metrics"
)

func writeBuild(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":            "<div id=root></div>",
		"static/js/main.js":     "console.log('hs')",
		"static/js/main.js.map": "{}",
		"asset-manifest.json":   "{}",
		IgnoreFileName:          "asset-manifest.json\n",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func TestServer_Static(t *testing.T) {
	srv, err := New(Options{StaticDir: writeBuild(t), Ignore: []string{"*.map"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
	}{
		{"root serves index", "/", http.StatusOK, "<div id=root></div>"},
		{"asset", "/static/js/main.js", http.StatusOK, "console.log('hs')"},
		{"client route falls back to index", "/explorateur/documents", http.StatusOK, "<div id=root></div>"},
		{"missing asset is 404", "/static/js/other.js", http.StatusNotFound, ""},
		{"configured ignore", "/static/js/main.js.map", http.StatusNotFound, ""},
		{"ignore file pattern", "/asset-manifest.json", http.StatusNotFound, ""},
		{"ignore file itself", "/" + IgnoreFileName, http.StatusNotFound, ""},
		{"health", "/healthz", http.StatusOK, "ok\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := get(t, srv.Handler(), tt.target)
			if code != tt.wantCode {
				t.Fatalf("GET %s = %d, want %d", tt.target, code, tt.wantCode)
			}
			if tt.wantBody != "" && body != tt.wantBody {
				t.Errorf("GET %s body = %q, want %q", tt.target, body, tt.wantBody)
			}
		})
	}
}

func TestServer_NotBuilt(t *testing.T) {
	srv, err := New(Options{StaticDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if code, _ := get(t, srv.Handler(), "/"); code != http.StatusServiceUnavailable {
		t.Errorf("GET / = %d, want 503", code)
	}
}

func TestServer_APIProxy(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.Query().Get("chemin")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"contenu":[]}`)
	}))
	defer backend.Close()

	m := metrics.New()
	srv, err := New(Options{StaticDir: writeBuild(t), APITarget: backend.URL, Metrics: m})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	code, body := get(t, srv.Handler(), "/api/v1/fichiers/lister?chemin=%2Fdocs")
	if code != http.StatusOK || body != `{"contenu":[]}` {
		t.Fatalf("proxy = %d %q", code, body)
	}
	if gotPath != "/api/v1/fichiers/lister" || gotQuery != "/docs" {
		t.Errorf("backend saw %s ?chemin=%s", gotPath, gotQuery)
	}

	_, scraped := get(t, srv.Handler(), "/metrics")
	if !strings.Contains(scraped, `hsdesk_http_requests_total{method="GET",route="api",status="200"} 1`) {
		t.Errorf("/metrics did not count the proxied request:\n%s", scraped)
	}
}

func TestServer_APIProxyBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	target := backend.URL
	backend.Close()

	m := metrics.New()
	srv, err := New(Options{StaticDir: writeBuild(t), APITarget: target, Metrics: m})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if code, _ := get(t, srv.Handler(), "/api/v1/parametres"); code != http.StatusBadGateway {
		t.Errorf("GET /api with backend down = %d, want 502", code)
	}
	if _, scraped := get(t, srv.Handler(), "/metrics"); !strings.Contains(scraped, "hsdesk_proxy_errors_total 1") {
		t.Error("proxy error not counted")
	}
}

func TestNew_InvalidTarget(t *testing.T) {
	if _, err := New(Options{StaticDir: t.TempDir(), APITarget: "127.0.0.1:8000"}); err == nil {
		t.Error("New() error = nil, want invalid target")
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv, err := New(Options{Listen: "127.0.0.1:0", StaticDir: writeBuild(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz = %d", resp.StatusCode)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if _, err := http.Get("http://" + srv.Addr() + "/healthz"); err == nil {
		t.Error("server still answering after Shutdown")
	}
}
