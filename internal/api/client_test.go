package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	return New(Config{BaseURL: ts.URL + "/", Timeout: 2 * time.Second}), ts
}

func TestListFiles(t *testing.T) {
	t.Run("entries", func(t *testing.T) {
		var gotPath string
		c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != PathListFiles {
				t.Errorf("path = %q, want %q", r.URL.Path, PathListFiles)
			}
			gotPath = r.URL.Query().Get("chemin")
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"chemin_actuel":"/docs","contenu":[{"nom":"a.pdf","chemin":"/docs/a.pdf","type":"fichier","tailleOctets":2048,"modifieLe":"2024-01-01T00:00:00Z"}]}`)
		}))
		defer ts.Close()

		l, err := c.ListFiles(context.Background(), "/docs")
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if gotPath != "/docs" {
			t.Errorf("chemin = %q, want %q", gotPath, "/docs")
		}
		if len(l.Entries) != 1 {
			t.Fatalf("len(Entries) = %d, want 1", len(l.Entries))
		}
		e := l.Entries[0]
		if e.Name != "a.pdf" || e.SizeBytes != 2048 || e.IsFolder() {
			t.Errorf("entry = %+v", e)
		}
		want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		if !e.ModifiedAt.Equal(want) {
			t.Errorf("ModifiedAt = %v, want %v", e.ModifiedAt, want)
		}
	})

	t.Run("application error", func(t *testing.T) {
		c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"erreur":"path not found"}`)
		}))
		defer ts.Close()

		_, err := c.ListFiles(context.Background(), "/nope")
		var appErr *AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("ListFiles() error = %v, want *AppError", err)
		}
		if appErr.Error() != "path not found" {
			t.Errorf("message = %q, want %q", appErr.Error(), "path not found")
		}
	})

	t.Run("empty folder", func(t *testing.T) {
		c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"chemin_actuel":"/","contenu":[]}`)
		}))
		defer ts.Close()

		l, err := c.ListFiles(context.Background(), "/")
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if l.Entries == nil || len(l.Entries) != 0 {
			t.Errorf("Entries = %v, want empty non-nil slice", l.Entries)
		}
	})
}

func TestClient_Errors(t *testing.T) {
	t.Run("backend unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		c := New(Config{BaseURL: ts.URL})
		ts.Close()

		_, err := c.GeneratePairingCode(context.Background())
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("error = %v, want *TransportError", err)
		}
	})

	t.Run("non-2xx status", func(t *testing.T) {
		c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer ts.Close()

		_, err := c.DashboardStats(context.Background())
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *StatusError", err)
		}
		if se.StatusCode != http.StatusInternalServerError || se.Body != "boom" {
			t.Errorf("StatusError = %+v", se)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		block := make(chan struct{})
		c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-block
		}))
		defer ts.Close()
		defer close(block)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.ListFiles(ctx, "/")
		if !IsCanceled(err) {
			t.Errorf("IsCanceled(%v) = false, want true", err)
		}
	})
}

func TestSettingsRoundTrip(t *testing.T) {
	var posted map[string]map[string]any
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"stockage":{"dossier_principal":"/home/u/HybridStorage","quota":12345678901234},"application":{"lancement_demarrage":false,"theme":"sombre"}}`)
		case http.MethodPost:
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
				t.Errorf("decoding posted settings: %v", err)
			}
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer ts.Close()

	s, err := c.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if q, _ := s.Get(CategoryStorage, "quota"); q != json.Number("12345678901234") {
		t.Errorf("quota = %#v, want json.Number", q)
	}

	s.Set(CategoryApplication, FieldLaunchOnStart, true)
	if err := c.SaveSettings(context.Background(), s); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	if posted[CategoryApplication][FieldLaunchOnStart] != true {
		t.Errorf("posted lancement_demarrage = %v, want true", posted[CategoryApplication][FieldLaunchOnStart])
	}
	if posted[CategoryApplication]["theme"] != "sombre" {
		t.Errorf("posted theme = %v, want unchanged", posted[CategoryApplication]["theme"])
	}
	if posted[CategoryStorage][FieldMainFolder] != "/home/u/HybridStorage" {
		t.Errorf("posted dossier_principal = %v", posted[CategoryStorage][FieldMainFolder])
	}
}

func TestStatusAndDashboard(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathStatus:
			io.WriteString(w, `{"statut":"ok","message":"Le serveur est en ligne."}`)
		case PathDashboard:
			io.WriteString(w, `{"stockage":{"totalGo":1000,"utiliseGo":450,"ventilation":[{"type":"Photos","tailleGo":200}]},"appareilsConnectes":[{"nom":"iPhone de Claire","type":"iOS","statut":"En veille"}],"activiteRecente":[{"heure":"14:25","action":"Transfert terminé"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !st.OK() {
		t.Errorf("Status().OK() = false for %+v", st)
	}

	d, err := c.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("DashboardStats() error = %v", err)
	}
	if d.Storage.UsedPercent() != 45 {
		t.Errorf("UsedPercent() = %v, want 45", d.Storage.UsedPercent())
	}
	if len(d.Devices) != 1 || d.Devices[0].Status != "En veille" {
		t.Errorf("Devices = %+v", d.Devices)
	}
	if len(d.RecentActivity) != 1 || len(d.Storage.Breakdown) != 1 {
		t.Errorf("dashboard = %+v", d)
	}
}
