package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"hsdesk/internal/api"
	"hsdesk/internal/desk"
)

func mustTime(t *testing.T, s string) api.Timestamp {
	t.Helper()
	ts, err := api.ParseTimestamp(s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestExplorer_ListsDocs(t *testing.T) {
	source := listingFunc(func(ctx context.Context, path string) (*api.Listing, error) {
		if path != "/docs" {
			t.Errorf("listing requested for %q, want /docs", path)
		}
		return &api.Listing{CurrentPath: path, Entries: []api.FileEntry{
			{Name: "a.pdf", Path: "/docs/a.pdf", Type: api.EntryFile, SizeBytes: 2048, ModifiedAt: mustTime(t, "2024-01-01T00:00:00Z")},
		}}, nil
	})

	e := NewExplorer(source, desk.NewNopLogger())
	e.Navigate(context.Background(), "/docs")

	rows := e.Rows()
	if len(rows) != 1 {
		t.Fatalf("len(Rows()) = %d, want 1", len(rows))
	}
	if rows[0].Size != "2 Ko" {
		t.Errorf("Size = %q, want %q", rows[0].Size, "2 Ko")
	}
	if rows[0].Icon != "📄" {
		t.Errorf("Icon = %q, want document icon", rows[0].Icon)
	}
	if rows[0].Date == "" {
		t.Error("Date is empty in list view")
	}

	e.SetGrid(true)
	if r := e.Rows()[0]; r.Size != "" || r.Date != "" {
		t.Errorf("grid row = %+v, want no size or date", r)
	}
}

func TestExplorer_ErrorsReplaceContent(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"application error", &api.AppError{Message: "path not found"}, "path not found"},
		{"transport error", &api.TransportError{Op: "GET", Err: errors.New("connection refused")}, MsgServerUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fail := false
			source := listingFunc(func(ctx context.Context, path string) (*api.Listing, error) {
				if fail {
					return nil, tt.err
				}
				return &api.Listing{Entries: []api.FileEntry{{Name: "x", Path: "/x", Type: api.EntryFile}}}, nil
			})

			e := NewExplorer(source, desk.NewNopLogger())
			e.Mount(context.Background())
			if len(e.View().Entries) != 1 {
				t.Fatal("initial listing not applied")
			}

			fail = true
			e.Navigate(context.Background(), "/nope")

			v := e.View()
			if v.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", v.Message, tt.wantMsg)
			}
			if len(v.Entries) != 0 {
				t.Errorf("Entries = %v, want empty", v.Entries)
			}
			if v.Loading {
				t.Error("Loading still set")
			}
		})
	}
}

func TestExplorer_StaleSuccessIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	source := listingFunc(func(ctx context.Context, path string) (*api.Listing, error) {
		switch path {
		case "/slow":
			close(started)
			<-release // answers late, ignoring cancellation
			return &api.Listing{Entries: []api.FileEntry{{Name: "late.txt", Path: "/slow/late.txt"}}}, nil
		default:
			return nil, &api.AppError{Message: "path not found"}
		}
	})

	e := NewExplorer(source, desk.NewNopLogger())

	done := make(chan struct{})
	go func() {
		e.Navigate(context.Background(), "/slow")
		close(done)
	}()
	<-started

	e.Navigate(context.Background(), "/missing")
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stale navigation never returned")
	}

	v := e.View()
	if v.Path != "/missing" {
		t.Errorf("Path = %q, want /missing", v.Path)
	}
	if v.Message != "path not found" {
		t.Errorf("Message = %q, want %q", v.Message, "path not found")
	}
	if len(v.Entries) != 0 {
		t.Errorf("Entries = %v, want empty", v.Entries)
	}
}

func TestExplorer_SupersededRequestIsCanceled(t *testing.T) {
	canceled := make(chan error, 1)
	started := make(chan struct{})

	source := listingFunc(func(ctx context.Context, path string) (*api.Listing, error) {
		if path == "/slow" {
			close(started)
			<-ctx.Done()
			canceled <- ctx.Err()
			return nil, &api.TransportError{Op: "GET", Err: ctx.Err()}
		}
		return &api.Listing{Entries: []api.FileEntry{}}, nil
	})

	e := NewExplorer(source, desk.NewNopLogger())
	go e.Navigate(context.Background(), "/slow")
	<-started
	e.Navigate(context.Background(), "/")

	select {
	case err := <-canceled:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("superseded request ctx.Err() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request was not canceled")
	}
	if msg := e.View().Message; msg != "" {
		t.Errorf("Message = %q, stale failure must not be shown", msg)
	}
}

func TestExplorer_Navigation(t *testing.T) {
	var requested []string
	source := listingFunc(func(ctx context.Context, path string) (*api.Listing, error) {
		requested = append(requested, path)
		return &api.Listing{Entries: []api.FileEntry{
			{Name: "Photos", Path: "/Photos", Type: api.EntryFolder},
			{Name: "cv.pdf", Path: "/cv.pdf", Type: api.EntryFile, SizeBytes: 10},
		}}, nil
	})

	ctx := context.Background()
	e := NewExplorer(source, desk.NewNopLogger())
	e.Mount(ctx)

	if !e.OpenName(ctx, "cv.pdf") {
		t.Fatal("OpenName(cv.pdf) = false")
	}
	if sel := e.View().Selected; sel == nil || sel.Name != "cv.pdf" {
		t.Errorf("Selected = %v, want cv.pdf", sel)
	}
	if len(requested) != 1 {
		t.Errorf("selecting a file issued a request: %v", requested)
	}

	e.OpenName(ctx, "Photos")
	v := e.View()
	if v.Path != "/Photos" {
		t.Errorf("Path = %q, want /Photos", v.Path)
	}
	if v.Selected != nil {
		t.Error("selection kept after entering a folder")
	}

	e.Up(ctx)
	if got := e.View().Path; got != "/" {
		t.Errorf("Path after Up = %q, want /", got)
	}

	before := len(requested)
	e.Up(ctx)
	if len(requested) != before {
		t.Error("Up at root issued a request")
	}

	if e.OpenName(ctx, "absent") {
		t.Error("OpenName(absent) = true")
	}
}

func TestExplorer_UnmountDropsResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	source := listingFunc(func(ctx context.Context, path string) (*api.Listing, error) {
		close(started)
		<-release
		return &api.Listing{Entries: []api.FileEntry{{Name: "late"}}}, nil
	})

	e := NewExplorer(source, desk.NewNopLogger())
	done := make(chan struct{})
	go func() {
		e.Navigate(context.Background(), "/")
		close(done)
	}()
	<-started
	e.Unmount()
	close(release)
	<-done

	if n := len(e.View().Entries); n != 0 {
		t.Errorf("Entries after unmount = %d, want 0", n)
	}
}
