package screen

import (
	"context"
	"errors"
	"sync"

	"hsdesk/internal/api"
	"hsdesk/internal/desk"
)

// ListingSource lists directories. *api.Client satisfies it.
type ListingSource interface {
	ListFiles(ctx context.Context, path string) (*api.Listing, error)
}

// Row is one rendered entry. Size and Date are empty in grid view.
type Row struct {
	Icon     string
	Name     string
	Size     string
	Date     string
	Selected bool
}

type ExplorerView struct {
	Path     string
	Loading  bool
	Message  string
	Entries  []api.FileEntry
	Selected *api.FileEntry
	Grid     bool
}

// CanGoUp reports whether the parent action is available.
func (v ExplorerView) CanGoUp() bool { return v.Path != "/" }

// Explorer browses the backend's files. All state derives from the current
// path: each change issues a listing request, and only the latest request
// may update the view.
type Explorer struct {
	source   ListingSource
	logger   desk.Logger
	lifetime Lifetime

	mu       sync.Mutex
	path     string
	loading  bool
	message  string
	entries  []api.FileEntry
	selected *api.FileEntry
	grid     bool
}

func NewExplorer(source ListingSource, logger desk.Logger) *Explorer {
	return &Explorer{source: source, logger: logger, path: "/", entries: []api.FileEntry{}}
}

// Mount lists the root folder.
func (e *Explorer) Mount(ctx context.Context) {
	e.lifetime.Reset()
	e.Navigate(ctx, "/")
}

// Navigate makes path current and lists it, blocking until the response is
// applied or discarded.
func (e *Explorer) Navigate(ctx context.Context, path string) {
	if path == "" {
		path = "/"
	}
	reqCtx, tok := e.lifetime.Begin(ctx)
	defer e.lifetime.Finish(tok)

	e.mu.Lock()
	e.path = path
	e.loading = true
	e.message = ""
	e.mu.Unlock()

	listing, err := e.source.ListFiles(reqCtx, path)

	if !e.lifetime.Current(tok) {
		e.logger.Debug("discarding stale listing", "path", path)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false

	var appErr *api.AppError
	switch {
	case errors.As(err, &appErr):
		e.message = appErr.Message
		e.entries = []api.FileEntry{}
	case err != nil:
		e.logger.Error("listing files", "path", path, "error", err)
		e.message = MsgServerUnreachable
		e.entries = []api.FileEntry{}
	default:
		e.entries = listing.Entries
	}
}

// Open navigates into a folder, or selects a file for the detail panel.
func (e *Explorer) Open(ctx context.Context, entry api.FileEntry) {
	if entry.IsFolder() {
		e.mu.Lock()
		e.selected = nil
		e.mu.Unlock()
		e.Navigate(ctx, entry.Path)
		return
	}

	e.mu.Lock()
	sel := entry
	e.selected = &sel
	e.mu.Unlock()
}

// OpenName opens the entry called name in the current listing.
func (e *Explorer) OpenName(ctx context.Context, name string) bool {
	e.mu.Lock()
	var found *api.FileEntry
	for i := range e.entries {
		if e.entries[i].Name == name {
			entry := e.entries[i]
			found = &entry
			break
		}
	}
	e.mu.Unlock()

	if found == nil {
		return false
	}
	e.Open(ctx, *found)
	return true
}

// Up navigates to the parent folder. It is a no-op at the root.
func (e *Explorer) Up(ctx context.Context) {
	e.mu.Lock()
	current := e.path
	e.mu.Unlock()

	if current == "/" {
		return
	}
	e.Navigate(ctx, ParentPath(current))
}

// Refresh lists the current path again.
func (e *Explorer) Refresh(ctx context.Context) {
	e.mu.Lock()
	current := e.path
	e.mu.Unlock()
	e.Navigate(ctx, current)
}

// SetGrid switches between list and grid view.
func (e *Explorer) SetGrid(grid bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.grid = grid
}

// Unmount drops any listing still in flight.
func (e *Explorer) Unmount() {
	e.lifetime.End()
}

func (e *Explorer) View() ExplorerView {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := ExplorerView{
		Path:    e.path,
		Loading: e.loading,
		Message: e.message,
		Entries: append([]api.FileEntry(nil), e.entries...),
		Grid:    e.grid,
	}
	if e.selected != nil {
		sel := *e.selected
		v.Selected = &sel
	}
	return v
}

// Rows renders the current entries.
func (e *Explorer) Rows() []Row {
	v := e.View()
	rows := make([]Row, len(v.Entries))
	for i, entry := range v.Entries {
		rows[i] = Row{
			Icon:     Icon(entry),
			Name:     entry.Name,
			Selected: v.Selected != nil && v.Selected.Path == entry.Path,
		}
		if !v.Grid {
			rows[i].Size = FormatSize(entry.SizeBytes)
			rows[i].Date = FormatDate(entry.ModifiedAt.Time)
		}
	}
	return rows
}
