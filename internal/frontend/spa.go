package frontend

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// spaHandler serves the built frontend. Unknown extensionless paths get
// index.html so client-side routes survive a reload.
type spaHandler struct {
	root   string
	ignore *IgnoreMatcher
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if h.ignore.Match(rel) {
		http.NotFound(w, r)
		return
	}

	if rel != "" {
		if h.serveFile(w, r, rel) {
			return
		}
		if path.Ext(rel) != "" {
			http.NotFound(w, r)
			return
		}
	}

	if !h.serveFile(w, r, "index.html") {
		http.Error(w, "frontend is not built: index.html missing in "+h.root, http.StatusServiceUnavailable)
	}
}

// serveFile writes the regular file rel and reports whether it existed.
func (h spaHandler) serveFile(w http.ResponseWriter, r *http.Request, rel string) bool {
	f, err := os.Open(filepath.Join(h.root, filepath.FromSlash(rel)))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return true
		}
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	if rel == "index.html" {
		w.Header().Set("Cache-Control", "no-cache")
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
