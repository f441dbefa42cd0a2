package tether

import (
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// staticRelPath returns the fs path for a request path. It rejects
// traversal, NUL bytes and backslashes so lookups stay inside the FS.
func staticRelPath(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, "/")
	if strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return "", false
	}
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel = path.Join(rel, "index.html")
	}
	if !fs.ValidPath(rel) {
		return "", false
	}
	return rel, true
}

// serveStatic serves the file for r if the static FS has one and reports
// whether it did.
func (a *App) serveStatic(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	rel, ok := staticRelPath(r.URL.Path)
	if !ok {
		return false
	}

	f, err := a.opts.Static.Open(rel)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	content, ok := f.(io.ReadSeeker)
	if !ok {
		return false
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, rel, info.ModTime(), content)
	return true
}
