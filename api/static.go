package api

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// contentTypes maps file extensions to the Content-Type served for them.
// Unknown extensions fall back to application/octet-stream.
var contentTypes = map[string]string{
	".htm":  "text/html",
	".html": "text/html",
	".css":  "text/css",
	".txt":  "text/plain",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpe":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".ico":  "image/vnd.microsoft.icon",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".svgz": "image/svg+xml",
	".mp3":  "audio/mpeg",
}

// staticHandler serves files under a single root directory. Paths are
// URL-decoded and canonicalized; anything resolving outside the root is
// refused.
type staticHandler struct {
	root string
}

func newStaticHandler(root string) *staticHandler {
	return &staticHandler{root: root}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		respondError(w, http.StatusMethodNotAllowed, codeInvalidMethod, "Invalid method")
		return
	}

	decoded, err := url.PathUnescape(r.URL.Path)
	if err != nil {
		respondPlain(w, http.StatusBadRequest, "Bad request")
		return
	}

	full, ok := h.resolve(decoded)
	if !ok {
		respondPlain(w, http.StatusBadRequest, "Bad request")
		return
	}

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil {
		respondPlain(w, http.StatusNotFound, "File not found")
		return
	}

	contentType, ok := contentTypes[strings.ToLower(filepath.Ext(full))]
	if !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	f, err := os.Open(full)
	if err != nil {
		respondPlain(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()
	http.ServeContent(w, r, "", info.ModTime(), f)
}

// resolve turns a request path into an absolute file path, refusing anything
// that lands outside the root. The join keeps ".." segments intact so a
// traversal attempt resolves to its real target and fails the prefix check.
func (h *staticHandler) resolve(requestPath string) (string, bool) {
	rootAbs, err := filepath.Abs(h.root)
	if err != nil {
		return "", false
	}
	fullAbs, err := filepath.Abs(filepath.Join(h.root, filepath.FromSlash(requestPath)))
	if err != nil {
		return "", false
	}
	if fullAbs != rootAbs && !strings.HasPrefix(fullAbs, rootAbs+string(filepath.Separator)) {
		return "", false
	}
	return fullAbs, true
}

func respondPlain(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write([]byte(message))
}
