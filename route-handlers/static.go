package routehandlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/coreybb/denima/webutil"
)

// SPAHandler serves the compiled front-end. Unknown paths fall back to
// index.html so client-side routes resolve; paths under /api/ never do.
type SPAHandler struct {
	root string
}

func NewSPAHandler(root string) *SPAHandler {
	return &SPAHandler{root: root}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		webutil.RespondWithError(w, r, webutil.ErrNotFound("API endpoint not found"))
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		webutil.RespondWithJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "MethodNotAllowed", "message": "Method not allowed"})
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if h.serveFile(w, r, filepath.Join(h.root, filepath.FromSlash(clean))) {
		return
	}
	if h.serveFile(w, r, filepath.Join(h.root, "index.html")) {
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "API is running"})
}

// serveFile reports false when name is missing or a directory.
func (h *SPAHandler) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
