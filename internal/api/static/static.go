// Package static serves the pre-built frontend with single page app fallback:
// paths that do not name a file get the app's index.html.
package static

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-reconciler/internal/api/respond"
)

const indexFile = "index.html"

// Handler serves files from dir, falling back to dir/index.html.
func Handler(dir string) func(c *ginext.Context) {
	return func(c *ginext.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			respond.Fail(c, http.StatusNotFound, "Not found", nil)
			return
		}

		// path.Clean on a rooted path drops any "..", keeping lookups inside dir.
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if isFile(name) {
			c.File(name)
			return
		}

		index := filepath.Join(dir, indexFile)
		if isFile(index) {
			c.File(index)
			return
		}

		respond.Fail(c, http.StatusNotFound, "Frontend not built", nil)
	}
}

func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.Mode().IsRegular()
}
