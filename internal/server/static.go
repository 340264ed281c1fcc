package server

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/dressify/webui"
)

// staticAssets returns the asset tree: dir on disk when set, otherwise the
// embedded web/ directory.
func staticAssets(dir string) (fs.FS, error) {
	if dir != "" {
		st, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("static dir: %w", err)
		}
		if !st.IsDir() {
			return nil, fmt.Errorf("static dir %s is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}
	sub, err := fs.Sub(webui.FS, "web")
	if err != nil {
		return nil, fmt.Errorf("embed: web sub-fs failed: %w", err)
	}
	return sub, nil
}

// registerStaticFiles mounts the storefront assets on the Gin engine.
// Routes registered before this take precedence. Unmatched GET/HEAD
// requests get the asset at that path if one exists, otherwise index.html.
func (s *Server) registerStaticFiles(r *gin.Engine) {
	fileServer := http.FileServer(http.FS(s.assets))

	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+c.Request.URL.Path), "/")
		if name != "" && name != "index.html" {
			if st, err := fs.Stat(s.assets, name); err == nil && !st.IsDir() {
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
		}
		s.serveIndex(c)
	})
}

// serveIndex writes the SPA entry point.
func (s *Server) serveIndex(c *gin.Context) {
	f, err := s.assets.Open("index.html")
	if err != nil {
		c.String(http.StatusNotFound, "UI not found")
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		c.String(http.StatusInternalServerError, "UI not readable")
		return
	}
	c.DataFromReader(http.StatusOK, st.Size(), "text/html; charset=utf-8", f, nil)
}
