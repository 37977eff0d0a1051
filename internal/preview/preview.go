// Package preview serves generated sites from the workspace so the
// regression tester and users can load them over HTTP.
package preview

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// Server maps /app/:slug/* onto the workspace directory.
type Server struct {
	root string
}

// NewServer creates a preview server over the workspace root.
func NewServer(root string) *Server {
	return &Server{root: root}
}

// Register mounts the preview routes on the router.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/app/:slug/*filepath", s.serve)
	r.GET("/app/:slug", s.redirectToIndex)
}

func (s *Server) redirectToIndex(c *gin.Context) {
	c.Redirect(http.StatusMovedPermanently, "/app/"+c.Param("slug")+"/index.html")
}

func (s *Server) serve(c *gin.Context) {
	slug := c.Param("slug")
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	if rel == "" {
		rel = "index.html"
	}

	// Generated sites are flat directories; reject any traversal.
	if strings.Contains(slug, "..") || strings.Contains(rel, "..") {
		c.String(http.StatusBadRequest, "invalid path")
		return
	}

	full := filepath.Join(s.root, slug, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "not found")
		return
	}

	c.File(full)
}
