package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/markpress/internal/content"
)

// TreeHandler serves the page tree.
type TreeHandler struct {
	lib *content.Library
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(lib *content.Library) *TreeHandler {
	return &TreeHandler{lib: lib}
}

// GetTree returns one tree per source. A single source is returned as the
// root itself.
func (h *TreeHandler) GetTree(c *gin.Context) {
	roots := h.lib.Tree()
	if len(roots) == 1 {
		c.JSON(http.StatusOK, roots[0])
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"type":     "root",
		"children": roots,
	})
}
