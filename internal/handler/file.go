// Package handler provides the HTTP handlers for pages and the JSON API.
package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/markpress/internal/content"
	"github.com/CageChen/markpress/internal/markdown"
	"github.com/CageChen/markpress/internal/site"
	"github.com/CageChen/markpress/internal/toc"
)

// PageResponse is the rendered page returned by the API.
type PageResponse struct {
	Path     string             `json:"path"`
	URL      string             `json:"url"`
	Title    string             `json:"title"`
	HTML     string             `json:"html"`
	Headings []markdown.Heading `json:"headings"`
	Outline  []toc.Entry        `json:"outline"`
	Meta     content.Meta       `json:"meta"`
	Related  []string           `json:"related"`
	ModTime  time.Time          `json:"modTime"`
}

// FileHandler handles page content API requests.
type FileHandler struct {
	site *site.Site
}

// NewFileHandler creates a new file handler
func NewFileHandler(s *site.Site) *FileHandler {
	return &FileHandler{site: s}
}

// abortWithError maps library errors to a status and a JSON error body.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fs.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, fs.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	case content.IsDir(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is a directory"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListPages returns every visible page, newest first.
func (h *FileHandler) ListPages(c *gin.Context) {
	pages, err := h.site.Library().List()
	if err != nil {
		abortWithError(c, err)
		return
	}
	if pages == nil {
		pages = []content.Page{}
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

// GetPage returns the rendered HTML, headings and outline of a page.
func (h *FileHandler) GetPage(c *gin.Context) {
	page, err := h.site.Lookup(c.Param("path"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	r, err := h.site.RenderPage(page)
	if err != nil {
		abortWithError(c, err)
		return
	}

	related := make([]string, len(r.Related))
	for i, p := range r.Related {
		related[i] = p.Path
	}
	c.JSON(http.StatusOK, PageResponse{
		Path:     r.Page.Path,
		URL:      r.URL,
		Title:    r.Doc.Title,
		HTML:     r.Doc.HTML,
		Headings: r.Doc.Headings,
		Outline:  r.Outline,
		Meta:     r.Page.Meta,
		Related:  related,
		ModTime:  r.Page.ModTime,
	})
}

// GetHeadings returns only the headings of a rendered page.
func (h *FileHandler) GetHeadings(c *gin.Context) {
	page, err := h.site.Lookup(c.Param("path"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	r, err := h.site.RenderPage(page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	headings := r.Doc.Headings
	if headings == nil {
		headings = []markdown.Heading{}
	}
	c.JSON(http.StatusOK, gin.H{"path": page.Path, "headings": headings})
}

// GetRaw returns the page source including its front matter.
func (h *FileHandler) GetRaw(c *gin.Context) {
	page, err := h.site.Lookup(c.Param("path"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	data, err := h.site.Library().Raw(page.Path)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", data)
}
