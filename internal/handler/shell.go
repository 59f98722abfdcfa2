package handler

import (
	"bytes"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/markpress/internal/site"
)

// ShellHandler serves full HTML pages and the site assets.
type ShellHandler struct {
	site *site.Site
}

// NewShellHandler creates a new shell handler
func NewShellHandler(s *site.Site) *ShellHandler {
	return &ShellHandler{site: s}
}

// Index lists all pages.
func (h *ShellHandler) Index(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.site.WriteIndex(&buf); err != nil {
		log.Printf("Failed to render index: %v", err)
		c.String(http.StatusInternalServerError, "failed to render index")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Page renders a page inside the site shell. Requests for the Markdown file
// itself redirect to the canonical page URL.
func (h *ShellHandler) Page(c *gin.Context) {
	page, err := h.site.Lookup(c.Param("path"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if url := site.PageURL(page.Path); url != c.Request.URL.Path {
		c.Redirect(http.StatusMovedPermanently, url)
		return
	}

	r, err := h.site.RenderPage(page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.site.WritePage(&buf, r); err != nil {
		log.Printf("Failed to render %s: %v", page.Path, err)
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Stylesheet serves the site CSS with the highlighting rules.
func (h *ShellHandler) Stylesheet(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.site.WriteStylesheet(&buf); err != nil {
		c.String(http.StatusInternalServerError, "failed to render stylesheet")
		return
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", buf.Bytes())
}

// Script serves the page module loader.
func (h *ShellHandler) Script(c *gin.Context) {
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", site.Script())
}

// ReloadScript serves the live reload client.
func (h *ShellHandler) ReloadScript(c *gin.Context) {
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", site.ReloadScript())
}
