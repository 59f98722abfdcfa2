// Package site turns library pages into full HTML documents: the page shell
// with outline and progress bar, the index, and a static export.
package site

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/CageChen/markpress/internal/content"
	"github.com/CageChen/markpress/internal/markdown"
	"github.com/CageChen/markpress/internal/toc"
	"github.com/CageChen/markpress/internal/watcher"
)

// relatedLimit caps the related pages listed under a page.
const relatedLimit = 3

// Options configure a Site.
type Options struct {
	Title   string
	BaseURL string
	// Wasm enables the interactive page script.
	Wasm bool
	// LiveReload makes served pages reload when their file changes.
	LiveReload bool
}

// Rendered is a page ready to be written into the shell.
type Rendered struct {
	Page     content.Page
	Doc      *markdown.Document
	Outline  []toc.Entry
	Related  []content.Page
	URL      string
	Share    []ShareLink
	Rendered time.Time
}

type cacheEntry struct {
	modTime  time.Time
	rendered *Rendered
}

// Site renders pages of a library and caches the results until the page
// changes.
type Site struct {
	lib      *content.Library
	renderer *markdown.Renderer
	opts     Options

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// New creates a site over lib.
func New(lib *content.Library, renderer *markdown.Renderer, opts Options) *Site {
	if opts.Title == "" {
		opts.Title = "markpress"
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Site{
		lib:      lib,
		renderer: renderer,
		opts:     opts,
		cache:    make(map[string]cacheEntry),
	}
}

// Library returns the page library.
func (s *Site) Library() *content.Library { return s.lib }

// Renderer returns the Markdown renderer.
func (s *Site) Renderer() *markdown.Renderer { return s.renderer }

// PageURL is the address of a page in the shell, without its extension.
func PageURL(pagePath string) string {
	return "/p/" + strings.TrimSuffix(pagePath, path.Ext(pagePath)) + "/"
}

// Lookup finds the page addressed by a shell URL path. The path may carry
// the Markdown extension or not.
func (s *Site) Lookup(urlPath string) (*content.Page, error) {
	p := strings.Trim(urlPath, "/")
	if p == "" {
		return nil, fs.ErrNotExist
	}
	page, err := s.lib.Load(p)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return page, err
	}
	for _, ext := range []string{".md", ".markdown"} {
		page, err := s.lib.Load(p + ext)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return page, err
		}
	}
	return nil, fs.ErrNotExist
}

// Render loads and renders the page at pagePath, from cache when the page
// has not changed since it was last rendered.
func (s *Site) Render(pagePath string) (*Rendered, error) {
	page, err := s.lib.Load(pagePath)
	if err != nil {
		return nil, err
	}
	return s.RenderPage(page)
}

// RenderPage renders an already loaded page.
func (s *Site) RenderPage(page *content.Page) (*Rendered, error) {
	s.mu.RLock()
	entry, ok := s.cache[page.Path]
	s.mu.RUnlock()
	if ok && entry.modTime.Equal(page.ModTime) {
		return entry.rendered, nil
	}

	doc, err := s.renderer.Render(page.Body)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", page.Path, err)
	}
	if page.Meta.Title != "" {
		doc.Title = page.Meta.Title
	} else if doc.Title == "" {
		doc.Title = page.Title()
	}

	pages, err := s.lib.List()
	if err != nil {
		return nil, err
	}

	url := PageURL(page.Path)
	r := &Rendered{
		Page:     *page,
		Doc:      doc,
		Outline:  toc.Outline(doc.Headings),
		Related:  Related(pages, *page, relatedLimit),
		URL:      url,
		Share:    ShareLinks(s.opts.BaseURL+url, doc.Title),
		Rendered: time.Now(),
	}

	s.mu.Lock()
	s.cache[page.Path] = cacheEntry{modTime: page.ModTime, rendered: r}
	s.mu.Unlock()
	return r, nil
}

// Invalidate drops the cached rendering of a page.
func (s *Site) Invalidate(pagePath string) {
	s.mu.Lock()
	delete(s.cache, pagePath)
	s.mu.Unlock()
}

// InvalidateAll empties the cache.
func (s *Site) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
}

// OnFileChange keeps the cache in step with the watcher. Related pages
// depend on every page's tags, so any change drops everything.
func (s *Site) OnFileChange(event watcher.Event) {
	log.Printf("Page %s: %s", event.Type, event.Page)
	s.InvalidateAll()
}

// Related returns up to limit pages sharing the most tags with page, most
// shared first, then newest first.
func Related(pages []content.Page, page content.Page, limit int) []content.Page {
	tags := make(map[string]bool, len(page.Meta.Tags))
	for _, t := range page.Meta.Tags {
		tags[strings.ToLower(t)] = true
	}
	if len(tags) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		page  content.Page
		score int
	}
	var candidates []scored
	for _, p := range pages {
		if p.Path == page.Path {
			continue
		}
		n := 0
		for _, t := range p.Meta.Tags {
			if tags[strings.ToLower(t)] {
				n++
			}
		}
		if n > 0 {
			candidates = append(candidates, scored{p, n})
		}
	}

	// pages arrive newest first
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]content.Page, len(candidates))
	for i, c := range candidates {
		out[i] = c.page
	}
	return out
}

// WritePage writes the full HTML document of a page.
func (s *Site) WritePage(w io.Writer, r *Rendered) error {
	return writePage(w, s.opts, r)
}

func writePage(w io.Writer, opts Options, r *Rendered) error {
	return pageTemplate.Execute(w, pageData{
		Site:     opts,
		Rendered: r,
		JSONLD:   articleLD(opts, r),
	})
}

// WriteIndex writes the page listing.
func (s *Site) WriteIndex(w io.Writer) error {
	return s.writeIndex(w, s.opts)
}

func (s *Site) writeIndex(w io.Writer, opts Options) error {
	pages, err := s.lib.List()
	if err != nil {
		return err
	}
	items := make([]indexItem, len(pages))
	for i := range pages {
		items[i] = indexItem{Page: pages[i], Title: pages[i].Title(), URL: PageURL(pages[i].Path)}
	}
	return indexTemplate.Execute(w, indexData{Site: opts, Items: items})
}
