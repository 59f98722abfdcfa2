package site

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/CageChen/markpress/internal/content"
)

//go:embed web
var webFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("January 2, 2006")
	},
	"isoDate":  func(t time.Time) string { return t.Format("2006-01-02") },
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"pageURL":  PageURL,
}).ParseFS(webFS, "web/*.html"))

var (
	pageTemplate  = templates.Lookup("page.html")
	indexTemplate = templates.Lookup("index.html")
)

type pageData struct {
	Site     Options
	Rendered *Rendered
	JSONLD   map[string]any
}

type indexItem struct {
	Page  content.Page
	Title string
	URL   string
}

type indexData struct {
	Site  Options
	Items []indexItem
}

// Asset names served under /assets/.
const (
	StylesheetAsset = "style.css"
	ScriptAsset     = "pageview.js"
	ReloadAsset     = "livereload.js"
)

// WriteStylesheet writes the site stylesheet followed by the code
// highlighting rules of the configured style.
func (s *Site) WriteStylesheet(w io.Writer) error {
	css, err := webFS.ReadFile("web/" + StylesheetAsset)
	if err != nil {
		return err
	}
	if _, err := w.Write(css); err != nil {
		return err
	}
	return s.renderer.WriteCSS(w)
}

// Script returns the loader that starts the page WebAssembly module.
func Script() []byte {
	return asset(ScriptAsset)
}

// ReloadScript returns the client that reloads a served page when the
// server reports a change to it.
func ReloadScript() []byte {
	return asset(ReloadAsset)
}

func asset(name string) []byte {
	data, err := webFS.ReadFile("web/" + name)
	if err != nil {
		panic(err)
	}
	return data
}
