package site

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/CageChen/markpress/internal/content"
	"github.com/CageChen/markpress/internal/markdown"
	"github.com/CageChen/markpress/internal/watcher"
)

func newSite(t *testing.T, sources ...content.Source) *Site {
	t.Helper()
	if len(sources) == 0 {
		sources = []content.Source{content.Embedded()}
	}
	lib := content.NewLibrary(content.DefaultOptions(), sources...)
	return New(lib, markdown.NewRenderer(markdown.DefaultOptions()), Options{
		Title:      "Docs",
		BaseURL:    "https://docs.example.com/",
		Wasm:       true,
		LiveReload: true,
	})
}

func parseHTML(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("html.Parse failed: %v", err)
	}
	return doc
}

func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func byAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool { return attr(n, key) == val }
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func TestPageShell(t *testing.T) {
	s := newSite(t)
	r, err := s.Render("posts/getting-started.md")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var buf bytes.Buffer
	if err := s.WritePage(&buf, r); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	doc := parseHTML(t, buf.String())

	if len(findAll(doc, byAttr("id", "reading-progress-bar"))) != 1 {
		t.Error("expected one progress bar")
	}

	// Every outline link targets a heading id present in the article.
	links := findAll(doc, hasClass("toc-link"))
	if len(links) != len(r.Doc.Headings) {
		t.Fatalf("expected %d outline links, got %d", len(r.Doc.Headings), len(links))
	}
	for _, l := range links {
		id := attr(l, "data-id")
		if attr(l, "href") != "#"+id {
			t.Errorf("link href %q does not match id %q", attr(l, "href"), id)
		}
		if len(findAll(doc, byAttr("id", id))) != 1 {
			t.Errorf("expected one element with id %q", id)
		}
	}
	if len(findAll(doc, hasClass("toc-sub"))) != 2 {
		t.Errorf("expected the two level-3 headings as sub-entries")
	}

	scripts := findAll(doc, byAttr("id", "page-headings"))
	if len(scripts) != 1 {
		t.Fatal("expected embedded headings")
	}
	var headings []markdown.Heading
	if err := json.Unmarshal([]byte(textOf(scripts[0])), &headings); err != nil {
		t.Fatalf("headings JSON: %v", err)
	}
	if diff := cmp.Diff(r.Doc.Headings, headings); diff != "" {
		t.Errorf("embedded headings mismatch (-want +got):\n%s", diff)
	}

	ld := findAll(doc, byAttr("type", "application/ld+json"))
	if len(ld) != 1 {
		t.Fatal("expected JSON-LD metadata")
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(textOf(ld[0])), &meta); err != nil {
		t.Fatalf("JSON-LD: %v", err)
	}
	if meta["@type"] != "TechArticle" || meta["headline"] != "Getting started with the log pipeline" {
		t.Errorf("unexpected JSON-LD %v", meta)
	}
	if meta["url"] != "https://docs.example.com/p/posts/getting-started/" {
		t.Errorf("unexpected JSON-LD url %v", meta["url"])
	}

	if len(findAll(doc, hasClass("share-link"))) != 3 {
		t.Error("expected three share links")
	}
	related := findAll(doc, func(n *html.Node) bool {
		return n.Data == "a" && attr(n, "href") == "/p/posts/retention/"
	})
	if len(related) != 1 {
		t.Error("expected retention post listed as related")
	}
	if !strings.Contains(buf.String(), `src="/assets/pageview.js"`) {
		t.Error("expected page script when wasm is enabled")
	}
	if len(findAll(doc, byAttr("src", "/assets/"+ReloadAsset))) != 1 {
		t.Error("expected the live reload client on a served page")
	}
}

func TestPageShellWithoutHeadings(t *testing.T) {
	s := newSite(t, memSource(map[string]string{"plain.md": "Just text.\n"}, time.Time{}))
	r, err := s.Render("docs/plain.md")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if r.Outline != nil {
		t.Errorf("expected no outline, got %v", r.Outline)
	}
	var buf bytes.Buffer
	if err := s.WritePage(&buf, r); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	doc := parseHTML(t, buf.String())
	if len(findAll(doc, hasClass("toc"))) != 0 {
		t.Error("expected no outline nav for a page without headings")
	}
	if r.Doc.Title != "plain" {
		t.Errorf("expected file name title, got %q", r.Doc.Title)
	}
}

func memSource(files map[string]string, mod time.Time) content.Source {
	m := fstest.MapFS{}
	for name, data := range files {
		m[name] = &fstest.MapFile{Data: []byte(data), ModTime: mod}
	}
	return content.Source{Alias: "docs", FS: m}
}

func TestRenderCache(t *testing.T) {
	mod := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := memSource(map[string]string{"a.md": "# A\n"}, mod)
	s := newSite(t, src)

	first, err := s.Render("docs/a.md")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := s.Render("docs/a.md")
	if first != second {
		t.Error("expected cached rendering for an unchanged page")
	}

	files := src.FS.(fstest.MapFS)
	files["a.md"] = &fstest.MapFile{Data: []byte("# A2\n"), ModTime: mod.Add(time.Minute)}
	third, _ := s.Render("docs/a.md")
	if third == second || third.Doc.Title != "A2" {
		t.Errorf("expected re-render after modification, got title %q", third.Doc.Title)
	}

	s.OnFileChange(watcher.Event{Type: watcher.EventWrite, Page: "docs/a.md"})
	fourth, _ := s.Render("docs/a.md")
	if fourth == third {
		t.Error("expected watcher event to drop the cache")
	}

	s.Invalidate("docs/a.md")
	if fifth, _ := s.Render("docs/a.md"); fifth == fourth {
		t.Error("expected Invalidate to drop the page")
	}
}

func TestRelated(t *testing.T) {
	page := func(path string, tags ...string) content.Page {
		return content.Page{Path: path, Meta: content.Meta{Tags: tags}}
	}
	pages := []content.Page{
		page("new", "go"),
		page("self", "go", "wasm"),
		page("both", "Go", "wasm"),
		page("none", "css"),
		page("old", "wasm"),
	}

	got := Related(pages, pages[1], 2)
	var paths []string
	for _, p := range got {
		paths = append(paths, p.Path)
	}
	if diff := cmp.Diff([]string{"both", "new"}, paths); diff != "" {
		t.Errorf("related mismatch (-want +got):\n%s", diff)
	}
	if Related(pages, page("x"), 3) != nil {
		t.Error("expected no related pages without tags")
	}
}

func TestLookup(t *testing.T) {
	s := newSite(t)
	for _, p := range []string{"posts/retention", "/posts/retention/", "posts/retention.md"} {
		page, err := s.Lookup(p)
		if err != nil {
			t.Errorf("Lookup(%q) failed: %v", p, err)
			continue
		}
		if page.Path != "posts/retention.md" {
			t.Errorf("Lookup(%q) = %s", p, page.Path)
		}
	}
	if _, err := s.Lookup("posts/roadmap"); err == nil {
		t.Error("expected drafts hidden from lookup")
	}
	if _, err := s.Lookup(""); err == nil {
		t.Error("expected empty path to fail")
	}
}

func TestWriteIndex(t *testing.T) {
	s := newSite(t)
	var buf bytes.Buffer
	if err := s.WriteIndex(&buf); err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}
	doc := parseHTML(t, buf.String())
	cards := findAll(doc, hasClass("page-card"))
	if len(cards) != 3 {
		t.Errorf("expected 3 pages listed, got %d", len(cards))
	}
	if strings.Contains(buf.String(), "Roadmap draft") {
		t.Error("expected draft hidden from index")
	}
	if len(findAll(doc, byAttr("src", "/assets/"+ReloadAsset))) != 1 {
		t.Error("expected the live reload client on the index")
	}
}

func TestReloadScript(t *testing.T) {
	js := string(ReloadScript())
	for _, want := range []string{"/api/ws", "pageChange", "payload.url", "location.pathname", "location.reload()"} {
		if !strings.Contains(js, want) {
			t.Errorf("expected reload client to contain %q", want)
		}
	}
}

func TestExport(t *testing.T) {
	s := newSite(t)
	dir := t.TempDir()
	wasmDir := t.TempDir()
	for _, name := range wasmFiles {
		if err := os.WriteFile(filepath.Join(wasmDir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	if err := s.Export(dir, wasmDir, &CIReporter{Out: &out}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	for _, f := range []string{
		"index.html",
		"p/posts/getting-started/index.html",
		"p/posts/retention/index.html",
		"p/posts/release-notes/index.html",
		"assets/style.css",
		"assets/pageview.js",
		"wasm/pageview.wasm",
		"wasm/wasm_exec.js",
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "p/posts/roadmap/index.html")); err == nil {
		t.Error("expected drafts not exported")
	}

	css, err := os.ReadFile(filepath.Join(dir, "assets", "style.css"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(css), ".md-code--output") || !strings.Contains(string(css), ".chroma") {
		t.Error("expected site and highlighting rules in the stylesheet")
	}

	for _, f := range []string{"index.html", "p/posts/retention/index.html"} {
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), ReloadAsset) {
			t.Errorf("expected no live reload client in exported %s", f)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "assets", ReloadAsset)); err == nil {
		t.Error("expected live reload client not exported")
	}
	var served bytes.Buffer
	if err := s.WriteIndex(&served); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(served.String(), ReloadAsset) {
		t.Error("expected export to leave served pages unchanged")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 || lines[0] != "Exporting 3 pages" || lines[4] != "Export complete" {
		t.Errorf("unexpected progress output:\n%s", out.String())
	}
}
