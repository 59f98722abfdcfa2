package content

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func memSource(alias string, files map[string]string) Source {
	m := fstest.MapFS{}
	for name, data := range files {
		m[name] = &fstest.MapFile{Data: []byte(data), ModTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	}
	return Source{Alias: alias, FS: m}
}

func TestParseFrontMatter(t *testing.T) {
	meta, body, err := ParseFrontMatter([]byte("---\ntitle: Hello\ntags: [a, b]\nkind: tutorial\ndate: 2025-01-02\n---\n# Body\n"))
	if err != nil {
		t.Fatalf("ParseFrontMatter failed: %v", err)
	}
	if meta.Title != "Hello" || meta.Kind != KindTutorial {
		t.Errorf("unexpected meta %+v", meta)
	}
	if diff := cmp.Diff([]string{"a", "b"}, meta.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if !meta.Date.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", meta.Date)
	}
	if string(body) != "# Body\n" {
		t.Errorf("unexpected body %q", body)
	}

	meta, body, err = ParseFrontMatter([]byte("# Plain\n"))
	if err != nil {
		t.Fatalf("ParseFrontMatter without front matter failed: %v", err)
	}
	if meta.Kind != KindBlog || string(body) != "# Plain\n" {
		t.Errorf("expected defaults and full body, got %+v %q", meta, body)
	}

	if _, _, err := ParseFrontMatter([]byte("---\nkind: poem\n---\n")); err == nil {
		t.Error("expected unknown kind to fail")
	}
}

func TestEmbeddedLibrary(t *testing.T) {
	lib := NewLibrary(DefaultOptions(), Embedded())
	pages, err := lib.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	var paths []string
	for _, p := range pages {
		paths = append(paths, p.Path)
		if p.Body != nil {
			t.Errorf("expected listing without bodies, %s has one", p.Path)
		}
	}
	want := []string{
		"posts/release-notes.md",
		"posts/retention.md",
		"posts/getting-started.md",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}

	page, err := lib.Load("posts/getting-started.md")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if page.Meta.Kind != KindTutorial || len(page.Body) == 0 {
		t.Errorf("unexpected page %+v", page.Meta)
	}
}

func TestDrafts(t *testing.T) {
	src := memSource("docs", map[string]string{
		"a.md":      "---\ndraft: true\n---\n# A\n",
		"b.md":      "# B\n",
		"notes.txt": "not markdown",
	})

	lib := NewLibrary(Options{}, src)
	pages, err := lib.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Path != "docs/b.md" {
		t.Errorf("expected only docs/b.md, got %+v", pages)
	}
	if _, err := lib.Load("docs/a.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected hidden draft, got %v", err)
	}

	lib = NewLibrary(Options{ShowDrafts: true}, src)
	if _, err := lib.Load("docs/a.md"); err != nil {
		t.Errorf("expected draft visible, got %v", err)
	}
}

func TestListOrder(t *testing.T) {
	src := memSource("docs", map[string]string{
		"old.md": "---\ndate: 2020-01-01\n---\n",
		"b.md":   "---\ndate: 2024-06-01\n---\n",
		"a.md":   "---\ndate: 2024-06-01\n---\n",
		"new.md": "---\ndate: 2025-01-01\n---\n",
	})
	pages, err := NewLibrary(Options{}, src).List()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, p := range pages {
		got = append(got, p.Path)
	}
	want := []string{"docs/new.md", "docs/a.md", "docs/b.md", "docs/old.md"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	lib := NewLibrary(Options{}, memSource("docs", map[string]string{"a.md": "# A"}))

	tests := []struct {
		path    string
		wantRel string
		wantErr error
	}{
		{"docs/a.md", "a.md", nil},
		{"/docs/a.md", "a.md", nil},
		{"docs", ".", nil},
		{"docs/../etc/passwd", "", fs.ErrPermission},
		{"../docs/a.md", "", fs.ErrPermission},
		{"other/a.md", "", fs.ErrNotExist},
		{"", "", fs.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, rel, err := lib.Resolve(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if rel != tt.wantRel {
				t.Errorf("expected rel %q, got %q", tt.wantRel, rel)
			}
		})
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		rel      string
		patterns []string
		want     bool
	}{
		{"node_modules/x/readme.md", []string{"node_modules"}, true},
		{"docs/.git/HEAD", []string{".git"}, true},
		{"a/b/_partial.md", []string{"**/_*"}, true},
		{"archive/2019/post.md", []string{"archive/**"}, true},
		{"drafts/post.md", []string{"drafts/"}, true},
		{"readme.md", []string{".*"}, false},
		{"guide/readme.md", []string{"*.txt"}, false},
		{"guide/readme.md", nil, false},
	}
	for _, tt := range tests {
		if got := MatchesAny(tt.rel, tt.patterns); got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.rel, tt.patterns, got, tt.want)
		}
	}
}

func TestDiskSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "guide", "intro.md"), "# Intro\n\nHello.\n")
	writeFile(t, filepath.Join(dir, "vendor", "skip.md"), "# Skip\n")
	writeFile(t, filepath.Join(dir, "empty", "image.png"), "png")

	src := Dir(dir, "site", []string{"vendor"})
	lib := NewLibrary(Options{}, src)

	page, err := lib.Load("site/guide/intro.md")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if page.Title() != "Intro" {
		t.Errorf("expected title from heading, got %q", page.Title())
	}
	if page.Meta.Date.IsZero() {
		t.Error("expected date to default to modification time")
	}
	if _, err := lib.Load("site/vendor/skip.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected excluded page not found, got %v", err)
	}

	p, ok := lib.PathFor(filepath.Join(dir, "guide", "intro.md"))
	if !ok || p != "site/guide/intro.md" {
		t.Errorf("PathFor = %q, %v", p, ok)
	}
	if _, ok := lib.PathFor(filepath.Join(filepath.Dir(dir), "elsewhere.md")); ok {
		t.Error("expected file outside the source to have no page path")
	}

	roots := lib.Tree()
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	root := roots[0]
	if root.Name != "site" || len(root.Children) != 1 || root.Children[0].Name != "guide" {
		t.Fatalf("unexpected tree %+v", root)
	}
	leaf := root.Children[0].Children[0]
	if leaf.Path != "site/guide/intro.md" || leaf.Title != "Intro" || leaf.Type != "file" {
		t.Errorf("unexpected leaf %+v", leaf)
	}
}

func TestPageTitleFallback(t *testing.T) {
	p := &Page{Path: "docs/setup-guide.md", Body: []byte("no heading here")}
	if p.Title() != "setup-guide" {
		t.Errorf("expected file name title, got %q", p.Title())
	}
	p.Meta.Title = "Explicit"
	if p.Title() != "Explicit" {
		t.Errorf("expected front matter title, got %q", p.Title())
	}
}

func TestRaw(t *testing.T) {
	src := memSource("docs", map[string]string{
		"a.md": "---\ntitle: A\n---\n# A\n",
		"d.md": "---\ndraft: true\n---\n",
	})
	lib := NewLibrary(Options{}, src)

	raw, err := lib.Raw("docs/a.md")
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	if string(raw) != "---\ntitle: A\n---\n# A\n" {
		t.Errorf("expected file with front matter, got %q", raw)
	}
	if _, err := lib.Raw("docs/d.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected draft hidden, got %v", err)
	}
}
