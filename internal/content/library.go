package content

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/CageChen/markpress/internal/markdown"
)

// Page is one Markdown document of the library.
type Page struct {
	// Path is "{alias}/{relative path}", the stable page address.
	Path    string    `json:"path"`
	Meta    Meta      `json:"meta"`
	Body    []byte    `json:"-"`
	ModTime time.Time `json:"modTime"`
	Size    int64     `json:"size"`
}

// Title is the front matter title, the first heading, or the file name.
func (p *Page) Title() string {
	if p.Meta.Title != "" {
		return p.Meta.Title
	}
	for _, h := range markdown.ExtractHeadings(p.Body) {
		if h.Level == 1 && h.Text != "" {
			return h.Text
		}
	}
	base := path.Base(p.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Options filter what a Library exposes.
type Options struct {
	Extensions []string
	Exclude    []string
	ShowDrafts bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Extensions: []string{".md", ".markdown"},
		Exclude:    []string{".git", "node_modules", "**/_*"},
	}
}

// Library lists and loads pages from its sources.
type Library struct {
	sources []Source
	opts    Options
}

// NewLibrary creates a library over sources. Aliases must be unique; the
// first source with a given alias wins.
func NewLibrary(opts Options, sources ...Source) *Library {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultOptions().Extensions
	}
	seen := make(map[string]bool)
	var kept []Source
	for _, s := range sources {
		if s.Alias == "" || seen[s.Alias] {
			continue
		}
		seen[s.Alias] = true
		kept = append(kept, s)
	}
	return &Library{sources: kept, opts: opts}
}

// Sources returns the library's sources in configured order.
func (l *Library) Sources() []Source { return l.sources }

// List returns every visible page without its body, newest first. Pages of
// the same date are ordered by path. Titles are filled in from the body
// when the front matter has none.
func (l *Library) List() ([]Page, error) {
	var pages []Page
	for _, src := range l.sources {
		err := fs.WalkDir(src.FS, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == "." {
				return nil
			}
			if l.excluded(src, p) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !l.IsMarkdownFile(p) {
				return nil
			}
			page, err := l.read(src, p)
			if err != nil {
				return err
			}
			if page.Meta.Draft && !l.opts.ShowDrafts {
				return nil
			}
			page.Meta.Title = page.Title()
			page.Body = nil
			pages = append(pages, *page)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", src.Alias, err)
		}
	}

	sort.SliceStable(pages, func(i, j int) bool {
		if !pages[i].Meta.Date.Equal(pages[j].Meta.Date) {
			return pages[i].Meta.Date.After(pages[j].Meta.Date)
		}
		return pages[i].Path < pages[j].Path
	})
	return pages, nil
}

// Load reads the page at p. Drafts are not found unless drafts are shown.
func (l *Library) Load(p string) (*Page, error) {
	src, rel, err := l.Resolve(p)
	if err != nil {
		return nil, err
	}
	if !l.IsMarkdownFile(rel) || l.excluded(src, rel) {
		return nil, fs.ErrNotExist
	}
	page, err := l.read(src, rel)
	if err != nil {
		return nil, err
	}
	if page.Meta.Draft && !l.opts.ShowDrafts {
		return nil, fs.ErrNotExist
	}
	return page, nil
}

// Raw returns the unparsed file of a visible page, front matter included.
func (l *Library) Raw(p string) ([]byte, error) {
	if _, err := l.Load(p); err != nil {
		return nil, err
	}
	src, rel, err := l.Resolve(p)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(src.FS, rel)
}

// Resolve splits a page path into its source and the path inside it.
// Paths escaping the source report fs.ErrPermission; unknown aliases
// report fs.ErrNotExist.
func (l *Library) Resolve(p string) (Source, string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return Source{}, "", fs.ErrNotExist
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return Source{}, "", fs.ErrPermission
		}
	}

	alias, rel, _ := strings.Cut(p, "/")
	for _, s := range l.sources {
		if s.Alias != alias {
			continue
		}
		if rel == "" {
			return s, ".", nil
		}
		if !fs.ValidPath(rel) {
			return Source{}, "", fs.ErrPermission
		}
		return s, rel, nil
	}
	return Source{}, "", fs.ErrNotExist
}

// PathFor returns the page path of a file on disk, if it belongs to one of
// the disk sources.
func (l *Library) PathFor(file string) (string, bool) {
	for _, s := range l.sources {
		if s.Dir == "" {
			continue
		}
		rel, ok := relativeTo(s.Dir, file)
		if ok {
			return s.Alias + "/" + rel, true
		}
	}
	return "", false
}

// IsMarkdownFile checks the file extension against the configured ones.
func (l *Library) IsMarkdownFile(p string) bool {
	ext := path.Ext(p)
	for _, e := range l.opts.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// IsExcluded reports whether rel, a slash-separated path inside src, matches
// a global or source exclude pattern.
func (l *Library) IsExcluded(src Source, rel string) bool {
	return l.excluded(src, rel)
}

func (l *Library) excluded(src Source, rel string) bool {
	return MatchesAny(rel, l.opts.Exclude) || MatchesAny(rel, src.Exclude)
}

func (l *Library) read(src Source, rel string) (*Page, error) {
	info, err := fs.Stat(src.FS, rel)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", rel, errIsDir)
	}
	data, err := fs.ReadFile(src.FS, rel)
	if err != nil {
		return nil, err
	}
	meta, body, err := ParseFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", src.Alias, rel, err)
	}
	if meta.Date.IsZero() {
		meta.Date = info.ModTime()
	}
	return &Page{
		Path:    src.Alias + "/" + rel,
		Meta:    meta,
		Body:    body,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

var errIsDir = errors.New("is a directory")

// IsDir reports whether err came from loading a directory.
func IsDir(err error) bool { return errors.Is(err, errIsDir) }

// MatchesAny reports whether rel or its base name matches one of the
// patterns. Patterns support "**"; a pattern naming a directory also
// excludes everything below it.
func MatchesAny(rel string, patterns []string) bool {
	base := path.Base(rel)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
		clean := strings.TrimSuffix(pattern, "/")
		if strings.HasPrefix(rel, clean+"/") {
			return true
		}
		for _, part := range strings.Split(path.Dir(rel), "/") {
			if part == "." {
				continue
			}
			if ok, err := doublestar.Match(pattern, part); err == nil && ok {
				return true
			}
		}
	}
	return false
}
