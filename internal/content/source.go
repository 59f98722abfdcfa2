// Package content provides the page library: Markdown files with front
// matter, read from the embedded posts or from folders on disk.
package content

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed posts
var postsFS embed.FS

// EmbeddedAlias is the path prefix of the built-in pages.
const EmbeddedAlias = "posts"

// Source is one root of pages, addressed by its alias.
type Source struct {
	Alias   string
	FS      fs.FS
	Exclude []string
	// Dir is the disk directory behind FS, empty for embedded pages.
	Dir string
}

// Embedded returns the pages compiled into the binary.
func Embedded() Source {
	sub, err := fs.Sub(postsFS, "posts")
	if err != nil {
		panic(err)
	}
	return Source{Alias: EmbeddedAlias, FS: sub}
}

// Dir returns a source reading the directory at path. An empty alias uses
// the directory name.
func Dir(path, alias string, exclude []string) Source {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if alias == "" {
		alias = filepath.Base(path)
	}
	return Source{Alias: alias, FS: os.DirFS(path), Exclude: exclude, Dir: path}
}

// DiskPath maps a page path of this source back to a file on disk.
func (s Source) DiskPath(rel string) (string, bool) {
	if s.Dir == "" {
		return "", false
	}
	return filepath.Join(s.Dir, filepath.FromSlash(rel)), true
}

// relativeTo returns file relative to dir with forward slashes, if file is
// inside dir.
func relativeTo(dir, file string) (string, bool) {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return "", false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
