package content

import (
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Node is a file or directory in the page tree.
type Node struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Path     string     `json:"path,omitempty"`
	Title    string     `json:"title,omitempty"`
	Children []*Node    `json:"children,omitempty"`
	ModTime  *time.Time `json:"modTime,omitempty"`
	Size     int64      `json:"size,omitempty"`
}

// Tree returns one root node per source. Directories without visible pages
// are left out.
func (l *Library) Tree() []*Node {
	var roots []*Node
	for _, src := range l.sources {
		root, err := l.buildTree(src, ".")
		if err != nil {
			continue
		}
		root.Name = src.Alias
		root.Path = src.Alias
		roots = append(roots, root)
	}
	return roots
}

func (l *Library) buildTree(src Source, rel string) (*Node, error) {
	info, err := fs.Stat(src.FS, rel)
	if err != nil {
		return nil, err
	}

	node := &Node{Name: info.Name(), Path: src.Alias + "/" + rel}

	if !info.IsDir() {
		page, err := l.read(src, rel)
		if err != nil {
			return nil, err
		}
		if page.Meta.Draft && !l.opts.ShowDrafts {
			return nil, fs.ErrNotExist
		}
		node.Type = "file"
		node.Title = page.Title()
		modTime := page.ModTime
		node.ModTime = &modTime
		node.Size = page.Size
		return node, nil
	}

	node.Type = "directory"
	entries, err := fs.ReadDir(src.FS, rel)
	if err != nil {
		return nil, err
	}

	// Directories first, then files, both alphabetically
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	for _, entry := range entries {
		childPath := entry.Name()
		if rel != "." {
			childPath = rel + "/" + childPath
		}
		if l.excluded(src, childPath) {
			continue
		}
		if !entry.IsDir() && !l.IsMarkdownFile(childPath) {
			continue
		}

		child, err := l.buildTree(src, childPath)
		if err != nil {
			continue
		}
		if child.Type == "directory" && len(child.Children) == 0 {
			continue
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
