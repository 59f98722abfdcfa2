package content

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"
)

// Kind groups pages on the index.
type Kind string

// Page kinds.
const (
	KindBlog     Kind = "blog"
	KindTutorial Kind = "tutorial"
	KindProduct  Kind = "product"
)

// Meta is the front matter of a page.
type Meta struct {
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Date        time.Time `yaml:"date" json:"date"`
	Author      string    `yaml:"author" json:"author,omitempty"`
	Tags        []string  `yaml:"tags" json:"tags,omitempty"`
	Draft       bool      `yaml:"draft" json:"draft,omitempty"`
	Kind        Kind      `yaml:"kind" json:"kind"`
}

// ParseFrontMatter splits source into its metadata and Markdown body.
// Sources without front matter return zero metadata and the whole input.
func ParseFrontMatter(source []byte) (Meta, []byte, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	switch meta.Kind {
	case KindBlog, KindTutorial, KindProduct:
	case "":
		meta.Kind = KindBlog
	default:
		return Meta{}, nil, fmt.Errorf("parse frontmatter: unknown kind %q", meta.Kind)
	}
	return meta, body, nil
}
