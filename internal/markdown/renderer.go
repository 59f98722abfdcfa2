// Package markdown renders site Markdown with goldmark: styled elements,
// chroma-highlighted code blocks with copy controls, and an outline whose
// ids are the ids of the rendered headings.
package markdown

import (
	"bytes"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Document is a rendered page body.
type Document struct {
	HTML     string    `json:"html"`
	Headings []Heading `json:"headings"`
	Title    string    `json:"title"`
}

// Options configure a Renderer.
type Options struct {
	// Style is the chroma style name used for highlighted code.
	Style string
	// ImageWidth and ImageHeight size the fixed image display box.
	ImageWidth  int
	ImageHeight int
}

// DefaultOptions returns the site defaults.
func DefaultOptions() Options {
	return Options{
		Style:       "monokai",
		ImageWidth:  800,
		ImageHeight: 450,
	}
}

// Renderer converts Markdown to styled HTML. It is safe for concurrent use.
type Renderer struct {
	md    goldmark.Markdown
	style string
}

// NewRenderer creates a renderer with GFM extensions and the element
// override table.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Style == "" {
		opts.Style = def.Style
	}
	if opts.ImageWidth <= 0 {
		opts.ImageWidth = def.ImageWidth
	}
	if opts.ImageHeight <= 0 {
		opts.ImageHeight = def.ImageHeight
	}

	// The highlighting renderer only draws the <pre> body; the wrapper and
	// copy control come from elementRenderer.
	funcs := captureFuncs{}
	highlighting.NewHTMLRenderer(
		highlighting.WithStyle(opts.Style),
		highlighting.WithFormatOptions(
			html.WithClasses(true),
		),
	).RegisterFuncs(funcs)

	elements := &elementRenderer{
		highlight:   funcs[ast.KindFencedCodeBlock],
		imageWidth:  opts.ImageWidth,
		imageHeight: opts.ImageHeight,
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			ghtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(elements, 100)),
		),
	)

	return &Renderer{md: md, style: opts.Style}
}

// Render converts source to HTML and collects its headings. The headings
// are read from the parsed tree, so every outline id names an element of
// the output.
func (r *Renderer) Render(source []byte) (*Document, error) {
	ctx := parser.NewContext(parser.WithIDs(NewSlugger()))
	root := r.md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	headings, err := collectHeadings(root, source)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, root); err != nil {
		return nil, err
	}
	return &Document{
		HTML:     buf.String(),
		Headings: headings,
		Title:    titleOf(headings),
	}, nil
}

// collectHeadings walks the tree for headings in document order, taking
// each id from the attribute the parser assigned.
func collectHeadings(root ast.Node, source []byte) ([]Heading, error) {
	var headings []Heading
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var id string
		if v, ok := heading.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}
		lines := heading.Lines()
		raw := make([]string, lines.Len())
		for i := range raw {
			seg := lines.At(i)
			raw[i] = string(seg.Value(source))
		}
		headings = append(headings, Heading{
			Level: heading.Level,
			Text:  stripInline(strings.Join(raw, " ")),
			ID:    id,
		})
		return ast.WalkSkipChildren, nil
	})
	return headings, err
}

// WriteCSS writes the chroma stylesheet matching the highlighted markup.
func (r *Renderer) WriteCSS(w io.Writer) error {
	return html.New(html.WithClasses(true)).WriteCSS(w, styles.Get(r.style))
}

// titleOf picks the first level-1 heading, else the first heading.
func titleOf(headings []Heading) string {
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	if len(headings) > 0 {
		return headings[0].Text
	}
	return ""
}
