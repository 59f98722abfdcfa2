package markdown

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Element is the closed set of node kinds the renderer styles.
type Element int

// Styled elements. ElementPlain is the fallback for anything else routed to
// the element renderer and is written as escaped text.
const (
	ElementPlain Element = iota
	ElementHeading
	ElementParagraph
	ElementList
	ElementListItem
	ElementCode
	ElementInlineCode
	ElementTable
	ElementTableHead
	ElementTableRow
	ElementTableCell
	ElementImage
	ElementBlockquote
	ElementStrong
	ElementEmphasis
	ElementLink
)

// elementOf classifies a goldmark node.
func elementOf(n ast.Node) Element {
	switch v := n.(type) {
	case *ast.Heading:
		return ElementHeading
	case *ast.Paragraph:
		return ElementParagraph
	case *ast.List:
		return ElementList
	case *ast.ListItem:
		return ElementListItem
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return ElementCode
	case *ast.CodeSpan:
		return ElementInlineCode
	case *east.Table:
		return ElementTable
	case *east.TableHeader:
		return ElementTableHead
	case *east.TableRow:
		return ElementTableRow
	case *east.TableCell:
		return ElementTableCell
	case *ast.Image:
		return ElementImage
	case *ast.Blockquote:
		return ElementBlockquote
	case *ast.Emphasis:
		if v.Level >= 2 {
			return ElementStrong
		}
		return ElementEmphasis
	case *ast.Link, *ast.AutoLink:
		return ElementLink
	default:
		return ElementPlain
	}
}

// styledKinds are the goldmark kinds routed through elementRenderer. Kinds
// not listed keep goldmark's default HTML output.
var styledKinds = []ast.NodeKind{
	ast.KindHeading,
	ast.KindParagraph,
	ast.KindList,
	ast.KindListItem,
	ast.KindFencedCodeBlock,
	ast.KindCodeBlock,
	ast.KindCodeSpan,
	east.KindTable,
	east.KindTableHeader,
	east.KindTableRow,
	east.KindTableCell,
	ast.KindImage,
	ast.KindBlockquote,
	ast.KindEmphasis,
	ast.KindLink,
	ast.KindAutoLink,
}

// elementRenderer applies the site's styling to every styled element.
type elementRenderer struct {
	highlight   renderer.NodeRendererFunc
	imageWidth  int
	imageHeight int
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *elementRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	for _, kind := range styledKinds {
		reg.Register(kind, r.render)
	}
}

func (r *elementRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch elementOf(n) {
	case ElementHeading:
		return r.renderHeading(w, n.(*ast.Heading), entering)
	case ElementParagraph:
		return wrap(w, entering, `<p class="md-p">`, "</p>\n")
	case ElementList:
		return r.renderList(w, n.(*ast.List), entering)
	case ElementListItem:
		return wrap(w, entering, `<li class="md-li">`, "</li>\n")
	case ElementCode:
		return r.renderCode(w, source, n, entering)
	case ElementInlineCode:
		return r.renderCodeSpan(w, source, n, entering)
	case ElementTable:
		return wrap(w, entering, "<div class=\"md-table-wrap\">\n<table class=\"md-table\">\n", "</table>\n</div>\n")
	case ElementTableHead:
		return wrap(w, entering, "<thead class=\"md-thead\">\n<tr class=\"md-tr\">\n", "</tr>\n</thead>\n")
	case ElementTableRow:
		return r.renderTableRow(w, n, entering)
	case ElementTableCell:
		return r.renderTableCell(w, n.(*east.TableCell), entering)
	case ElementImage:
		return r.renderImage(w, source, n.(*ast.Image), entering)
	case ElementBlockquote:
		return wrap(w, entering, "<blockquote class=\"md-callout\">\n", "</blockquote>\n")
	case ElementStrong:
		return wrap(w, entering, `<strong class="md-strong">`, "</strong>")
	case ElementEmphasis:
		return wrap(w, entering, `<em class="md-em">`, "</em>")
	case ElementLink:
		return r.renderLink(w, source, n, entering)
	default:
		if entering {
			_, _ = w.WriteString(html.EscapeString(plainText(n, source)))
		}
		return ast.WalkSkipChildren, nil
	}
}

func wrap(w util.BufWriter, entering bool, open, closing string) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(open)
	} else {
		_, _ = w.WriteString(closing)
	}
	return ast.WalkContinue, nil
}

func (r *elementRenderer) renderHeading(w util.BufWriter, n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if !entering {
		fmt.Fprintf(w, "</h%d>\n", n.Level)
		return ast.WalkContinue, nil
	}
	fmt.Fprintf(w, `<h%d class="md-heading md-h%d"`, n.Level, n.Level)
	if id, ok := n.AttributeString("id"); ok {
		if b, ok := id.([]byte); ok {
			fmt.Fprintf(w, ` id="%s"`, html.EscapeString(string(b)))
		}
	}
	_ = w.WriteByte('>')
	return ast.WalkContinue, nil
}

func (r *elementRenderer) renderList(w util.BufWriter, n *ast.List, entering bool) (ast.WalkStatus, error) {
	tag := "ul"
	if n.IsOrdered() {
		tag = "ol"
	}
	if !entering {
		fmt.Fprintf(w, "</%s>\n", tag)
		return ast.WalkContinue, nil
	}
	fmt.Fprintf(w, `<%s class="md-list md-%s"`, tag, tag)
	if n.IsOrdered() && n.Start != 1 {
		fmt.Fprintf(w, ` start="%d"`, n.Start)
	}
	_, _ = w.WriteString(">\n")
	return ast.WalkContinue, nil
}

func (r *elementRenderer) renderTableRow(w util.BufWriter, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		if _, ok := n.PreviousSibling().(*east.TableHeader); ok {
			_, _ = w.WriteString("<tbody class=\"md-tbody\">\n")
		}
		_, _ = w.WriteString("<tr class=\"md-tr\">\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("</tr>\n")
	if n.Parent().LastChild() == n {
		_, _ = w.WriteString("</tbody>\n")
	}
	return ast.WalkContinue, nil
}

func (r *elementRenderer) renderTableCell(w util.BufWriter, n *east.TableCell, entering bool) (ast.WalkStatus, error) {
	tag, class := "td", "md-td"
	if _, ok := n.Parent().(*east.TableHeader); ok {
		tag, class = "th", "md-th"
	}
	if !entering {
		fmt.Fprintf(w, "</%s>\n", tag)
		return ast.WalkContinue, nil
	}
	fmt.Fprintf(w, `<%s class="%s"`, tag, class)
	if n.Alignment != east.AlignNone {
		fmt.Fprintf(w, ` style="text-align:%s"`, n.Alignment.String())
	}
	_ = w.WriteByte('>')
	return ast.WalkContinue, nil
}

func (r *elementRenderer) renderImage(w util.BufWriter, source []byte, n *ast.Image, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<span class="md-image-box"><img class="md-image" src="`)
	if !ghtml.IsDangerousURL(n.Destination) {
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
	}
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.WriteString(html.EscapeString(plainText(n, source)))
	_ = w.WriteByte('"')
	if len(n.Title) > 0 {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML(n.Title))
		_ = w.WriteByte('"')
	}
	fmt.Fprintf(w, ` width="%d" height="%d" loading="lazy" decoding="async"></span>`, r.imageWidth, r.imageHeight)
	return ast.WalkSkipChildren, nil
}

// renderLink opens every link in a new browsing context without an opener
// reference or referrer.
func (r *elementRenderer) renderLink(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</a>")
		return ast.WalkContinue, nil
	}

	var dest, title, label []byte
	switch v := n.(type) {
	case *ast.Link:
		dest, title = v.Destination, v.Title
	case *ast.AutoLink:
		dest, label = v.URL(source), v.Label(source)
		if v.AutoLinkType == ast.AutoLinkEmail && !bytes.HasPrefix(bytes.ToLower(dest), []byte("mailto:")) {
			dest = append([]byte("mailto:"), dest...)
		}
	}

	_, _ = w.WriteString(`<a class="md-link" href="`)
	if !ghtml.IsDangerousURL(dest) {
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(dest, true)))
	}
	_ = w.WriteByte('"')
	if len(title) > 0 {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML(title))
		_ = w.WriteByte('"')
	}
	_, _ = w.WriteString(` target="_blank" rel="noopener noreferrer">`)
	if label != nil {
		_, _ = w.Write(util.EscapeHTML(label))
	}
	return ast.WalkContinue, nil
}

func (r *elementRenderer) renderCodeSpan(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</code>")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<code class="md-chip">`)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var value []byte
		switch t := c.(type) {
		case *ast.Text:
			value = t.Segment.Value(source)
		case *ast.String:
			value = t.Value
		default:
			continue
		}
		if bytes.HasSuffix(value, []byte("\n")) {
			_, _ = w.Write(util.EscapeHTML(value[:len(value)-1]))
			_ = w.WriteByte(' ')
			continue
		}
		_, _ = w.Write(util.EscapeHTML(value))
	}
	return ast.WalkSkipChildren, nil
}

// renderCode writes fenced and indented code blocks. Only fences with a
// language are highlighted and get a copy control; the rest use the
// inline chip style for the whole block.
func (r *elementRenderer) renderCode(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	code := blockText(n, source)

	var lang []byte
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		lang = fenced.Language(source)
	}
	if len(lang) == 0 || r.highlight == nil {
		_, _ = w.WriteString(`<pre class="md-code-plain"><code class="md-chip">`)
		_, _ = w.WriteString(html.EscapeString(code))
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkSkipChildren, nil
	}

	language := html.EscapeString(string(lang))
	metrics := MeasureCode(CopyPayload(code))
	fmt.Fprintf(w, `<div class="md-code %s" data-lang="%s" data-lines="%d">`, metrics.HeightClass(), language, metrics.Lines)
	_, _ = w.WriteString("\n")
	fmt.Fprintf(w, `<div class="md-code-header"><span class="md-code-lang">%s</span>`, language)
	fmt.Fprintf(w, `<button type="button" class="md-copy" aria-label="Copy code" data-copy="%s">Copy</button></div>`,
		html.EscapeString(CopyPayload(code)))
	_, _ = w.WriteString("\n")
	if _, err := r.highlight(w, source, n, true); err != nil {
		return ast.WalkStop, err
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

// blockText joins the raw lines of a code block.
func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

// plainText collects the text content of an inline subtree.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(plainText(c, source))
		}
	}
	return buf.String()
}

// captureFuncs grabs the render funcs another NodeRenderer registers.
type captureFuncs map[ast.NodeKind]renderer.NodeRendererFunc

func (c captureFuncs) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	c[kind] = fn
}
