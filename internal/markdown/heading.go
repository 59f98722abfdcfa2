package markdown

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
)

// Heading is one navigable section title of a document.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// ExtractHeadings scans source line by line and returns its ATX headings in
// document order. Lines inside fenced code blocks are never headings.
func ExtractHeadings(source []byte) []Heading {
	var headings []Heading
	slugger := NewSlugger()
	var fence fenceState

	for _, line := range strings.Split(string(source), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if fence.update(line) {
			continue
		}

		level, raw, ok := parseATX(line)
		if !ok {
			continue
		}
		text := stripInline(raw)
		headings = append(headings, Heading{
			Level: level,
			Text:  text,
			ID:    slugger.Unique(text),
		})
	}

	return headings
}

// fenceState tracks whether the scanner is inside a fenced code block.
type fenceState struct {
	open   bool
	marker byte
	length int
}

// update consumes one line and reports whether it belongs to a fence,
// including the opening and closing fence lines themselves.
func (f *fenceState) update(line string) bool {
	marker, length, rest, ok := fenceLine(line)
	if !f.open {
		if !ok {
			return false
		}
		// Backtick fences may not carry backticks in their info string.
		if marker == '`' && strings.ContainsRune(rest, '`') {
			return false
		}
		f.open, f.marker, f.length = true, marker, length
		return true
	}
	if ok && marker == f.marker && length >= f.length && strings.TrimSpace(rest) == "" {
		f.open = false
	}
	return true
}

func fenceLine(line string) (marker byte, length int, rest string, ok bool) {
	trimmed, indent := trimIndent(line)
	if indent > 3 || len(trimmed) < 3 {
		return 0, 0, "", false
	}
	marker = trimmed[0]
	if marker != '`' && marker != '~' {
		return 0, 0, "", false
	}
	for length < len(trimmed) && trimmed[length] == marker {
		length++
	}
	if length < 3 {
		return 0, 0, "", false
	}
	return marker, length, trimmed[length:], true
}

// parseATX returns the level and raw content of an ATX heading line.
func parseATX(line string) (int, string, bool) {
	trimmed, indent := trimIndent(line)
	if indent > 3 {
		return 0, "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	return level, trimClosingSequence(strings.TrimSpace(rest)), true
}

// trimClosingSequence removes an optional trailing run of '#' that is
// separated from the content by whitespace.
func trimClosingSequence(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == '#' {
		end--
	}
	if end == len(s) {
		return s
	}
	if end == 0 {
		return ""
	}
	if s[end-1] == ' ' || s[end-1] == '\t' {
		return strings.TrimSpace(s[:end])
	}
	return s
}

func trimIndent(line string) (string, int) {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	return line[indent:], indent
}

var (
	imagePattern    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkPattern     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	refLinkPattern  = regexp.MustCompile(`\[([^\]]*)\]\[[^\]]*\]`)
	htmlTagPattern  = regexp.MustCompile(`</?[A-Za-z][^>]*>`)
	escapePattern   = regexp.MustCompile("\\\\([!-/:-@\\[-`{-~])")
	emphasisPattern = regexp.MustCompile("(\\*{1,3}|~~|`+)")
)

// stripInline reduces inline Markdown to its plain text.
func stripInline(s string) string {
	s = imagePattern.ReplaceAllString(s, "$1")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = refLinkPattern.ReplaceAllString(s, "$1")
	s = htmlTagPattern.ReplaceAllString(s, "")

	// Protect escaped punctuation from the emphasis pass.
	var escaped []string
	s = escapePattern.ReplaceAllStringFunc(s, func(m string) string {
		escaped = append(escaped, m[1:])
		return "\x00" + strconv.Itoa(len(escaped)-1) + "\x00"
	})
	s = emphasisPattern.ReplaceAllString(s, "")
	s = stripUnderscores(s)
	for i, e := range escaped {
		s = strings.Replace(s, "\x00"+strconv.Itoa(i)+"\x00", e, 1)
	}

	return strings.Join(strings.Fields(s), " ")
}

// stripUnderscores drops underscore emphasis delimiters while keeping
// intraword underscores such as snake_case identifiers.
func stripUnderscores(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i := 0; i < len(runes); {
		if runes[i] != '_' {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] == '_' {
			j++
		}
		if i > 0 && j < len(runes) && isWordRune(runes[i-1]) && isWordRune(runes[j]) {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Slugify creates a URL-fragment-safe slug: lowercase, every run of
// characters that are not letters or digits collapsed into one hyphen.
func Slugify(text string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		if isWordRune(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Slugger hands out document-unique heading ids. The zero value is not
// usable; create one per document with NewSlugger.
type Slugger struct {
	seen  map[string]int
	count int
}

// NewSlugger returns an empty Slugger.
func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Unique returns the slug for the next heading with the given plain text.
// Headings whose text yields no slug get "section-<n>", n being the
// 1-based heading position. Repeats get "-2", "-3", ... appended.
func (s *Slugger) Unique(text string) string {
	s.count++
	base := Slugify(text)
	if base == "" {
		base = "section-" + strconv.Itoa(s.count)
	}

	id := base
	if n, taken := s.seen[base]; taken {
		for i := n + 1; ; i++ {
			candidate := base + "-" + strconv.Itoa(i)
			if _, used := s.seen[candidate]; !used {
				s.seen[base] = i
				id = candidate
				break
			}
		}
	} else {
		s.seen[base] = 1
	}
	if id != base {
		s.seen[id] = 1
	}
	return id
}

// Generate implements goldmark's parser.IDs. Heading values arrive as the
// raw heading content, so they go through the same stripping as
// ExtractHeadings.
func (s *Slugger) Generate(value []byte, kind ast.NodeKind) []byte {
	if kind != ast.KindHeading {
		return []byte(s.Unique(string(bytes.TrimSpace(value))))
	}
	return []byte(s.Unique(stripInline(string(value))))
}

// Put implements goldmark's parser.IDs by reserving an explicit id.
func (s *Slugger) Put(value []byte) {
	if _, ok := s.seen[string(value)]; !ok {
		s.seen[string(value)] = 1
	}
}
