package markdown

import (
	"strings"
)

// Minimum-height classes for highlighted code blocks.
const (
	HeightShort  = "md-code--short"
	HeightOutput = "md-code--output"
	HeightLong   = "md-code--long"
)

// longCodeLines is the line count above which a block needs no padding.
const longCodeLines = 10

// CodeMetrics are the content heuristics that pick a code block's minimum
// height. They are approximate and never change the code itself.
type CodeMetrics struct {
	HasOutput bool
	IsLong    bool
	Lines     int
}

// MeasureCode sniffs code for sample output and length.
func MeasureCode(code string) CodeMetrics {
	lines := 0
	if code != "" {
		lines = strings.Count(code, "\n") + 1
	}
	return CodeMetrics{
		HasOutput: strings.Contains(code, "Output:") ||
			strings.Contains(code, "---") ||
			(strings.Contains(code, "SELECT") && strings.Contains(code, "log_size")),
		IsLong: lines > longCodeLines,
		Lines:  lines,
	}
}

// HeightClass maps the metrics to a CSS class. Blocks showing output get
// the tallest box; long blocks get none.
func (m CodeMetrics) HeightClass() string {
	switch {
	case m.HasOutput:
		return HeightOutput
	case m.IsLong:
		return HeightLong
	default:
		return HeightShort
	}
}

// CopyPayload is the text a copy button puts on the clipboard: the code
// with exactly one trailing "\n" removed and nothing else changed.
func CopyPayload(code string) string {
	return strings.TrimSuffix(code, "\n")
}
