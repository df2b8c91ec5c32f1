package typography

import "strings"

// Kind tags a span as prose or as one of the literal region kinds.
type Kind int

const (
	Prose Kind = iota
	CodeBlock
	PreBlock
	ScriptBlock
	// Tag is a single opening or closing tag with its attributes, or a comment.
	Tag
)

func (k Kind) String() string {
	switch k {
	case Prose:
		return "prose"
	case CodeBlock:
		return "code"
	case PreBlock:
		return "pre"
	case ScriptBlock:
		return "script"
	case Tag:
		return "tag"
	default:
		return "unknown"
	}
}

// Span is a contiguous piece of an HTML document.
type Span struct {
	Kind Kind
	Text string
}

// Literal reports whether the span must be emitted unchanged.
func (s Span) Literal() bool {
	return s.Kind != Prose
}

type literalBlock struct {
	open  string
	close string
	kind  Kind
}

var literalBlocks = []literalBlock{
	{open: "<code", close: "</code>", kind: CodeBlock},
	{open: "<pre", close: "</pre>", kind: PreBlock},
	{open: "<script", close: "</script>", kind: ScriptBlock},
}

// Scan partitions html into prose and literal spans. Concatenating the
// Text of the returned spans yields html exactly.
//
// Block elements (code, pre, script) extend to their first literal closing
// tag, without nesting; any other tag extends to the next '>'. A missing
// terminator extends the span to the end of the input.
func Scan(html string) []Span {
	spans := make([]Span, 0, 16)
	pos := 0
	for pos < len(html) {
		start := nextBoundary(html, pos)
		if start > pos {
			spans = append(spans, Span{Kind: Prose, Text: html[pos:start]})
		}
		if start >= len(html) {
			break
		}
		end, kind := literalEnd(html, start)
		spans = append(spans, Span{Kind: kind, Text: html[start:end]})
		pos = end
	}
	return spans
}

// nextBoundary finds the next '<' that starts markup: a letter, a '/', or a
// comment opener must follow it.
func nextBoundary(s string, from int) int {
	for i := from; i < len(s)-1; i++ {
		if s[i] != '<' {
			continue
		}
		c := s[i+1]
		if c == '/' || isASCIILetter(c) || strings.HasPrefix(s[i:], "<!--") {
			return i
		}
	}
	return len(s)
}

func literalEnd(s string, start int) (int, Kind) {
	rest := s[start:]
	if strings.HasPrefix(rest, "<!--") {
		return spanEnd(s, start, len("<!--"), "-->"), Tag
	}
	for _, block := range literalBlocks {
		if hasTagName(rest, block.open) {
			return spanEnd(s, start, len(block.open), block.close), block.kind
		}
	}
	return spanEnd(s, start, 1, ">"), Tag
}

// spanEnd returns the index just past closer, searching from start+skip,
// or len(s) when closer is absent.
func spanEnd(s string, start, skip int, closer string) int {
	idx := strings.Index(s[start+skip:], closer)
	if idx < 0 {
		return len(s)
	}
	return start + skip + idx + len(closer)
}

// hasTagName reports whether s starts with the given "<name" opener followed
// by the end of the tag name.
func hasTagName(s, opener string) bool {
	if !strings.HasPrefix(s, opener) {
		return false
	}
	if len(s) == len(opener) {
		return true
	}
	switch s[len(opener)] {
	case '>', '/', ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
