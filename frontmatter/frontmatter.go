package frontmatter

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Delimiter separates the front matter block from the surrounding text.
const Delimiter = "---"

type scanState int

const (
	beforeFrontMatter scanState = iota
	inFrontMatter
	inBody
)

// Document is a page source split into metadata and body.
type Document struct {
	Meta *Meta
	Body string
	// HasFrontMatter reports whether an opening delimiter was found.
	HasFrontMatter bool
}

// Parse splits page lines into front matter and body.
//
// Blank lines before the opening delimiter are ignored. When the first
// non-blank line is anything other than the delimiter, the whole input is
// treated as body and no metadata is read. An unterminated front matter
// block yields an empty body.
func Parse(lines []string) *Document {
	doc := &Document{Meta: NewMeta()}

	if !opensWithDelimiter(lines) {
		doc.Body = strings.Join(lines, "\n")
		return doc
	}
	doc.HasFrontMatter = true

	var body strings.Builder
	state := beforeFrontMatter
	first := true
	for _, line := range lines {
		switch state {
		case beforeFrontMatter:
			if strings.TrimSpace(line) == Delimiter {
				state = inFrontMatter
			}
		case inFrontMatter:
			text := strings.TrimSpace(line)
			if text == Delimiter {
				state = inBody
				continue
			}
			doc.Meta.addLine(text)
		default:
			if !first {
				body.WriteByte('\n')
			}
			body.WriteString(line)
			first = false
		}
	}
	doc.Body = body.String()
	return doc
}

// Read parses a page from r. A leading UTF-8 byte order mark is dropped.
func Read(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lines := make([]string, 0, 64)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		lines = append(lines, strings.TrimSuffix(line, "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return Parse(lines), nil
}

func opensWithDelimiter(lines []string) bool {
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		return text == Delimiter
	}
	return false
}
