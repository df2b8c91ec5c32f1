package typography

import "strings"

// Transformer applies the rule set to the prose regions of HTML documents.
// It holds no per-document state and is safe for concurrent use.
type Transformer struct {
	rules *Rules
}

// NewTransformer builds a transformer for opts.
func NewTransformer(opts Options) *Transformer {
	return &Transformer{rules: NewRules(opts)}
}

// Rules exposes the underlying rule set.
func (t *Transformer) Rules() *Rules {
	return t.rules
}

// Transform corrects the typography of every prose span in html and copies
// literal spans verbatim. Quote state runs across the whole document, so a
// quotation may contain tags.
func (t *Transformer) Transform(html string) string {
	spans := Scan(html)
	if len(spans) == 0 {
		return html
	}

	var state QuoteState
	out := make([]Span, len(spans))
	for i, span := range spans {
		if span.Literal() {
			out[i] = span
			continue
		}
		out[i] = Span{Kind: Prose, Text: t.rules.Prose(span.Text, &state)}
	}
	return t.cleanup(out)
}

// cleanup reassembles the document. A dash followed by a space right after a
// closing '>' gets a non-breaking gap.
func (t *Transformer) cleanup(spans []Span) string {
	size := 0
	for _, span := range spans {
		size += len(span.Text)
	}
	var b strings.Builder
	b.Grow(size + 8)
	for i, span := range spans {
		text := span.Text
		if i > 0 && !span.Literal() && strings.HasSuffix(spans[i-1].Text, ">") {
			text = t.rules.dashGap(text)
		}
		b.WriteString(text)
	}
	return b.String()
}
