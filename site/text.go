package site

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/iedon/quickhtml/renderer"
	"github.com/iedon/quickhtml/typography"
)

// deriveTitle turns a file name into a page title. File systems may hand
// back decomposed accents, so the result is NFC.
func deriveTitle(relPath string) string {
	name := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return "Untitled"
	}
	return name
}

func metaDescription(summary, fallback string) string {
	const limit = 160
	text := strings.TrimSpace(summary)
	if text == "" {
		text = strings.TrimSpace(fallback)
	}
	if text == "" {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

// tableOfContents lists the page headings as links to their ids. The level
// is exposed as a class so the layout can indent entries. A page without
// headings yields an empty string.
func tableOfContents(headings []renderer.Heading, rules *typography.Rules) string {
	if len(headings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="toc">`)
	for _, h := range headings {
		fmt.Fprintf(&b, `<li class="toc-h%d"><a href="#%s">%s</a></li>`,
			h.Level, html.EscapeString(h.ID), rules.Characters(html.EscapeString(h.Text)))
	}
	b.WriteString(`</ul>`)
	return b.String()
}
