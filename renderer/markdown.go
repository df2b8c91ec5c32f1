package renderer

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
	minxml "github.com/tdewolff/minify/v2/xml"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlRenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Heading represents a heading entry for table-of-contents rendering.
type Heading struct {
	ID    string
	Text  string
	Level int
}

// RenderResult wraps HTML markup and extracted metadata.
type RenderResult struct {
	HTML      []byte
	PlainText string
	Headings  []Heading
}

// Renderer transforms markdown sources into HTML fragments.
type Renderer struct {
	md       goldmark.Markdown
	minifier *minify.M
}

// New constructs a renderer with GitHub-flavored markdown extensions and
// syntax highlighting. Quotes and dashes are left as written; typography is
// applied later on the produced HTML. With minifyOutput set, MinifyHTML and
// MinifyXML compact their input.
func New(minifyOutput bool) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.WithAllClasses(true),
					chromahtml.ClassPrefix("z-"),
					chromahtml.PreventSurroundingPre(true),
				),
				highlighting.WithWrapperRenderer(codeWrapper),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			htmlRenderer.WithUnsafe(),
		),
	)

	r := &Renderer{md: md}
	if minifyOutput {
		m := minify.New()
		m.Add("text/html", &minhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
		m.Add("text/xml", &minxml.Minifier{})
		r.minifier = m
	}
	return r
}

// Render converts the provided markdown into HTML and extracts headings and
// plain text. Headings without an explicit id get a unique slug.
func (r *Renderer) Render(src []byte) (*RenderResult, error) {
	doc := r.md.Parser().Parse(text.NewReader(src))
	headings, plain := outline(doc, src)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return &RenderResult{HTML: buf.Bytes(), PlainText: plain, Headings: headings}, nil
}

// outline assigns heading ids in place and collects the headings and the
// plain text of the document.
func outline(doc ast.Node, src []byte) ([]Heading, string) {
	headings := make([]Heading, 0, 16)
	var plain strings.Builder
	seen := make(map[string]int)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			label := extractText(node, src)
			raw, _ := node.AttributeString("id")
			id := attributeToString(raw)
			if id == "" {
				id = uniqueSlug(seen, slugify(label))
				node.SetAttributeString("id", []byte(id))
			} else {
				seen[id]++
			}
			headings = append(headings, Heading{ID: id, Text: label, Level: node.Level})
		case *ast.Text:
			plain.Write(node.Segment.Value(src))
			plain.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return headings, strings.Join(strings.Fields(plain.String()), " ")
}

func uniqueSlug(seen map[string]int, base string) string {
	count := seen[base]
	seen[base] = count + 1
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, count)
}

// MinifyHTML compacts a full HTML page. It returns raw unchanged when
// minification is disabled.
func (r *Renderer) MinifyHTML(raw []byte) ([]byte, error) {
	return r.minifyAs("text/html", raw)
}

// MinifyXML compacts an XML document such as a sitemap.
func (r *Renderer) MinifyXML(raw []byte) ([]byte, error) {
	return r.minifyAs("text/xml", raw)
}

func (r *Renderer) minifyAs(mediatype string, raw []byte) ([]byte, error) {
	if r.minifier == nil {
		return raw, nil
	}
	out, err := r.minifier.Bytes(mediatype, raw)
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", mediatype, err)
	}
	return out, nil
}

func extractText(root ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if n == root {
			return ast.WalkContinue, nil
		}
		if text, ok := n.(*ast.Text); ok && entering {
			sb.Write(text.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func attributeToString(value interface{}) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return ""
	}
}

func slugify(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "section"
	}
	var sb strings.Builder
	lastDash := false
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if sb.Len() == 0 || lastDash {
				continue
			}
			sb.WriteByte('-')
			lastDash = true
		default:
			// Skip other characters
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "section"
	}
	return slug
}

func codeWrapper(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	lang := "text"
	if raw, ok := ctx.Language(); ok && len(raw) > 0 {
		lang = string(raw)
	}
	lang = string(util.EscapeHTML([]byte(lang)))
	if entering {
		_, _ = fmt.Fprintf(w, `<pre tabindex="0" class="z-chroma z-code language-%[1]s" data-lang="%[1]s"><code class="language-%[1]s" data-lang="%[1]s">`, lang)
		return
	}
	_, _ = w.WriteString("</code></pre>\n")
}
