package site

import (
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/iedon/quickhtml/frontmatter"
	"github.com/iedon/quickhtml/fsutil"
	"github.com/iedon/quickhtml/renderer"
	"github.com/iedon/quickhtml/sitemap"
	"github.com/iedon/quickhtml/templatex"
)

// page is the parsed state of one markdown source kept for the sitemap.
type page struct {
	Source  sourceFile
	Meta    *frontmatter.Meta
	Output  string
	Written bool
}

// readDocument loads and splits a page source.
func readDocument(path string) (*frontmatter.Document, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return frontmatter.Read(file)
}

// buildPage runs one markdown file through the page pipeline and writes the
// result below outDir.
func (s *Service) buildPage(f sourceFile, outDir string) (Entry, page) {
	out := htmlPathFrom(f.Rel)
	entry := Entry{Path: f.Rel, Output: out}
	pg := page{Source: f, Output: out}

	doc, err := readDocument(f.Abs)
	if err != nil {
		entry.Status, entry.Detail = Problem, fmt.Sprintf("read page: %v", err)
		return entry, pg
	}
	pg.Meta = doc.Meta

	res, err := s.renderer.Render([]byte(doc.Body))
	if err != nil {
		entry.Status, entry.Detail = Problem, err.Error()
		return entry, pg
	}
	content := s.smart.Transform(string(res.HTML))

	vars := s.pageVars(f, doc.Meta, content, res)
	text, renderErr := s.layout.Render(vars, doc.Meta, s.siteVars)

	data, err := s.renderer.MinifyHTML([]byte(text))
	if err != nil {
		data = []byte(text)
		if renderErr == nil {
			renderErr = err
		}
	}
	if err := fsutil.WriteFile(filepath.Join(outDir, filepath.FromSlash(out)), data); err != nil {
		entry.Status, entry.Detail = Problem, fmt.Sprintf("write page: %v", err)
		return entry, pg
	}
	pg.Written = true

	if renderErr != nil {
		entry.Status, entry.Detail = Problem, renderErr.Error()
		return entry, pg
	}
	entry.Status = Written
	return entry, pg
}

// pageVars computes the variables owned by the page itself. They take
// precedence over the page metadata.
func (s *Service) pageVars(f sourceFile, meta *frontmatter.Meta, content string, res *renderer.RenderResult) templatex.Vars {
	rules := s.smart.Rules()

	title := rules.Characters(meta.Get("title").Or(deriveTitle(f.Rel)))
	index := title
	if v := meta.Get("index"); v.Present {
		index = rules.Characters(v.Text)
	}

	vars := templatex.Vars{
		"content": content,
		"title":   title,
		"index":   index,
		"root":    rootPrefix(f.Rel),
		"path":    htmlPathFrom(f.Rel),
		"toc":     tableOfContents(res.Headings, rules),
	}
	if !meta.Get("description").Present {
		vars["description"] = html.EscapeString(metaDescription(res.PlainText, ""))
	}
	if s.siteURL != "" {
		vars["url"] = sitemap.Location(s.siteURL, f.Rel, s.cfg.Index, ".html")
	}
	return vars
}
