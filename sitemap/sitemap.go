package sitemap

import (
	"errors"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/iedon/quickhtml/frontmatter"
	"github.com/iedon/quickhtml/templatex"
)

const (
	DefaultChangeFreq = "yearly"
	DefaultPriority   = "1.0"

	dateLayout = "2006-01-02"
)

var (
	// ErrMissingSiteURL is returned when neither the template nor the site
	// configuration provides the absolute site URL.
	ErrMissingSiteURL = errors.New("site url is not configured")
	// ErrNoURLFragment is returned when the template body has no <url> element.
	ErrNoURLFragment = errors.New("sitemap template has no <url> fragment")
)

// Entry is one <url> element before rendering.
type Entry struct {
	Location        string
	LastModified    string
	ChangeFrequency string
	Priority        string
}

// Vars exposes the entry as the variable source for the <url> fragment.
func (e Entry) Vars() templatex.Vars {
	return templatex.Vars{
		"loc":        e.Location,
		"lastmod":    e.LastModified,
		"changefreq": e.ChangeFrequency,
		"priority":   e.Priority,
	}
}

// Page describes a published page.
type Page struct {
	// Path is the source path relative to the site root, slash separated.
	Path    string
	Meta    *frontmatter.Meta
	ModTime time.Time
}

// Options carries the site-wide settings the assembler falls back to.
type Options struct {
	SiteURL      string
	IndexName    string
	PublishedExt string
	ChangeFreq   string
	Priority     string
	MaxPasses    int
}

// Assembler collects rendered <url> elements for one build. It is not safe
// for concurrent use; pages are added in enumeration order and sorted once
// in Render.
type Assembler struct {
	body       string
	fragStart  int
	fragEnd    int
	fragment   string
	base       string
	index      string
	ext        string
	changeFreq string
	priority   string
	resolver   templatex.Resolver
	rendered   []string
}

// NewAssembler prepares an assembler from the sitemap template page.
func NewAssembler(tmpl *frontmatter.Document, opts Options) (*Assembler, error) {
	base, err := SiteURL(tmpl, opts.SiteURL)
	if err != nil {
		return nil, err
	}
	start, end, ok := findURLFragment(tmpl.Body)
	if !ok {
		return nil, ErrNoURLFragment
	}

	a := &Assembler{
		body:       tmpl.Body,
		fragStart:  start,
		fragEnd:    end,
		fragment:   tmpl.Body[start:end],
		base:       base,
		index:      opts.IndexName,
		ext:        opts.PublishedExt,
		changeFreq: tmpl.Meta.Get("changefreq").Or(fallback(opts.ChangeFreq, DefaultChangeFreq)),
		priority:   tmpl.Meta.Get("priority").Or(fallback(opts.Priority, DefaultPriority)),
		resolver:   templatex.Resolver{MaxPasses: opts.MaxPasses},
	}
	if a.index == "" {
		a.index = "index.md"
	}
	if a.ext == "" {
		a.ext = ".html"
	}
	return a, nil
}

// SiteURL returns the template's url metadata, or fallback, with a trailing
// slash.
func SiteURL(tmpl *frontmatter.Document, fallback string) (string, error) {
	base := strings.TrimSpace(fallback)
	if tmpl != nil {
		base = strings.TrimSpace(tmpl.Meta.Get("url").Or(base))
	}
	if base == "" {
		return "", ErrMissingSiteURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base, nil
}

// Location maps a source path to its absolute published URL.
func (a *Assembler) Location(relPath string) string {
	return Location(a.base, relPath, a.index, a.ext)
}

// Location joins base and the published form of relPath: the extension is
// replaced by ext and a file named index maps to its directory URL. base
// must end with a slash.
func Location(base, relPath, index, ext string) string {
	rel := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(relPath, "\\", "/")), "/")
	dir, file := path.Split(rel)
	if strings.EqualFold(file, index) {
		return base + dir
	}
	return base + strings.TrimSuffix(rel, path.Ext(rel)) + ext
}

// Entry builds the entry for p. Change frequency and priority come from
// the page metadata, then the site defaults, then the hard defaults.
func (a *Assembler) Entry(p Page) Entry {
	return Entry{
		Location:        a.Location(p.Path),
		LastModified:    p.ModTime.UTC().Format(dateLayout),
		ChangeFrequency: p.Meta.Get("changefreq").Or(a.changeFreq),
		Priority:        p.Meta.Get("priority").Or(a.priority),
	}
}

// Add renders the <url> fragment for p and keeps it. An unresolved
// placeholder is reported but the partial rendering is kept.
func (a *Assembler) Add(p Page) (Entry, error) {
	entry := a.Entry(p)
	rendered, err := a.resolver.Resolve(a.fragment, entry.Vars())
	a.rendered = append(a.rendered, rendered)
	return entry, err
}

// Len reports the number of collected entries.
func (a *Assembler) Len() int {
	return len(a.rendered)
}

// Render returns the sitemap document: the template body with its <url>
// fragment replaced by every collected entry, sorted by rendered text.
func (a *Assembler) Render() string {
	urls := append([]string(nil), a.rendered...)
	sort.Strings(urls)

	var b strings.Builder
	b.Grow(len(a.body) + len(a.fragment)*len(urls))
	b.WriteString(a.body[:a.fragStart])
	for _, u := range urls {
		b.WriteString(u)
	}
	b.WriteString(a.body[a.fragEnd:])
	return b.String()
}

// findURLFragment locates the first <url>...</url> element, including the
// whitespace run directly before it.
func findURLFragment(body string) (int, int, bool) {
	open := strings.Index(body, "<url>")
	if open < 0 {
		return 0, 0, false
	}
	closeIdx := strings.Index(body[open:], "</url>")
	if closeIdx < 0 {
		return 0, 0, false
	}
	end := open + closeIdx + len("</url>")

	start := open
	for start > 0 && isSpace(body[start-1]) {
		start--
	}
	return start, end, true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
