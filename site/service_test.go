package site

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iedon/quickhtml/config"
)

const testLayout = `<html lang="{{ lang }}"><head><title>{{ title }}</title>` +
	`<meta name="description" content="{{ description }}">` +
	`<link href="{{ root }}css/site.css"></head><body>{{ content }}</body></html>`

type fixture struct {
	t   *testing.T
	src string
	out string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{t: t, src: filepath.Join(root, "src"), out: filepath.Join(root, "dist")}
	f.write("layout.html", testLayout)
	return f
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	path := filepath.Join(f.src, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) read(rel string) string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.out, filepath.FromSlash(rel)))
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) build(cfg *config.Config) *Report {
	f.t.Helper()
	report, err := NewService(cfg, f.src, f.out).Build(context.Background())
	require.NoError(f.t, err)
	return report
}

func entryFor(t *testing.T, r *Report, path string) Entry {
	t.Helper()
	for _, e := range r.Entries {
		if e.Path == path {
			return e
		}
	}
	t.Fatalf("no report entry for %s", path)
	return Entry{}
}

func TestBuild_DefaultLocalePage(t *testing.T) {
	f := newFixture(t)
	f.write("index.md", "---\ntitle: Hello\n---\nShe said \"hi\"\n")

	report := f.build(config.Default())

	assert.Equal(t, Entry{Path: "index.md", Output: "index.html", Status: Written}, entryFor(t, report, "index.md"))
	html := f.read("index.html")
	assert.Contains(t, html, `<html lang="en">`)
	assert.Contains(t, html, "<title>Hello</title>")
	assert.Contains(t, html, "<p>She said “hi”</p>")
	assert.Contains(t, html, `content="She said &#34;hi&#34;"`)
	assert.Contains(t, html, `href="./css/site.css"`)
	assert.NotContains(t, html, "{{")
}

func TestBuild_FrenchLocale(t *testing.T) {
	f := newFixture(t)
	f.write("index.md", "---\ntitle: Accueil\n---\nBonjour \"vous\" !\n")
	cfg := config.Default()
	cfg.Language = "fr"

	f.build(cfg)

	html := f.read("index.html")
	assert.Contains(t, html, `<html lang="fr">`)
	assert.Contains(t, html, "<p>Bonjour «\u00A0vous\u00A0»\u00A0!</p>")
}

func TestBuild_TitleInferredAndTypography(t *testing.T) {
	f := newFixture(t)
	f.write("docs/l-oeil_du-chef.md", "It's a test...\n\n```\nkeep \"this\" as-is...\n```\n")
	cfg := config.Default()
	cfg.Language = "fr"

	report := f.build(cfg)

	assert.Equal(t, Written, entryFor(t, report, "docs/l-oeil_du-chef.md").Status)
	html := f.read("docs/l-oeil_du-chef.html")
	assert.Contains(t, html, "<title>l œil du chef</title>")
	assert.Contains(t, html, "It’s a test…")
	assert.NotContains(t, html, "as-is…")
	assert.NotContains(t, html, "“this")
	assert.Contains(t, html, `href="../css/site.css"`)
}

func TestBuild_UnresolvedPlaceholderIsProblemButWritten(t *testing.T) {
	f := newFixture(t)
	f.write("layout.html", "<footer>{{ owner }}</footer>{{ content }}")
	f.write("a.md", "Text\n")
	f.write("b.md", "---\nowner: Page owner\n---\nText\n")

	report := f.build(config.Default())

	a := entryFor(t, report, "a.md")
	assert.Equal(t, Problem, a.Status)
	assert.Contains(t, a.Detail, "owner")
	assert.Contains(t, f.read("a.html"), "<footer>{{ owner }}</footer>")

	assert.Equal(t, Written, entryFor(t, report, "b.md").Status)
	assert.Contains(t, f.read("b.html"), "<footer>Page owner</footer>")
	assert.Len(t, report.Problems(), 1)
}

func TestBuild_SiteVariablesAndPrecedence(t *testing.T) {
	f := newFixture(t)
	f.write("layout.html", "{{ brand }}|{{ title }}|{{ description }}|{{ content }}")
	f.write("index.md", "---\ndescription: Custom\n---\n# Heading\n")
	f.write("other.md", "---\nbrand: Other\n---\nx\n")
	cfg := config.Default()
	cfg.Variables = map[string]string{"brand": "Acme", "title": "Site title"}

	f.build(cfg)

	html := f.read("index.html")
	assert.True(t, strings.HasPrefix(html, "Acme|index|Custom|"), html)
	assert.Contains(t, html, `<h1 id="heading">Heading</h1>`)
	assert.Equal(t, "Other|other|x|<p>x</p>\n", f.read("other.html"))
}

func TestBuild_TableOfContents(t *testing.T) {
	f := newFixture(t)
	f.write("layout.html", "<nav>{{ toc }}</nav>{{ content }}")
	f.write("guide.md", "# Intro\n\ntext\n\n## Don't panic\n")
	f.write("plain.md", "no headings\n")

	report := f.build(config.Default())

	assert.Empty(t, report.Problems())
	assert.Contains(t, f.read("guide.html"), `<nav><ul class="toc">`+
		`<li class="toc-h1"><a href="#intro">Intro</a></li>`+
		`<li class="toc-h2"><a href="#dont-panic">Don’t panic</a></li></ul></nav>`)
	assert.Contains(t, f.read("guide.html"), `<h2 id="dont-panic">`)
	assert.True(t, strings.HasPrefix(f.read("plain.html"), "<nav></nav>"))
}

func TestBuild_FileClassification(t *testing.T) {
	f := newFixture(t)
	f.write("site.json", `{}`)
	f.write("index.md", "home\n")
	f.write("notes.bin", "root files are copied whatever their type")
	f.write("css/site.css", "body{}")
	f.write("img/photo.jpg", "jpg")
	f.write("img/photo.png", "png")
	f.write("img/logo.png", "png")
	f.write("sub/tool.exe", "binary")
	f.write(".git/config", "hidden")

	report := f.build(config.Default())

	assert.Equal(t, Skipped, entryFor(t, report, "layout.html").Status)
	assert.Equal(t, Skipped, entryFor(t, report, "site.json").Status)
	assert.Equal(t, Copied, entryFor(t, report, "notes.bin").Status)
	assert.Equal(t, Copied, entryFor(t, report, "css/site.css").Status)
	assert.Equal(t, Copied, entryFor(t, report, "img/photo.jpg").Status)
	assert.Equal(t, Copied, entryFor(t, report, "img/logo.png").Status)
	assert.Equal(t, Entry{Path: "img/photo.png", Status: Skipped, Detail: "jpg version exists"}, entryFor(t, report, "img/photo.png"))
	assert.Equal(t, Entry{Path: "sub/tool.exe", Status: Problem, Detail: "unexpected file type"}, entryFor(t, report, "sub/tool.exe"))
	for _, e := range report.Entries {
		assert.NotEqual(t, ".git/config", e.Path)
	}

	assert.NoFileExists(t, filepath.Join(f.out, "layout.html"))
	assert.NoFileExists(t, filepath.Join(f.out, "site.json"))
	assert.NoFileExists(t, filepath.Join(f.out, "img", "photo.png"))
	assert.NoFileExists(t, filepath.Join(f.out, "sub", "tool.exe"))
	assert.Equal(t, "body{}", f.read("css/site.css"))
	assert.Len(t, report.Problems(), 1)
}

func TestBuild_SitemapAndRobots(t *testing.T) {
	f := newFixture(t)
	f.write("sitemap.md", "---\nchangefreq: monthly\n---\n<urlset>\n  <url><loc>{{ loc }}</loc><changefreq>{{ changefreq }}</changefreq><priority>{{ priority }}</priority></url>\n</urlset>\n")
	f.write("robots.md", "User-agent: *\nSitemap: {{ sitemap }}\n")
	f.write("index.md", "home\n")
	f.write("b.md", "b\n")
	f.write("a.md", "---\npriority: 0.5\n---\na\n")
	f.write("docs/index.md", "docs\n")
	cfg := config.Default()
	cfg.URL = "https://example.org"

	report := f.build(cfg)

	assert.Equal(t, Entry{Path: "sitemap.md", Output: "sitemap.xml", Status: Written}, entryFor(t, report, "sitemap.md"))
	assert.Equal(t, Entry{Path: "robots.md", Output: "robots.txt", Status: Written}, entryFor(t, report, "robots.md"))
	assert.NoFileExists(t, filepath.Join(f.out, "sitemap.html"))
	assert.NoFileExists(t, filepath.Join(f.out, "robots.html"))

	xml := f.read("sitemap.xml")
	assert.Equal(t, "<urlset>\n"+
		"  <url><loc>https://example.org/</loc><changefreq>monthly</changefreq><priority>1.0</priority></url>\n"+
		"  <url><loc>https://example.org/a.html</loc><changefreq>monthly</changefreq><priority>0.5</priority></url>\n"+
		"  <url><loc>https://example.org/b.html</loc><changefreq>monthly</changefreq><priority>1.0</priority></url>\n"+
		"  <url><loc>https://example.org/docs/</loc><changefreq>monthly</changefreq><priority>1.0</priority></url>\n"+
		"</urlset>", xml)

	assert.Equal(t, "User-agent: *\nSitemap: https://example.org/sitemap.xml\n", f.read("robots.txt"))
}

func TestBuild_NestedTemplatesAreNotPublished(t *testing.T) {
	f := newFixture(t)
	f.write("sitemap.md", "<urlset><url>{{ loc }}</url></urlset>\n")
	f.write("blog/sitemap.md", "<urlset><url>{{ loc }}</url></urlset>\n")
	f.write("blog/Robots.md", "User-agent: *\n")
	f.write("blog/post.md", "post\n")
	cfg := config.Default()
	cfg.URL = "https://example.org"

	report := f.build(cfg)

	want := Entry{Path: "blog/sitemap.md", Status: Skipped, Detail: "template outside the site root"}
	assert.Equal(t, want, entryFor(t, report, "blog/sitemap.md"))
	assert.Equal(t, Skipped, entryFor(t, report, "blog/Robots.md").Status)
	assert.NoFileExists(t, filepath.Join(f.out, "blog", "sitemap.html"))
	assert.NoFileExists(t, filepath.Join(f.out, "blog", "Robots.html"))
	assert.Equal(t, "<urlset><url>https://example.org/blog/post.html</url></urlset>", f.read("sitemap.xml"))
}

func TestBuild_SitemapWithoutURLIsProblem(t *testing.T) {
	f := newFixture(t)
	f.write("sitemap.md", "<urlset><url>{{ loc }}</url></urlset>\n")
	f.write("robots.md", "Sitemap: {{ sitemap }}\n")
	f.write("index.md", "home\n")

	report := f.build(config.Default())

	sm := entryFor(t, report, "sitemap.md")
	assert.Equal(t, Problem, sm.Status)
	assert.Equal(t, "site url is not configured", sm.Detail)
	assert.Equal(t, Problem, entryFor(t, report, "robots.md").Status)
	assert.Equal(t, Written, entryFor(t, report, "index.md").Status)
	assert.NoFileExists(t, filepath.Join(f.out, "sitemap.xml"))
	assert.NoFileExists(t, filepath.Join(f.out, "robots.txt"))
}

func TestBuild_SitemapURLFromTemplate(t *testing.T) {
	f := newFixture(t)
	f.write("sitemap.md", "---\nurl: https://template.example/\n---\n<urlset><url>{{ loc }}</url></urlset>\n")
	f.write("robots.md", "Sitemap: {{ sitemap }}\n")
	f.write("page.md", "p\n")

	report := f.build(config.Default())

	assert.Empty(t, report.Problems())
	assert.Equal(t, "<urlset><url>https://template.example/page.html</url></urlset>", f.read("sitemap.xml"))
	assert.Equal(t, "Sitemap: https://template.example/sitemap.xml\n", f.read("robots.txt"))
}

func TestBuild_PageURLVariable(t *testing.T) {
	f := newFixture(t)
	f.write("layout.html", "<link rel=\"canonical\" href=\"{{ url }}\">{{ content }}")
	f.write("guide/index.md", "g\n")
	cfg := config.Default()
	cfg.URL = "https://example.org/"

	f.build(cfg)

	assert.Contains(t, f.read("guide/index.html"), `href="https://example.org/guide/"`)
}

func TestBuild_ReportOrderIndependentOfWorkers(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"e", "d", "c", "b", "a"} {
		f.write(name+".md", name+"\n")
		f.write("sub/"+name+".css", name)
	}

	sequential := f.build(config.Default())

	cfg := config.Default()
	cfg.Workers = 4
	parallel := f.build(cfg)

	assert.Equal(t, sequential.Entries, parallel.Entries)
	assert.Equal(t, "a.md", parallel.Entries[0].Path)
}

func TestBuild_ReplacesOutputAndWritesMarker(t *testing.T) {
	f := newFixture(t)
	f.write("old.md", "old\n")
	f.build(config.Default())
	require.FileExists(t, filepath.Join(f.out, "old.html"))

	require.NoError(t, os.Remove(filepath.Join(f.src, "old.md")))
	f.write("new.md", "new\n")
	report := f.build(config.Default())

	assert.NoFileExists(t, filepath.Join(f.out, "old.html"))
	assert.FileExists(t, filepath.Join(f.out, "new.html"))

	marker := f.read(MarkerFile)
	assert.Contains(t, marker, "written new.md -> new.html\n")
	assert.Contains(t, marker, "1 written, 0 copied, 1 skipped, 0 problems\n")

	var buf bytes.Buffer
	_, err := report.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, marker, buf.String())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(f.out), buildDirPrefix+"*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestBuild_Errors(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.src, "layout.html")))
	f.write("index.md", "x\n")

	_, err := NewService(config.Default(), f.src, f.out).Build(context.Background())
	assert.ErrorIs(t, err, config.ErrNoLayout)

	f.write("layout.html", testLayout)
	_, err = NewService(config.Default(), f.src, filepath.Dir(f.src)).Build(context.Background())
	assert.ErrorIs(t, err, ErrUnmarkedOutput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewService(config.Default(), f.src, f.out).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, f.out)
}

func TestResolveOutput(t *testing.T) {
	root := t.TempDir()

	missing := filepath.Join(root, "missing")
	got, err := ResolveOutput(missing)
	require.NoError(t, err)
	assert.Equal(t, missing, got)

	empty := filepath.Join(root, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	got, err = ResolveOutput(empty)
	require.NoError(t, err)
	assert.Equal(t, empty, got)

	foreign := filepath.Join(root, "foreign")
	require.NoError(t, os.MkdirAll(foreign, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(foreign, "keep.txt"), []byte("x"), 0o644))
	_, err = ResolveOutput(foreign)
	assert.ErrorIs(t, err, ErrUnmarkedOutput)

	project := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(project, "dist"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "dist", MarkerFile), nil, 0o644))
	got, err = ResolveOutput(project)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, "dist"), got)

	got, err = ResolveOutput(filepath.Join(project, "dist"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, "dist"), got)
}
