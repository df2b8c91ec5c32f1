package site

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iedon/quickhtml/renderer"
	"github.com/iedon/quickhtml/typography"
)

func TestEntryString(t *testing.T) {
	assert.Equal(t, "written a.md -> a.html", Entry{Path: "a.md", Output: "a.html", Status: Written}.String())
	assert.Equal(t, "copied css/a.css", Entry{Path: "css/a.css", Output: "css/a.css", Status: Copied}.String())
	assert.Equal(t, "problem: unexpected file type sub/x.exe", Entry{Path: "sub/x.exe", Status: Problem, Detail: "unexpected file type"}.String())
	assert.Equal(t, "status(9)", Status(9).String())
}

func TestReportCounts(t *testing.T) {
	r := &Report{Entries: []Entry{
		{Path: "a", Status: Written},
		{Path: "b", Status: Problem, Detail: "x"},
		{Path: "c", Status: Written},
		{Path: "d", Status: Skipped},
	}}

	assert.Equal(t, 2, r.Count(Written))
	assert.Equal(t, 0, r.Count(Copied))
	assert.Equal(t, []Entry{{Path: "b", Status: Problem, Detail: "x"}}, r.Problems())

	var b strings.Builder
	n, err := r.WriteTo(&b)
	assert.NoError(t, err)
	assert.Equal(t, int64(b.Len()), n)
	assert.True(t, strings.HasSuffix(b.String(), "2 written, 0 copied, 1 skipped, 1 problems\n"))
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "./", rootPrefix("index.md"))
	assert.Equal(t, "../", rootPrefix("docs/a.md"))
	assert.Equal(t, "../../", rootPrefix("docs/deep/a.md"))

	assert.Equal(t, "docs/a.html", htmlPathFrom("docs/a.md"))
	assert.True(t, isMarkdown("A.MD"))

	all := map[string]struct{}{"img/a.jpg": {}, "img/a.png": {}, "img/b.png": {}}
	assert.True(t, hasJPGTwin(sourceFile{Rel: "img/a.png"}, all))
	assert.False(t, hasJPGTwin(sourceFile{Rel: "img/b.png"}, all))
	assert.False(t, hasJPGTwin(sourceFile{Rel: "img/a.jpg"}, all))
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "my page", deriveTitle("docs/my-page.md"))
	assert.Equal(t, "Untitled", deriveTitle("_.md"))
	// decomposed "é" as returned by some file systems
	assert.Equal(t, "caf\u00e9", deriveTitle("cafe\u0301.md"))
}

func TestMetaDescription(t *testing.T) {
	assert.Equal(t, "a b", metaDescription("  a \n b ", ""))
	assert.Equal(t, "fallback", metaDescription("", "fallback"))

	long := strings.Repeat("é", 200)
	got := metaDescription(long, "")
	assert.Equal(t, 160, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestTableOfContents(t *testing.T) {
	rules := typography.NewRules(typography.Options{})

	assert.Equal(t, "", tableOfContents(nil, rules))
	assert.Equal(t,
		`<ul class="toc"><li class="toc-h2"><a href="#a-b">A &lt;b&gt; &amp; c’s</a></li></ul>`,
		tableOfContents([]renderer.Heading{{ID: "a-b", Text: "A <b> & c's", Level: 2}}, rules))
}
