package sitemap

import (
	"github.com/iedon/quickhtml/frontmatter"
	"github.com/iedon/quickhtml/templatex"
)

// FileName is the published sitemap name, relative to the site URL.
const FileName = "sitemap.xml"

// RenderRobots resolves a robots template. Besides the template's own
// metadata and the site variables it can use {{ sitemap }}, the absolute
// sitemap URL, and {{ url }}, the site URL.
func RenderRobots(tmpl *frontmatter.Document, siteURL string, maxPasses int, site templatex.Source) (string, error) {
	base, err := SiteURL(tmpl, siteURL)
	if err != nil {
		return "", err
	}
	vars := templatex.Vars{
		"sitemap": base + FileName,
		"url":     base,
	}
	return templatex.Resolver{MaxPasses: maxPasses}.Resolve(tmpl.Body, vars, tmpl.Meta, site)
}
