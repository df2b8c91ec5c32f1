package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iedon/quickhtml/config"
	"github.com/iedon/quickhtml/fsutil"
	"github.com/iedon/quickhtml/renderer"
	"github.com/iedon/quickhtml/sitemap"
	"github.com/iedon/quickhtml/templatex"
	"github.com/iedon/quickhtml/typography"
)

// MarkerFile is written into every output folder. Its presence is what
// allows a later build to replace that folder.
const MarkerFile = "quickhtml.log"

// Service orchestrates one static build from a source folder into an
// output folder.
type Service struct {
	cfg    *config.Config
	source string
	output string

	renderer *renderer.Renderer
	smart    *typography.Transformer
	layout   *templatex.Layout
	siteVars templatex.Vars
	siteURL  string
}

// NewService constructs a Service. source must hold the layout file; output
// is replaced on every build.
func NewService(cfg *config.Config, source, output string) *Service {
	siteURL, _ := sitemap.SiteURL(nil, cfg.URL)
	return &Service{
		cfg:      cfg,
		source:   filepath.Clean(source),
		output:   filepath.Clean(output),
		renderer: renderer.New(cfg.Minify),
		smart:    typography.NewTransformer(cfg.TypographyOptions()),
		siteVars: cfg.SiteVars(),
		siteURL:  siteURL,
	}
}

// ResolveOutput checks that dir can be replaced by a build. A missing or
// empty folder, or one holding the marker file, is used as is; a project
// folder whose dist sub-folder holds the marker resolves to that sub-folder.
func ResolveOutput(dir string) (string, error) {
	dir = filepath.Clean(dir)
	empty, err := fsutil.IsEmptyDir(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return dir, nil
	case err != nil:
		return "", fmt.Errorf("inspect output folder: %w", err)
	case empty:
		return dir, nil
	}
	if fileExists(filepath.Join(dir, MarkerFile)) {
		return dir, nil
	}
	if sub := filepath.Join(dir, "dist"); fileExists(filepath.Join(sub, MarkerFile)) {
		return sub, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnmarkedOutput, dir)
}

// job produces the report entry of one file, and its page for markdown sources.
type job func() (Entry, *page)

// Build renders the whole source folder. Per-file failures are reported as
// Problem entries; the returned error is reserved for failures that leave
// no usable output.
func (s *Service) Build(ctx context.Context) (*Report, error) {
	if s.output == s.source || within(s.output, s.source) {
		return nil, fmt.Errorf("%w: %s contains the source folder", ErrUnmarkedOutput, s.output)
	}

	layout, err := templatex.Load(filepath.Join(s.source, s.cfg.Layout), s.cfg.MaxPasses)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrNoLayout, err)
	}
	s.layout = layout

	files, err := listFiles(s.source, s.output)
	if err != nil {
		return nil, fmt.Errorf("list source files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, s.source)
	}

	parent := filepath.Dir(s.output)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output parent: %w", err)
	}
	tempDir, err := os.MkdirTemp(parent, buildDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("create temp output dir: %w", err)
	}
	cleanTemp := true
	defer func() {
		if cleanTemp {
			_ = os.RemoveAll(tempDir)
		}
	}()

	report := &Report{Source: s.source, Output: s.output, Entries: make([]Entry, len(files))}
	pages := make([]*page, len(files))
	jobs, templates := s.plan(files, tempDir, report)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, run := range jobs {
		if run == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Entries[i], pages[i] = run()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The sitemap needs every page, so it is assembled after the group.
	if i, ok := templates[s.cfg.Sitemap]; ok {
		report.Entries[i] = s.writeSitemap(files[i], pages, tempDir)
	}
	if i, ok := templates[s.cfg.Robots]; ok {
		report.Entries[i] = s.writeRobots(files[i], templates, files, tempDir)
	}

	var log bytes.Buffer
	if _, err := report.WriteTo(&log); err != nil {
		return nil, err
	}
	if err := fsutil.WriteFile(filepath.Join(tempDir, MarkerFile), log.Bytes()); err != nil {
		return nil, fmt.Errorf("write marker: %w", err)
	}

	if err := fsutil.SwapDir(tempDir, s.output); err != nil {
		return nil, err
	}
	cleanTemp = false
	return report, nil
}

// plan classifies every file. Entries that need no work are filled in
// directly; the root sitemap and robots templates are returned by name.
func (s *Service) plan(files []sourceFile, outDir string, report *Report) ([]job, map[string]int) {
	all := make(map[string]struct{}, len(files))
	for _, f := range files {
		all[f.Rel] = struct{}{}
	}

	jobs := make([]job, len(files))
	templates := make(map[string]int)
	for i, f := range files {
		switch {
		case f.inRoot() && f.Rel == s.cfg.Layout:
			report.Entries[i] = Entry{Path: f.Rel, Status: Skipped, Detail: "layout"}
		case f.inRoot() && config.IsConfigFile(f.Rel):
			report.Entries[i] = Entry{Path: f.Rel, Status: Skipped, Detail: "configuration"}
		case f.inRoot() && (f.Rel == s.cfg.Sitemap || f.Rel == s.cfg.Robots):
			templates[f.Rel] = i
			report.Entries[i] = Entry{Path: f.Rel, Status: Skipped, Detail: "template"}
		case !f.inRoot() && s.isTemplateName(path.Base(f.Rel)):
			report.Entries[i] = Entry{Path: f.Rel, Status: Skipped, Detail: "template outside the site root"}
		case hasJPGTwin(f, all):
			report.Entries[i] = Entry{Path: f.Rel, Status: Skipped, Detail: "jpg version exists"}
		case isMarkdown(f.Rel):
			jobs[i] = func() (Entry, *page) {
				entry, pg := s.buildPage(f, outDir)
				return entry, &pg
			}
		case s.cfg.Copyable(f.ext()) || f.inRoot():
			jobs[i] = func() (Entry, *page) {
				return s.copyAsset(f, outDir), nil
			}
		default:
			report.Entries[i] = Entry{Path: f.Rel, Status: Problem, Detail: "unexpected file type"}
		}
	}
	return jobs, templates
}

// isTemplateName reports whether name is the sitemap or robots template name.
func (s *Service) isTemplateName(name string) bool {
	return strings.EqualFold(name, s.cfg.Sitemap) || strings.EqualFold(name, s.cfg.Robots)
}

func (s *Service) copyAsset(f sourceFile, outDir string) Entry {
	entry := Entry{Path: f.Rel, Output: f.Rel}
	if err := fsutil.CopyFile(f.Abs, filepath.Join(outDir, filepath.FromSlash(f.Rel))); err != nil {
		entry.Status, entry.Detail = Problem, fmt.Sprintf("copy: %v", err)
		return entry
	}
	entry.Status = Copied
	return entry
}

func (s *Service) writeSitemap(tmplFile sourceFile, pages []*page, outDir string) Entry {
	entry := Entry{Path: tmplFile.Rel, Output: sitemap.FileName}
	tmpl, err := readDocument(tmplFile.Abs)
	if err != nil {
		entry.Status, entry.Detail = Problem, fmt.Sprintf("read sitemap template: %v", err)
		return entry
	}

	asm, err := sitemap.NewAssembler(tmpl, sitemap.Options{
		SiteURL:      s.cfg.URL,
		IndexName:    s.cfg.Index,
		PublishedExt: ".html",
		ChangeFreq:   s.cfg.ChangeFreq,
		Priority:     s.cfg.Priority,
		MaxPasses:    s.cfg.MaxPasses,
	})
	if err != nil {
		entry.Status, entry.Detail = Problem, err.Error()
		return entry
	}

	var problems []string
	for _, pg := range pages {
		if pg == nil || !pg.Written {
			continue
		}
		if _, err := asm.Add(sitemap.Page{Path: pg.Source.Rel, Meta: pg.Meta, ModTime: pg.Source.ModTime}); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", pg.Source.Rel, err))
		}
	}

	data, err := s.renderer.MinifyXML([]byte(asm.Render()))
	if err != nil {
		problems = append(problems, err.Error())
		data = []byte(asm.Render())
	}
	if err := fsutil.WriteFile(filepath.Join(outDir, sitemap.FileName), data); err != nil {
		entry.Status, entry.Detail = Problem, fmt.Sprintf("write sitemap: %v", err)
		return entry
	}
	if len(problems) > 0 {
		entry.Status, entry.Detail = Problem, strings.Join(problems, "; ")
		return entry
	}
	entry.Status = Written
	return entry
}

func (s *Service) writeRobots(tmplFile sourceFile, templates map[string]int, files []sourceFile, outDir string) Entry {
	const robotsFile = "robots.txt"
	entry := Entry{Path: tmplFile.Rel, Output: robotsFile}
	tmpl, err := readDocument(tmplFile.Abs)
	if err != nil {
		entry.Status, entry.Detail = Problem, fmt.Sprintf("read robots template: %v", err)
		return entry
	}

	// The sitemap template's url wins over the configured one, as it does
	// for sitemap.xml.
	siteURL := s.cfg.URL
	if i, ok := templates[s.cfg.Sitemap]; ok {
		if sm, err := readDocument(files[i].Abs); err == nil {
			siteURL = sm.Meta.Get("url").Or(siteURL)
		}
	}

	text, renderErr := sitemap.RenderRobots(tmpl, siteURL, s.cfg.MaxPasses, s.siteVars)
	if errors.Is(renderErr, sitemap.ErrMissingSiteURL) {
		entry.Status, entry.Detail = Problem, renderErr.Error()
		return entry
	}
	if err := fsutil.WriteFile(filepath.Join(outDir, robotsFile), []byte(text+"\n")); err != nil {
		entry.Status, entry.Detail = Problem, fmt.Sprintf("write robots: %v", err)
		return entry
	}
	if renderErr != nil {
		entry.Status, entry.Detail = Problem, renderErr.Error()
		return entry
	}
	entry.Status = Written
	return entry
}

// within reports whether child lies below parent.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
