package site

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const buildDirPrefix = ".__build-"

// sourceFile is one enumerated input file.
type sourceFile struct {
	Rel     string // slash separated, relative to the source folder
	Abs     string
	ModTime time.Time
}

func (f sourceFile) inRoot() bool {
	return !strings.Contains(f.Rel, "/")
}

func (f sourceFile) ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(f.Rel), "."))
}

// listFiles walks source in lexical order. Hidden folders, build folders
// and the output folder are not entered.
func listFiles(source, output string) ([]sourceFile, error) {
	output = filepath.Clean(output)
	var files []sourceFile
	err := filepath.WalkDir(source, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == source {
				return nil
			}
			if isIgnorableDir(d.Name()) || filepath.Clean(p) == output {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, p)
		if err != nil {
			return err
		}
		files = append(files, sourceFile{
			Rel:     filepath.ToSlash(rel),
			Abs:     p,
			ModTime: info.ModTime(),
		})
		return nil
	})
	return files, err
}

func isIgnorableDir(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isMarkdown(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md")
}

func htmlPathFrom(relPath string) string {
	rel := filepath.ToSlash(relPath)
	rel = strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
	return rel
}

// rootPrefix is the relative link prefix from relPath's folder to the site
// root: "./" in the root, "../" one level down and so on.
func rootPrefix(relPath string) string {
	depth := strings.Count(filepath.ToSlash(relPath), "/")
	if depth == 0 {
		return "./"
	}
	return strings.Repeat("../", depth)
}

// hasJPGTwin reports whether a .png file has a .jpg sibling with the same stem.
func hasJPGTwin(f sourceFile, all map[string]struct{}) bool {
	if f.ext() != "png" {
		return false
	}
	stem := strings.TrimSuffix(f.Rel, path.Ext(f.Rel))
	for _, ext := range []string{".jpg", ".JPG", ".jpeg"} {
		if _, ok := all[stem+ext]; ok {
			return true
		}
	}
	return false
}
