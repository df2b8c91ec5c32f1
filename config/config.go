package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iedon/quickhtml/templatex"
	"github.com/iedon/quickhtml/typography"
)

// ErrNoLayout is returned when no source folder holding the layout file can be found.
var ErrNoLayout = errors.New("layout file not found")

// FileNames lists the configuration files discovered in a source folder, in
// lookup order.
var FileNames = []string{"site.yaml", "site.yml", "site.json"}

var defaultCopyExtensions = []string{
	"css", "html", "ico", "jpg", "js", "pdf", "png", "txt", "xml",
	"svg", "gif", "webp", "woff", "woff2",
}

// TypographyConfig tunes the smart-text rules.
type TypographyConfig struct {
	// Spacing forces the non-breaking spacing rules on or off; unset means
	// "on for French only".
	Spacing    *bool    `json:"spacing,omitempty" yaml:"spacing,omitempty"`
	Ligatures  []string `json:"ligatures,omitempty" yaml:"ligatures,omitempty"`
	NbspEntity bool     `json:"nbspEntity" yaml:"nbspEntity"`
}

// Config encapsulates the site-wide build options.
type Config struct {
	Language       string            `json:"language" yaml:"language"`
	URL            string            `json:"url" yaml:"url"`
	ChangeFreq     string            `json:"changefreq" yaml:"changefreq"`
	Priority       string            `json:"priority" yaml:"priority"`
	Variables      map[string]string `json:"variables" yaml:"variables"`
	Typography     TypographyConfig  `json:"typography" yaml:"typography"`
	Minify         bool              `json:"minify" yaml:"minify"`
	Workers        int               `json:"workers" yaml:"workers"`
	MaxPasses      int               `json:"maxPasses" yaml:"maxPasses"`
	LogLevel       string            `json:"logLevel" yaml:"logLevel"`
	CopyExtensions []string          `json:"copyExtensions" yaml:"copyExtensions"`
	Layout         string            `json:"layout" yaml:"layout"`
	Sitemap        string            `json:"sitemap" yaml:"sitemap"`
	Robots         string            `json:"robots" yaml:"robots"`
	Index          string            `json:"index" yaml:"index"`

	copyExt map[string]struct{} `json:"-" yaml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	// defaults never fail validation
	_ = cfg.applyDefaults()
	return cfg
}

// Load reads configuration from disk and applies defaults. The format is
// chosen from the file extension.
func Load(path string) (*Config, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, cfg)
	case ".json":
		err = json.Unmarshal(bytes, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover returns the first configuration file present in dir.
func Discover(dir string) (string, bool) {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

func (c *Config) applyDefaults() error {
	c.Language = strings.TrimSpace(c.Language)
	if c.Language == "" {
		c.Language = "en"
	}

	c.URL = strings.TrimSpace(c.URL)
	c.ChangeFreq = strings.TrimSpace(c.ChangeFreq)
	c.Priority = strings.TrimSpace(c.Priority)

	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = templatex.DefaultMaxPasses
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.Layout = normalizeName(c.Layout, "layout.html")
	c.Sitemap = normalizeName(c.Sitemap, "sitemap.md")
	c.Robots = normalizeName(c.Robots, "robots.md")
	c.Index = normalizeName(c.Index, "index.md")

	if len(c.CopyExtensions) == 0 {
		c.CopyExtensions = append([]string(nil), defaultCopyExtensions...)
	}
	c.copyExt = make(map[string]struct{}, len(c.CopyExtensions))
	for _, ext := range c.CopyExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		c.copyExt[ext] = struct{}{}
	}
	return nil
}

func (c *Config) validate() error {
	for _, name := range []string{c.Layout, c.Sitemap, c.Robots, c.Index} {
		if strings.Contains(name, "/") {
			return fmt.Errorf("file name %q must not contain a path", name)
		}
	}
	if c.Priority != "" {
		p, err := strconv.ParseFloat(c.Priority, 64)
		if err != nil || p < 0 || p > 1 {
			return fmt.Errorf("priority %q must be a number between 0.0 and 1.0", c.Priority)
		}
	}
	if c.Workers > 256 {
		return fmt.Errorf("workers must not exceed 256")
	}
	return nil
}

// Locale reports the typographic locale selected by Language.
func (c *Config) Locale() typography.Locale {
	return typography.ParseLocale(c.Language)
}

// TypographyOptions builds the rule set options.
func (c *Config) TypographyOptions() typography.Options {
	return typography.Options{
		Locale:     c.Locale(),
		Spacing:    c.Typography.Spacing,
		Ligatures:  c.Typography.Ligatures,
		NbspEntity: c.Typography.NbspEntity,
	}
}

// Copyable reports whether files with the extension ext are published as is.
func (c *Config) Copyable(ext string) bool {
	_, ok := c.copyExt[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

// IsConfigFile reports whether name is one of the discovered config file names.
func IsConfigFile(name string) bool {
	for _, candidate := range FileNames {
		if strings.EqualFold(candidate, name) {
			return true
		}
	}
	return false
}

// SiteVars flattens the configuration into the site-wide variable source.
// The named settings take precedence over entries of the same name in
// Variables; empty settings are left absent.
func (c *Config) SiteVars() templatex.Vars {
	vars := make(templatex.Vars, len(c.Variables)+4)
	for k, v := range c.Variables {
		vars[k] = v
	}
	vars["lang"] = c.Language
	if c.URL != "" {
		vars["url"] = c.URL
	}
	if c.ChangeFreq != "" {
		vars["changefreq"] = c.ChangeFreq
	}
	if c.Priority != "" {
		vars["priority"] = c.Priority
	}
	return vars
}

// ResolveSource returns dir when it holds the layout file, else its src
// sub-folder when that one does.
func ResolveSource(dir, layout string) (string, error) {
	for _, candidate := range []string{dir, filepath.Join(dir, "src")} {
		if info, err := os.Stat(filepath.Join(candidate, layout)); err == nil && info.Mode().IsRegular() {
			return filepath.Clean(candidate), nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNoLayout, layout, dir)
}

// DefaultOutput returns the output folder used when none is given: the dist
// folder of the project that holds source.
func DefaultOutput(source string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(source)), "dist")
}

func normalizeName(input, fallback string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(input, "\\", "/"))
	if trimmed == "" {
		return fallback
	}
	cleaned := path.Clean(trimmed)
	cleaned = strings.TrimPrefix(cleaned, "./")
	if cleaned == "" || cleaned == "." {
		return fallback
	}
	return cleaned
}
