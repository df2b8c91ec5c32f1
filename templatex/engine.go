package templatex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout is the shared HTML page shell. Its placeholders are filled per page.
type Layout struct {
	Name     string
	Text     string
	resolver Resolver
}

// Load reads the layout file at path.
func Load(path string, maxPasses int) (*Layout, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("layout path not configured")
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return New(filepath.Base(path), string(data), maxPasses), nil
}

// New wraps an in-memory layout.
func New(name, text string, maxPasses int) *Layout {
	return &Layout{Name: name, Text: text, resolver: Resolver{MaxPasses: maxPasses}}
}

// Render resolves the layout against sources, highest precedence first.
// On an *UnresolvedError the partially resolved page is still returned.
func (l *Layout) Render(sources ...Source) (string, error) {
	if l == nil {
		return "", fmt.Errorf("layout not loaded")
	}
	return l.resolver.Resolve(l.Text, sources...)
}
