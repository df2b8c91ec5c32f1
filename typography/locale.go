package typography

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale selects a family of typographic conventions.
type Locale int

const (
	// Default follows English conventions: curly quotes, no extra spacing.
	Default Locale = iota
	// French uses guillemets and non-breaking spaces before high punctuation.
	French
)

var frenchBase, _ = language.French.Base()

// ParseLocale maps a BCP 47 language tag to a Locale. Every tag whose base
// language is French (fr, fr-CA, fr-CH, ...) selects French; anything else,
// including malformed tags, selects Default.
func ParseLocale(tag string) Locale {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Default
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return Default
	}
	base, _ := parsed.Base()
	if base == frenchBase {
		return French
	}
	return Default
}

func (l Locale) String() string {
	switch l {
	case French:
		return "fr"
	default:
		return "default"
	}
}

// defaultLigatures lists words whose "oe" digraph is written as a ligature.
var defaultLigatures = map[Locale][]string{
	French: {
		"boeuf", "coeur", "foetus", "manoeuvre", "moeurs",
		"noeud", "oeil", "oesophage", "oeuf", "oeuvre",
		"soeur", "voeu",
	},
}
