package typography

import (
	"bytes"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	nbspChar   = "\u00A0"
	nbspEntity = "&nbsp;"

	apostrophe = "’"
	ellipsis   = "…"
	enDash     = "–"
	emDash     = "—"
)

// QuoteState records whether the next neutral quote opens or closes a
// quotation. It is threaded through a whole document.
type QuoteState int

const (
	ExpectOpen QuoteState = iota
	ExpectClose
)

// advance returns the current state and toggles it.
func (q *QuoteState) advance() QuoteState {
	current := *q
	if current == ExpectOpen {
		*q = ExpectClose
	} else {
		*q = ExpectOpen
	}
	return current
}

// Options configures a rule set.
type Options struct {
	Locale Locale
	// Spacing forces the non-breaking spacing rules on or off. When nil they
	// are enabled for French only.
	Spacing *bool
	// Ligatures lists words whose "oe" digraph becomes "œ". When nil the
	// locale default list is used; an empty non-nil slice disables them.
	Ligatures []string
	// NbspEntity emits "&nbsp;" instead of U+00A0.
	NbspEntity bool
}

// Rules holds the stateless text transforms for one locale.
type Rules struct {
	locale  Locale
	nbsp    string
	spacing bool

	chars     *strings.Replacer
	spaces    *strings.Replacer
	ligatures []ligature
}

// ligature is one case form of a word and its spelling with "œ".
type ligature struct {
	from string
	to   string
}

// NewRules compiles the replacement tables for opts.
func NewRules(opts Options) *Rules {
	r := &Rules{
		locale:  opts.Locale,
		nbsp:    nbspChar,
		spacing: opts.Locale == French,
	}
	if opts.NbspEntity {
		r.nbsp = nbspEntity
	}
	if opts.Spacing != nil {
		r.spacing = *opts.Spacing
	}

	words := opts.Ligatures
	if words == nil {
		words = defaultLigatures[opts.Locale]
	}
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if !strings.Contains(word, "oe") {
			continue
		}
		lower := strings.ReplaceAll(word, "oe", "œ")
		upper := strings.ToUpper(word)
		r.ligatures = append(r.ligatures,
			ligature{from: word, to: lower},
			ligature{from: capitalize(word), to: capitalize(lower)},
			ligature{from: upper, to: strings.ReplaceAll(upper, "OE", "Œ")},
		)
	}
	sort.SliceStable(r.ligatures, func(i, j int) bool {
		return len(r.ligatures[i].from) > len(r.ligatures[j].from)
	})
	r.chars = strings.NewReplacer("...", ellipsis, "'", apostrophe, "&#39;", apostrophe, "&#x27;", apostrophe)

	r.spaces = strings.NewReplacer(
		" ?", r.nbsp+"?",
		" ;", r.nbsp+";",
		" :", r.nbsp+":",
		" !", r.nbsp+"!",
		" »", r.nbsp+"»",
		"« ", "«"+r.nbsp,
	)
	return r
}

// Locale reports the locale the rules were built for.
func (r *Rules) Locale() Locale {
	return r.locale
}

// Characters replaces straight apostrophes, triple dots and configured
// digraphs. Applying it twice gives the same result as applying it once.
func (r *Rules) Characters(text string) string {
	return r.ligate(r.chars.Replace(text))
}

// ligate rewrites ligature words in lower, capitalized or upper case. A word
// only matches at the start of a word, so inflected forms ("coeurs") are
// covered while words merely containing a listed one are left alone.
func (r *Rules) ligate(text string) string {
	if len(r.ligatures) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for i := 0; i < len(text); {
		if wordStart(text, i) {
			if l, ok := r.matchLigature(text[i:]); ok {
				b.WriteString(text[last:i])
				b.WriteString(l.to)
				i += len(l.from)
				last = i
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func (r *Rules) matchLigature(s string) (ligature, bool) {
	for _, l := range r.ligatures {
		if strings.HasPrefix(s, l.from) {
			return l, true
		}
	}
	return ligature{}, false
}

func wordStart(s string, i int) bool {
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(prev)
}

// Dashes turns a free-standing "--" into an en dash. A single space after it
// becomes a non-breaking space; the space before it is kept.
func (r *Rules) Dashes(text string) string {
	if !strings.Contains(text, "--") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if !strings.HasPrefix(text[i:], "--") || !dashOpens(text, i) || !dashCloses(text, i+2) {
			b.WriteByte(text[i])
			i++
			continue
		}
		b.WriteString(enDash)
		i += 2
		if i < len(text) && text[i] == ' ' {
			b.WriteString(r.nbsp)
			i++
		}
	}
	return b.String()
}

func dashOpens(text string, i int) bool {
	if i == 0 {
		return true
	}
	switch text[i-1] {
	case ' ', '\t', '\n', '\r', ',':
		return true
	}
	return false
}

func dashCloses(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	switch text[i] {
	case ' ', '\t', '\n', '\r', ',':
		return true
	}
	return false
}

// Quotes replaces neutral quote markers ("&quot;" or a bare double quote)
// with locale glyphs, alternating according to state.
func (r *Rules) Quotes(text string, state *QuoteState) string {
	if !hasQuoteMarker(text) {
		return text
	}
	out := make([]byte, 0, len(text)+16)
	for i := 0; i < len(text); {
		n := quoteMarker(text[i:])
		if n == 0 {
			out = append(out, text[i])
			i++
			continue
		}
		i += n

		if state.advance() == ExpectOpen {
			if r.locale == French {
				out = append(out, "«"...)
				out = append(out, r.nbsp...)
				for i < len(text) && isBlank(text[i]) {
					i++
				}
				continue
			}
			out = append(out, "“"...)
			continue
		}

		if r.locale == French {
			out = bytes.TrimRight(out, " \t\r\n")
			out = append(out, r.nbsp...)
			out = append(out, "»"...)
			continue
		}
		out = append(out, "”"...)
	}
	return string(out)
}

func hasQuoteMarker(text string) bool {
	return strings.Contains(text, `"`) || strings.Contains(text, "&quot;") || strings.Contains(text, "&#34;")
}

func quoteMarker(s string) int {
	switch {
	case strings.HasPrefix(s, "&quot;"):
		return len("&quot;")
	case strings.HasPrefix(s, "&#34;"):
		return len("&#34;")
	case len(s) > 0 && s[0] == '"':
		return 1
	}
	return 0
}

// Spacing inserts non-breaking spaces before high punctuation and inside
// guillemets. Only existing spaces are converted. It is a no-op unless
// enabled for the locale or forced through Options.
func (r *Rules) Spacing(text string) string {
	if !r.spacing {
		return text
	}
	return r.spaces.Replace(text)
}

// Prose runs the per-span chain: characters, dashes, quotes, spacing.
// Spacing keys off the glyphs produced by quote pairing, so it runs last.
func (r *Rules) Prose(text string, state *QuoteState) string {
	text = r.Characters(text)
	text = r.Dashes(text)
	text = r.Quotes(text, state)
	return r.Spacing(text)
}

// dashGap replaces the space after a leading dash with a non-breaking space.
func (r *Rules) dashGap(text string) string {
	for _, dash := range []string{enDash, emDash} {
		if rest, ok := strings.CutPrefix(text, dash+" "); ok {
			return dash + r.nbsp + rest
		}
	}
	return text
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(first)) + word[size:]
}
