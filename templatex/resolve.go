package templatex

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxPasses bounds substitution when a resolved value itself contains
// placeholders. A template still holding "{{" after the last pass is
// reported as unresolved.
const DefaultMaxPasses = 3

const (
	tokenOpen  = "{{ "
	tokenClose = " }}"
)

// ErrUnresolved matches every UnresolvedError.
var ErrUnresolved = errors.New("unresolved placeholder")

// Source resolves a variable name to its value. ok is false when the name
// is absent, which is different from an empty value.
type Source interface {
	Lookup(name string) (value string, ok bool)
}

// Vars is a plain map source.
type Vars map[string]string

// Lookup implements Source.
func (v Vars) Lookup(name string) (string, bool) {
	value, ok := v[name]
	return value, ok
}

// UnresolvedError lists the placeholder names left in a resolved template.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	if len(e.Names) == 0 {
		return "template contains an unknown variable"
	}
	return fmt.Sprintf("template contains unknown variable %s", strings.Join(e.Names, ", "))
}

// Is makes errors.Is(err, ErrUnresolved) succeed.
func (e *UnresolvedError) Is(target error) bool {
	return target == ErrUnresolved
}

// Resolver substitutes "{{ name }}" placeholders.
type Resolver struct {
	// MaxPasses defaults to DefaultMaxPasses when zero or negative.
	MaxPasses int
}

// Resolve substitutes placeholders in tmpl using the default pass bound.
func Resolve(tmpl string, sources ...Source) (string, error) {
	return Resolver{}.Resolve(tmpl, sources...)
}

// Resolve replaces every placeholder whose name is defined by one of the
// sources, the first source taking precedence. Unknown placeholders are left
// as written. When "{{" remains after the last pass, the partially resolved
// text is returned together with an *UnresolvedError.
func (r Resolver) Resolve(tmpl string, sources ...Source) (string, error) {
	passes := r.MaxPasses
	if passes <= 0 {
		passes = DefaultMaxPasses
	}

	out := tmpl
	for range passes {
		if !strings.Contains(out, "{{") {
			break
		}
		next, replaced := substitute(out, sources)
		out = next
		if replaced == 0 {
			break
		}
	}

	if strings.Contains(out, "{{") {
		return out, &UnresolvedError{Names: Placeholders(out)}
	}
	return out, nil
}

// Placeholders lists the distinct placeholder names in s, in order of
// first appearance.
func Placeholders(s string) []string {
	var names []string
	seen := make(map[string]struct{})
	scanTokens(s, func(name string) (string, bool) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		return "", false
	})
	return names
}

func substitute(s string, sources []Source) (string, int) {
	replaced := 0
	out := scanTokens(s, func(name string) (string, bool) {
		value, ok := lookup(sources, name)
		if ok {
			replaced++
		}
		return value, ok
	})
	return out, replaced
}

func lookup(sources []Source, name string) (string, bool) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if value, ok := src.Lookup(name); ok {
			return value, true
		}
	}
	return "", false
}

// scanTokens walks s left to right and calls replace for every well-formed
// placeholder: "{{ ", a name without braces or whitespace, " }}". Tokens for
// which replace returns false are copied unchanged.
func scanTokens(s string, replace func(name string) (string, bool)) string {
	var b strings.Builder
	b.Grow(len(s))
	pos := 0
	for pos < len(s) {
		idx := strings.Index(s[pos:], tokenOpen)
		if idx < 0 {
			break
		}
		start := pos + idx
		nameStart := start + len(tokenOpen)
		nameEnd := nameStart
		for nameEnd < len(s) && isNameByte(s[nameEnd]) {
			nameEnd++
		}
		if nameEnd == nameStart || !strings.HasPrefix(s[nameEnd:], tokenClose) {
			b.WriteString(s[pos : start+1])
			pos = start + 1
			continue
		}

		end := nameEnd + len(tokenClose)
		b.WriteString(s[pos:start])
		if value, ok := replace(s[nameStart:nameEnd]); ok {
			b.WriteString(value)
		} else {
			b.WriteString(s[start:end])
		}
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}

func isNameByte(c byte) bool {
	switch c {
	case '{', '}', ' ', '\t', '\n', '\r', '\f', '\v':
		return false
	}
	return true
}
