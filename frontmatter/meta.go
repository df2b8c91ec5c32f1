package frontmatter

import "strings"

// Value is a metadata value that distinguishes "absent" from "empty".
type Value struct {
	Text    string
	Present bool
}

// Or returns the value text when present and fallback otherwise.
func (v Value) Or(fallback string) string {
	if v.Present {
		return v.Text
	}
	return fallback
}

// Meta is an insertion-ordered mapping from lowercase keys to values.
// Setting an existing key replaces its value and keeps its position.
type Meta struct {
	keys   []string
	values map[string]string
}

// NewMeta returns an empty mapping.
func NewMeta() *Meta {
	return &Meta{values: make(map[string]string)}
}

// Set stores value under the lowercased key.
func (m *Meta) Set(key, value string) {
	key = normalizeKey(key)
	if key == "" {
		return
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key, absent when it was never set.
func (m *Meta) Get(key string) Value {
	if m == nil {
		return Value{}
	}
	text, ok := m.values[normalizeKey(key)]
	return Value{Text: text, Present: ok}
}

// Lookup implements the variable source contract used by the placeholder resolver.
func (m *Meta) Lookup(name string) (string, bool) {
	v := m.Get(name)
	return v.Text, v.Present
}

// Keys lists the keys in first-insertion order.
func (m *Meta) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len reports the number of keys.
func (m *Meta) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// addLine splits a front matter line on the first ": ". Lines without the
// separator, or with an empty key, are ignored.
func (m *Meta) addLine(text string) {
	key, value, ok := strings.Cut(text, ": ")
	if !ok {
		return
	}
	m.Set(key, strings.TrimSpace(value))
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
