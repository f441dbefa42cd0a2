// Package wirename translates server-side field names to the identifiers
// clients see on the wire, and back.
//
// Aliases are registered as dash-separated tokens and exposed camel-cased:
//
//	wirename.Register(map[string]string{"my_field": "my-field-alias"})
//	wirename.ToWire("my_field")      // "myFieldAlias"
//	wirename.FromWire("myFieldAlias") // "my_field"
//
// Unregistered names pass through unchanged in both directions.
package wirename

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Table is a mapping from server field names to wire aliases.
// The zero value is an empty table ready for use.
type Table struct {
	mu      sync.RWMutex
	aliases map[string]string // field -> dash-separated alias
	inverse map[string]string // camel-cased alias -> field
}

// Default is the process-wide table used by the package-level functions.
var Default = &Table{}

// Register merges aliases into the table. A later registration for the same
// field wins.
func (t *Table) Register(aliases map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.aliases == nil {
		t.aliases = make(map[string]string, len(aliases))
		t.inverse = make(map[string]string, len(aliases))
	}
	for field, alias := range aliases {
		if old, ok := t.aliases[field]; ok && t.inverse[camel(old)] == field {
			delete(t.inverse, camel(old))
		}
		t.aliases[field] = alias
		t.inverse[camel(alias)] = field
	}
}

// ToWire returns the wire name for field.
func (t *Table) ToWire(field string) string {
	t.mu.RLock()
	alias, ok := t.aliases[field]
	t.mu.RUnlock()
	if !ok {
		return field
	}
	return camel(alias)
}

// FromWire returns the server field name registered for wire, or wire itself
// when no alias maps to it.
func (t *Table) FromWire(wire string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if field, ok := t.inverse[wire]; ok {
		return field
	}
	return wire
}

// Aliases returns a copy of the registered aliases.
func (t *Table) Aliases() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.aliases))
	for k, v := range t.aliases {
		out[k] = v
	}
	return out
}

// Register merges aliases into Default.
func Register(aliases map[string]string) { Default.Register(aliases) }

// ToWire returns the wire name for field using Default.
func ToWire(field string) string { return Default.ToWire(field) }

// FromWire returns the server field name for wire using Default.
func FromWire(wire string) string { return Default.FromWire(wire) }

// camel joins dash-separated tokens, capitalizing every token after the first.
func camel(alias string) string {
	if !strings.Contains(alias, "-") {
		return alias
	}
	tokens := strings.Split(alias, "-")
	var b strings.Builder
	b.Grow(len(alias))
	b.WriteString(tokens[0])
	for _, tok := range tokens[1:] {
		if tok == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(tok)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(tok[size:])
	}
	return b.String()
}
