// Package search builds and parses the conjunctive card-search queries
// leechctl exchanges with the collection store.
package search

import (
	"fmt"
	"strings"

	"github.com/leechtools/leechctl/internal/common"
)

// Query is a parsed conjunctive search over tag, deck, and note-type name.
// Empty fields mean "no constraint".
type Query struct {
	Tag      string
	Deck     string
	NoteType string
}

// LeechQuery builds the search expression selecting leech cards, optionally
// narrowed to an exact deck name and note-type name. Names containing
// whitespace, quotes, or backslashes are quoted with backslash escaping so
// any user-chosen name round-trips through Parse.
func LeechQuery(tag, deck, noteType string) string {
	parts := []string{"tag:" + quote(tag)}
	if deck != "" {
		parts = append(parts, "deck:"+quote(deck))
	}
	if noteType != "" {
		parts = append(parts, "note:"+quote(noteType))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if !strings.ContainsAny(s, " \t\"\\") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Parse decodes the query subset the storage adapter executes: whitespace
// separated tag:/deck:/note: terms with optional double quoting. Anything
// else is rejected so unsupported host grammar fails loudly instead of
// silently matching everything.
func Parse(query string) (Query, error) {
	var q Query

	terms, err := tokenize(query)
	if err != nil {
		return Query{}, err
	}

	for _, term := range terms {
		key, value, ok := strings.Cut(term, ":")
		if !ok {
			return Query{}, fmt.Errorf("%w: bare term %q", common.ErrInvalidQuery, term)
		}

		switch key {
		case "tag":
			q.Tag = value
		case "deck":
			q.Deck = value
		case "note":
			q.NoteType = value
		default:
			return Query{}, fmt.Errorf("%w: unsupported term %q", common.ErrInvalidQuery, key)
		}
	}

	return q, nil
}

// tokenize splits on whitespace outside double quotes. Delimiter quotes
// are dropped and backslash escapes inside them resolved, so terms come
// back holding the literal name.
func tokenize(query string) ([]string, error) {
	var (
		terms    []string
		current  strings.Builder
		inQuotes bool
		escaped  bool
	)

	for _, r := range query {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && inQuotes:
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case (r == ' ' || r == '\t') && !inQuotes:
			if current.Len() > 0 {
				terms = append(terms, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if inQuotes || escaped {
		return nil, fmt.Errorf("%w: unterminated quote", common.ErrInvalidQuery)
	}
	if current.Len() > 0 {
		terms = append(terms, current.String())
	}

	return terms, nil
}
