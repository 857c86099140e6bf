// Package codec holds the type-aware value handling shared by both query
// compilers: reversible escaping for the Solr and SPARQL grammars, date
// range macro resolution and the sentinel values of the search wire
// contract.
package codec

import (
	"net/url"
	"strings"
	"time"
	"unicode"
)

// Wire-contract sentinels. These values travel inside criterion value lists
// and are interpreted by the compilers; they belong to the protocol with
// the search UI, not to this package.
const (
	// CurrentUser marks "the logged-in user" in user/group/agent values
	// and is substituted with the real user URI at compile time.
	CurrentUser = "emf-search-current-user"

	// AnyObject switches a relation criterion to "any value of this
	// relation" mode.
	AnyObject = "any_object"

	// Context placeholders are substituted with URIs from the current
	// navigation breadcrumb.
	ContextCurrentProject = "emf-search-context-current-project"
	ContextCurrentCase    = "emf-search-context-current-case"
	ContextCurrentObject  = "emf-search-context-current-object"

	// DynamicQueryPrefix prefixes the reference keys minted for nested
	// object-picker sub-searches.
	DynamicQueryPrefix = "dynamicQuery"

	// NotSet is the "field has no value" selector of boolean inputs.
	// Inside Solr criteria it appears in its escaped form EscapedNotSet.
	NotSet        = "-1"
	EscapedNotSet = `\-1`
)

// EscapeQuerySpecialCharacters prefixes every Solr query metacharacter and
// every whitespace rune with a backslash. The escape is applied exactly
// once per value; escaping an already escaped value is a caller error.
func EscapeQuerySpecialCharacters(value string) string {
	if value == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '\\', '+', '-', '!', '(', ')', ':', '^', '[', ']', '"',
			'{', '}', '~', '*', '?', '|', '&', ';', '/':
			b.WriteByte('\\')
		default:
			if unicode.IsSpace(r) {
				b.WriteByte('\\')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UnescapeQueryCharacters strips the backslashes inserted by
// EscapeQuerySpecialCharacters, restoring the original value.
func UnescapeQueryCharacters(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	escaped := false
	for _, r := range value {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeRegExp escapes regular-expression metacharacters so a value can be
// embedded verbatim inside a SPARQL regex() filter.
func EscapeRegExp(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '-', '/', '\\', '^', '$', '*', '+', '?', '.', '(', ')',
			'|', '[', ']', '{', '}':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeSparqlLiteral backslash-escapes quotes and backslashes so a value
// can sit inside a double-quoted SPARQL string literal.
func EscapeSparqlLiteral(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeURI percent-encodes the local part of a URI after the prefix
// separator: ':' for short URIs, '#' for full ones. The prefix part is
// left untouched.
func EscapeURI(uri string, short bool) string {
	sep := byte('#')
	if short {
		sep = ':'
	}
	pos := strings.IndexByte(uri, sep)
	if pos <= 0 {
		return uri
	}
	return uri[:pos+1] + url.PathEscape(uri[pos+1:])
}

// DateTimeLayout is the serialized instant format embedded into both query
// grammars: RFC 3339 with millisecond precision in UTC.
const DateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatDateTime serializes an instant for query embedding.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// ParseDateTime parses a serialized instant. The input may carry any RFC
// 3339 fractional precision.
func ParseDateTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
