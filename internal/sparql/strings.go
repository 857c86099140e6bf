package sparql

import (
	"strings"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
)

// stringQuery renders a text criterion as a case-insensitive regex
// filter over a fresh variable. Negative operators additionally union in
// instances that lack the property at all; the keyword field matches any
// predicate and skips that union.
func (c *Compiler) stringQuery(row *criteria.Criterion, field catalog.FieldDescriptor, postfix string) string {
	variableName := "?var" + postfix
	fieldURI := field.URI
	if field.ID == catalog.AnyField {
		fieldURI = variableName + "_0"
	}
	query := "{ " + instanceSubject() + " " + fieldURI + " " + variableName

	union := " || "
	includeNotExisting := false
	regexPrefix := ""
	regexSuffix := ""
	switch row.Operator {
	case criteria.OpIn, criteria.OpEquals:
		regexPrefix = "^"
		regexSuffix = "$"
	case criteria.OpContains:
		// bare value
	case criteria.OpStartsWith:
		regexPrefix = "^"
	case criteria.OpEndsWith:
		regexSuffix = "$"
	case criteria.OpDoesNotContain:
		includeNotExisting = true
		union = " && "
		regexPrefix = "^((?!"
		regexSuffix = ").)*$"
	case criteria.OpNotIn, criteria.OpNotEquals:
		includeNotExisting = true
		union = " && "
		regexPrefix = "^(?!"
		regexSuffix = "$).*$"
	case criteria.OpDoesNotStartWith:
		includeNotExisting = true
		union = " && "
		regexPrefix = "^(?!"
		regexSuffix = ").*$"
	case criteria.OpDoesNotEndWith:
		// The lookbehind is not portable to every SPARQL regex engine.
		includeNotExisting = true
		union = " && "
		regexPrefix = "^.*(?<!"
		regexSuffix = ")$"
	}

	var filter strings.Builder
	filter.WriteString(" FILTER(")
	for i, v := range row.Values {
		regexValue := codec.EscapeRegExp(v)
		regexValue = codec.EscapeSparqlLiteral(regexValue)
		if i > 0 {
			filter.WriteString(union)
		}
		regexValue = regexPrefix + regexValue + regexSuffix
		filter.WriteString("regex(lcase(" + variableName + "), \"" + strings.ToLower(regexValue) + "\")")
	}
	filter.WriteString(")")
	query += filter.String() + " }"

	if includeNotExisting && field.ID != catalog.AnyField {
		checkVariableName := variableName + "Check"
		query = "{ {OPTIONAL { " + instanceSubject() + " " + fieldURI + " " + variableName +
			" . " + instanceSubject() + " emf:isDeleted " + checkVariableName +
			" }  FILTER (!bound(" + checkVariableName + ")) } \nUNION\n " + query + " }"
	}
	return query
}

// objectFullURIQuery renders an object reference criterion: any property
// of the instance pointing at one of the chosen objects.
func (c *Compiler) objectFullURIQuery(row *criteria.Criterion, postfix string) string {
	variableName := "?var" + postfix
	parts := make([]string, len(row.Values))
	for i, v := range row.Values {
		parts[i] = " { " + instanceSubject() + " " + variableName + " <" + codec.EscapeURI(v, false) + "> } "
	}
	query := " { " + strings.Join(parts, " UNION\n") + " }"
	if row.Operator == criteria.OpNotIn {
		checkVariableName := variableName + "Check"
		query = " OPTIONAL { " + query + " . " + instanceSubject() + " emf:isDeleted " + checkVariableName +
			" } FILTER (!bound(" + checkVariableName + "))"
	}
	return query
}

// objectShortURIQuery renders user, group and agent criteria. The
// current-user placeholder resolves to the real user URI.
func (c *Compiler) objectShortURIQuery(row *criteria.Criterion, field catalog.FieldDescriptor, postfix string) string {
	parts := make([]string, len(row.Values))
	for i, v := range row.Values {
		if v == codec.CurrentUser {
			v = c.CurrentUserURI
		}
		parts[i] = " { " + instanceSubject() + " " + field.URI + " " + codec.EscapeURI(v, false) + " } "
	}
	query := " { " + strings.Join(parts, " UNION\n") + " } "
	if row.Operator == criteria.OpNotIn {
		checkVariableName := "?var" + postfix + strings.Replace(field.URI, ":", "_", 1) + "Check"
		query = " OPTIONAL { " + query + " . " + instanceSubject() + " emf:isDeleted " + checkVariableName +
			" } FILTER (!bound(" + checkVariableName + "))"
	}
	return query
}
