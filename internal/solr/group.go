package solr

import (
	"strings"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
)

// CompileGroup renders one search group: the object type restriction
// joined with the group's criteria query. The criteria part is
// parenthesized only when it contains a boolean operator of its own.
func (c *Compiler) CompileGroup(objectType string, seq criteria.Sequence, tax *catalog.Taxonomy) (string, error) {
	typeQuery := typeClause(objectType, tax)
	formQuery, err := c.Compile(seq)
	if err != nil {
		return "", err
	}
	if formQuery == "" {
		return typeQuery, nil
	}
	if needsParens(formQuery) {
		return typeQuery + " AND (" + formQuery + ")", nil
	}
	return typeQuery + " AND " + formQuery, nil
}

// typeClause builds the object type restriction. Semantic types carry a
// short URI and match on rdfType with the expanded full URI; definition
// types match on the type field.
func typeClause(objectType string, tax *catalog.Taxonomy) string {
	if objectType == catalog.ObjectTypeAll {
		return "type:*"
	}
	if catalog.IsShortURI(objectType) {
		full := objectType
		if tax != nil {
			full = tax.FullURI(objectType)
		}
		return "rdfType:" + codec.EscapeQuerySpecialCharacters(full)
	}
	return "type:" + codec.EscapeQuerySpecialCharacters(objectType)
}

// Union joins per-group queries with OR. Groups containing a boolean
// operator are parenthesized; a single group stays bare.
func Union(groupQueries []string) string {
	queries := make([]string, 0, len(groupQueries))
	for _, q := range groupQueries {
		if q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 1 {
		return queries[0]
	}
	parts := make([]string, len(queries))
	for i, q := range queries {
		if needsParens(q) {
			parts[i] = "(" + q + ")"
		} else {
			parts[i] = q
		}
	}
	return strings.Join(parts, " OR ")
}

func needsParens(q string) bool {
	return strings.Contains(q, " AND ") || strings.Contains(q, " OR ")
}
