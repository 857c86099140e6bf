package sparql

import (
	"strings"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/criteria"
)

// CompileGroup renders one search group: the object type restriction
// followed by the group's criteria patterns, wrapped as a single graph
// pattern. The unrestricted selector adds no type clause but still
// compiles the criteria.
func (c *Compiler) CompileGroup(objectType string, seq criteria.Sequence, tax *catalog.Taxonomy, groupIndex, nestingLevel int) (string, error) {
	if objectType == "" {
		return "", nil
	}
	query := ""
	switch {
	case objectType == catalog.ObjectTypeAll:
		// no type clause
	case catalog.IsShortURI(objectType):
		query += "{  { " + instanceSubject() + " rdf:type " + objectType + " }  }  .\n"
	default:
		parent := ""
		if tax != nil {
			parent = tax.Parents[objectType]
		}
		query += "{  { " + instanceSubject() + " rdf:type " + parent + " . " +
			instanceSubject() + " emf:type \"" + objectType + "\" }  }  .\n"
	}
	form, err := c.CompileCriteria(seq, groupIndex, nestingLevel)
	if err != nil {
		return "", err
	}
	query += form
	if query == "" {
		return "", nil
	}
	return " { " + query + " }", nil
}

// BuildFullQuery joins per-group queries with UNION and appends the
// permissions placeholder block. Empty groups are skipped; an entirely
// empty search yields an empty query with no block.
func BuildFullQuery(groupQueries []string) string {
	var query strings.Builder
	appendUnion := false
	for _, groupQuery := range groupQueries {
		if groupQuery == "" {
			continue
		}
		if appendUnion {
			query.WriteString("\n UNION \n")
		}
		query.WriteString(groupQuery)
		appendUnion = true
	}
	if strings.TrimSpace(query.String()) == "" {
		return query.String()
	}
	return query.String() + AdditionalQueryBlock + "\n"
}
