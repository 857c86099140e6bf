package sparql

import (
	"strings"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
)

// extractAnyObject reports whether the values contain the any-object
// selector and returns the values without it.
func extractAnyObject(values []string) ([]string, bool) {
	for i, v := range values {
		if v == codec.AnyObject {
			return append(append([]string(nil), values[:i]...), values[i+1:]...), true
		}
	}
	return values, false
}

// relationQuery renders a relation criterion. The any-relation sentinel
// keeps the predicate as a variable constrained to object properties.
// Values referencing a nested search splice its renamed query in place
// of a concrete object URI.
func (c *Compiler) relationQuery(row *criteria.Criterion, field catalog.FieldDescriptor, postfix string) string {
	variableName := "?var" + postfix
	values, hasAnyObject := extractAnyObject(row.Values)

	relationVariable := field.URI
	relationTypeQuery := ""
	if row.Field == catalog.AnyRelation {
		relationVariable = variableName + "_rel"
		relationTypeQuery = relationVariable + " a owl:ObjectProperty .\n"
	}

	objectSearchMode := row.DynamicCriteria != nil
	resolved := make([]string, len(values))
	for i, v := range values {
		if strings.Contains(v, codec.DynamicQueryPrefix) {
			// The inner query binds its own instance variable; splice it
			// in after closing the relation pattern.
			innerInstance := instanceSubject() + postfix
			innerQuery := ReplaceInnerInstanceNames(c.dynamicQuery(v, row), postfix)
			v = innerInstance + " } . " + innerQuery
		}
		resolved[i] = v
	}

	actualValues := c.replaceContextValues(resolved)
	for i, v := range actualValues {
		actualValues[i] = " { " + instanceSubject() + " " + relationVariable + " " + codec.EscapeURI(v, false) + " } "
	}

	checkVariableName := variableName + "Check"

	// Dynamic queries close one brace of their own, so the OPTIONAL
	// clause needs an extra opening brace to stay balanced.
	additionalOpeningBracket := ""
	if objectSearchMode {
		additionalOpeningBracket = "{ "
	}

	switch row.Operator {
	case criteria.OpSetTo:
		if hasAnyObject {
			return relationTypeQuery + instanceSubject() + " " + relationVariable + " " + variableName
		}
		query := relationTypeQuery + "{ " + strings.Join(actualValues, " UNION\n")
		if !objectSearchMode {
			query += " }"
		}
		return query
	case criteria.OpNotSetTo:
		if hasAnyObject {
			return "OPTIONAL { " + additionalOpeningBracket + relationTypeQuery + " " + instanceSubject() + " " +
				relationVariable + " " + variableName + " . " + instanceSubject() + " emf:isDeleted " +
				checkVariableName + " .  } FILTER(!bound(" + checkVariableName + "))"
		}
		return "OPTIONAL { " + additionalOpeningBracket + strings.Join(actualValues, " UNION\n") +
			" . " + instanceSubject() + " emf:isDeleted " + checkVariableName +
			" .  } FILTER(!bound(" + checkVariableName + "))"
	case criteria.OpSetToSomeButNotTo:
		if hasAnyObject {
			return "OPTIONAL { " + additionalOpeningBracket + relationTypeQuery + " " + instanceSubject() + " " +
				relationVariable + " " + variableName + " . " + instanceSubject() + " emf:isDeleted " +
				checkVariableName + " .  } FILTER(!bound(" + checkVariableName + "))"
		}
		return relationTypeQuery + instanceSubject() + " " + relationVariable + " " + variableName + " .\n" +
			"OPTIONAL { " + additionalOpeningBracket + strings.Join(actualValues, " UNION\n") +
			" . " + instanceSubject() + " emf:isDeleted " + checkVariableName +
			" .  } FILTER(!bound(" + checkVariableName + "))"
	}
	return ""
}

// dynamicQuery resolves the compiled query text for a dynamic value. A
// query compiled from nested criteria sits on the criterion itself; the
// registry covers queries registered from object-picker basic searches.
func (c *Compiler) dynamicQuery(key string, row *criteria.Criterion) string {
	if row.DynamicQuery != "" {
		return row.DynamicQuery
	}
	return c.DynamicQueries[key]
}
