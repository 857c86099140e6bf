package sparql

import (
	"fmt"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
)

// dateQuery renders a date criterion as a property binding plus dateTime
// comparison filters. An asterisk bound leaves that side open.
func (c *Compiler) dateQuery(row *criteria.Criterion, field catalog.FieldDescriptor, postfix string) (string, error) {
	variableName := "?var" + postfix
	query := instanceSubject() + " " + field.URI + " " + variableName + " . "
	switch row.Operator {
	case criteria.OpBetween:
		if len(row.Values) == 2 {
			if row.Values[0] != "*" {
				query += dateFilter(variableName, row.Values[0], ">=")
			}
			if row.Values[1] != "*" {
				query += dateFilter(variableName, row.Values[1], "<")
			}
		}
	case criteria.OpIs:
		start, err := codec.ParseDateTime(row.Values[0])
		if err != nil {
			return "", fmt.Errorf("sparql: field %s: parse date %q: %w", field.ID, row.Values[0], err)
		}
		query += dateFilter(variableName, row.Values[0], ">=")
		query += dateFilter(variableName, codec.FormatDateTime(start.AddDate(0, 0, 1)), "<")
	case criteria.OpIsAfter:
		query += dateFilter(variableName, row.Values[0], ">")
	case criteria.OpIsBefore:
		query += dateFilter(variableName, row.Values[0], "<")
	case criteria.OpIsWithin:
		rng, ok := codec.FindDateRange(c.DateRanges, row.Values[0])
		if !ok {
			c.logf("sparql: unknown date range %q, criterion dropped", row.Values[0])
			return "", nil
		}
		now := c.now()
		if start, ok := codec.OffsetToDate(rng.StartOffset, now); ok {
			query += dateFilter(variableName, codec.FormatDateTime(start), ">=")
		}
		if end, ok := codec.OffsetToDate(rng.EndOffset, now); ok {
			query += dateFilter(variableName, codec.FormatDateTime(end), "<=")
		}
	}
	return query, nil
}

func dateFilter(variable, value, comparison string) string {
	return " FILTER (" + variable + " " + comparison + " xsd:dateTime(\"" + value + "\")) "
}

// numberQuery renders a numeric criterion. Equality matches the typed
// literal directly; inequalities bind a variable and filter it.
func (c *Compiler) numberQuery(row *criteria.Criterion, field catalog.FieldDescriptor, postfix string) string {
	variableName := "?var" + postfix
	switch row.Operator {
	case criteria.OpEquals:
		return instanceSubject() + " " + field.URI + " \"" + row.Values[0] + "\"^^xsd:long"
	case criteria.OpNotEquals:
		return instanceSubject() + " " + field.URI + " " + variableName + ". \n" +
			"MINUS { " + instanceSubject() + " " + field.URI + " \"" + row.Values[0] + "\"^^xsd:long }"
	case criteria.OpLowerThan:
		return instanceSubject() + " " + field.URI + " " + variableName + ". \n" +
			"FILTER (" + variableName + " < " + row.Values[0] + ")"
	case criteria.OpGreaterThan:
		return instanceSubject() + " " + field.URI + " " + variableName + ". \n" +
			"FILTER (" + variableName + " > " + row.Values[0] + ")"
	case criteria.OpBetween:
		if len(row.Values) != 2 {
			return ""
		}
		query := instanceSubject() + " " + field.URI + " " + variableName + " .\n FILTER ("
		addAnd := false
		if row.Values[0] != "*" {
			query += variableName + " > " + row.Values[0]
			addAnd = true
		}
		if row.Values[1] != "*" {
			if addAnd {
				query += " && "
			}
			query += variableName + " < " + row.Values[1]
		}
		return query + ")"
	}
	return ""
}

// booleanQuery renders a boolean criterion. The "-1" selector means the
// property is absent: matched through the deleted-flag pattern every
// instance carries.
func (c *Compiler) booleanQuery(row *criteria.Criterion, field catalog.FieldDescriptor, postfix string) string {
	variableName := "?var" + postfix
	value := row.Values[0]
	switch row.Operator {
	case criteria.OpIs:
		if value == codec.NotSet {
			checkVariableName := variableName + "Check"
			return "OPTIONAL { " + instanceSubject() + " " + field.URI + " " + variableName +
				" . " + instanceSubject() + " emf:isDeleted " + checkVariableName +
				" .  } FILTER(!bound(" + checkVariableName + "))"
		}
		return instanceSubject() + " " + field.URI + " \"" + value + "\"^^xsd:boolean"
	case criteria.OpIsNot:
		if value == codec.NotSet {
			return instanceSubject() + " " + field.URI + " " + variableName
		}
		return "MINUS { " + instanceSubject() + " " + field.URI + " \"" + value + "\"^^xsd:boolean }"
	}
	return ""
}
