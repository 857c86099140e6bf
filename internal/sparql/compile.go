package sparql

import (
	"strconv"
	"strings"
	"time"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
)

// Compiler compiles criteria sequences to SPARQL WHERE fragments.
type Compiler struct {
	// Catalog resolves criterion field ids to field descriptors.
	Catalog *catalog.Catalog

	// DateRanges holds the configured relative date windows referenced
	// by is_within criteria.
	DateRanges []codec.DateRange

	// Now supplies the evaluation instant. Defaults to time.Now.
	Now func() time.Time

	// CurrentUserURI substitutes the current-user placeholder in
	// user, group and agent values.
	CurrentUserURI string

	// Breadcrumb resolves context placeholder values.
	Breadcrumb []ContextEntry

	// DynamicQueries maps dynamic query keys to the compiled queries of
	// nested object-picker searches.
	DynamicQueries map[string]string

	// Logf receives diagnostics for criteria that compile to nothing.
	// Defaults to discard.
	Logf func(format string, args ...any)
}

func (c *Compiler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Compiler) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

// CompileCriteria renders a normalized sequence. Each AND run becomes a
// braced graph pattern; runs join with UNION. The groupIndex and
// nestingLevel feed the positional variable postfix.
func (c *Compiler) CompileCriteria(seq criteria.Sequence, groupIndex, nestingLevel int) (string, error) {
	pruned := criteria.PruneEmpty(seq)

	var queries []string
	fq := ""
	first := true
	pending := criteria.ConjAnd

	for i := 0; i < len(pruned); i++ {
		if conj, ok := pruned[i].(*criteria.Conj); ok {
			pending = conj.Operator
			continue
		}
		var single string
		switch v := pruned[i].(type) {
		case *criteria.Group:
			inner, err := c.CompileCriteria(v.Criteria, groupIndex, nestingLevel)
			if err != nil {
				return "", err
			}
			single = " { " + inner + " } "
		case *criteria.Criterion:
			// The postfix keeps subject and predicate variables unique
			// across rows, groups and nesting levels.
			postfix := strconv.Itoa(groupIndex) + "_" + strconv.Itoa(i) + "_" + strconv.Itoa(nestingLevel+1)
			q, err := c.buildSingle(v, postfix)
			if err != nil {
				return "", err
			}
			single = q
		}
		if single == "" {
			continue
		}
		if !first && pending == criteria.ConjOr {
			queries = append(queries, fq)
			fq = single
			continue
		}
		if first {
			fq = single
			first = false
		} else {
			fq += " .\n " + single
		}
	}
	if fq != "" {
		queries = append(queries, fq)
	}

	if len(queries) == 0 {
		return "", nil
	}
	if len(queries) == 1 {
		return " { " + queries[0] + " } ", nil
	}
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = " { " + q + " } "
	}
	return strings.Join(parts, "\n UNION \n"), nil
}

// buildSingle renders one criterion row by the value type of its field.
func (c *Compiler) buildSingle(row *criteria.Criterion, postfix string) (string, error) {
	field, ok := c.Catalog.Lookup(row.Field)
	if !ok {
		c.logf("sparql: unknown field %q, criterion dropped", row.Field)
		return "", nil
	}
	switch field.Type {
	case catalog.TypeString:
		return c.stringQuery(row, field, postfix), nil
	case catalog.TypeDate, catalog.TypeDateTime:
		return c.dateQuery(row, field, postfix)
	case catalog.TypePickable:
		return c.relationQuery(row, field, postfix), nil
	case catalog.TypeAutocomplete:
		if field.SubType == catalog.SubTypeObject {
			return c.objectFullURIQuery(row, postfix), nil
		}
		return c.stringQuery(row, field, postfix), nil
	case catalog.TypeBoolean:
		return c.booleanQuery(row, field, postfix), nil
	case catalog.TypeNumber:
		return c.numberQuery(row, field, postfix), nil
	case catalog.TypeUser, catalog.TypeGroup, catalog.TypeAgent:
		return c.objectShortURIQuery(row, field, postfix), nil
	}
	c.logf("sparql: no rule for value type %q on field %q, criterion dropped", field.Type, row.Field)
	return "", nil
}

// replaceContextValues swaps context placeholders for the URIs of the
// breadcrumb entries. Placeholders the breadcrumb cannot satisfy are
// dropped.
func (c *Compiler) replaceContextValues(values []string) []string {
	replaced := make([]string, 0, len(values))
	for _, v := range values {
		switch v {
		case codec.ContextCurrentProject:
			if len(c.Breadcrumb) > 0 && c.Breadcrumb[0].Type == "projectinstance" {
				replaced = append(replaced, c.Breadcrumb[0].ID)
			}
		case codec.ContextCurrentCase:
			if len(c.Breadcrumb) >= 2 && c.Breadcrumb[1].Type == "caseinstance" {
				replaced = append(replaced, c.Breadcrumb[1].ID)
			}
		case codec.ContextCurrentObject:
			if len(c.Breadcrumb) > 0 {
				replaced = append(replaced, c.Breadcrumb[len(c.Breadcrumb)-1].ID)
			}
		default:
			replaced = append(replaced, v)
		}
	}
	return replaced
}

func instanceSubject() string {
	return "?" + InstanceVariable
}
