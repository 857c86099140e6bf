// Package solr compiles normalized criteria trees into Solr filter query
// strings. The compiler renders one fragment per criterion row, assembles
// AND runs, and joins runs with OR, parenthesizing only where the grammar
// needs it.
package solr

import (
	"fmt"
	"strings"
	"time"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
)

// Compiler compiles criteria sequences to Solr filter queries.
//
// Date range macros resolve against Now, so two compilations of the same
// criteria on different days produce different bounds. Tests pin Now to a
// fixed instant.
type Compiler struct {
	// Catalog resolves criterion field ids to field descriptors.
	Catalog *catalog.Catalog

	// DateRanges holds the configured relative date windows referenced
	// by is_within criteria.
	DateRanges []codec.DateRange

	// Now supplies the evaluation instant. Defaults to time.Now.
	Now func() time.Time

	// Logf receives diagnostics for criteria that compile to nothing,
	// such as an unknown date range id. Defaults to discard.
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

// Compile renders a normalized sequence to a filter query. Rows without
// values are skipped. Adjacent AND rows form a run; OR starts a new run.
// Runs of more than one fragment are parenthesized before the OR join,
// except when the whole result is a single run, which is returned bare.
func (c *Compiler) Compile(seq criteria.Sequence) (string, error) {
	pruned := criteria.PruneEmpty(seq)

	var runs []string
	var runCounts []int
	var run strings.Builder
	runCount := 0
	pending := criteria.ConjAnd

	flush := func() {
		if runCount > 0 {
			runs = append(runs, run.String())
			runCounts = append(runCounts, runCount)
			run.Reset()
			runCount = 0
		}
	}

	for i := 0; i < len(pruned); i++ {
		if conj, ok := pruned[i].(*criteria.Conj); ok {
			pending = conj.Operator
			continue
		}
		var frag string
		switch v := pruned[i].(type) {
		case *criteria.Criterion:
			f, err := c.fragment(v)
			if err != nil {
				return "", err
			}
			frag = f
		case *criteria.Group:
			inner, err := c.Compile(v.Criteria)
			if err != nil {
				return "", err
			}
			if inner != "" {
				frag = "(" + inner + ")"
			}
		}
		if frag == "" {
			continue
		}
		if runCount == 0 {
			run.WriteString(frag)
			runCount = 1
			continue
		}
		if pending == criteria.ConjOr {
			flush()
			run.WriteString(frag)
			runCount = 1
			continue
		}
		run.WriteString(" AND ")
		run.WriteString(frag)
		runCount++
	}
	flush()

	switch len(runs) {
	case 0:
		return "", nil
	case 1:
		return runs[0], nil
	}
	parts := make([]string, len(runs))
	for i, r := range runs {
		if runCounts[i] > 1 {
			parts[i] = "(" + r + ")"
		} else {
			parts[i] = r
		}
	}
	return strings.Join(parts, " OR "), nil
}

// fragment renders one criterion row. An empty result with nil error
// means the row contributes nothing (already logged).
func (c *Compiler) fragment(row *criteria.Criterion) (string, error) {
	field, ok := c.Catalog.Lookup(row.Field)
	if !ok {
		field = catalog.FieldDescriptor{ID: row.Field, Type: catalog.TypeString}
	}
	name := field.SolrName()
	values := row.Values
	if escapedValueType(field.Type) {
		escaped := make([]string, len(values))
		for i, v := range values {
			escaped[i] = codec.EscapeQuerySpecialCharacters(v)
		}
		values = escaped
	}

	switch row.Operator {
	case criteria.OpContains:
		return name + ":(" + joinWrapped(values, "*", "*") + ")", nil
	case criteria.OpDoesNotContain:
		return "-" + name + ":(" + joinWrapped(values, "*", "*") + ")", nil
	case criteria.OpEquals, criteria.OpIn:
		return name + ":(" + strings.Join(values, " OR ") + ")", nil
	case criteria.OpNotEquals, criteria.OpNotIn:
		if isNotSet(values) {
			return "-" + name + ":*", nil
		}
		return "-" + name + ":(" + strings.Join(values, " OR ") + ")", nil
	case criteria.OpStartsWith:
		return name + ":(" + joinWrapped(values, "", "*") + ")", nil
	case criteria.OpDoesNotStartWith:
		return "-" + name + ":(" + joinWrapped(values, "", "*") + ")", nil
	case criteria.OpEndsWith:
		return name + ":(" + joinWrapped(values, "*", "") + ")", nil
	case criteria.OpDoesNotEndWith:
		return "-" + name + ":(" + joinWrapped(values, "*", "") + ")", nil
	case criteria.OpBetween:
		return name + ":[" + bound(values, 0) + " TO " + bound(values, 1) + "]", nil
	case criteria.OpLowerThan:
		return name + ":[* TO " + bound(values, 0) + "]", nil
	case criteria.OpGreaterThan:
		return name + ":[" + bound(values, 0) + " TO *]", nil
	case criteria.OpIs:
		if field.Type.IsDate() {
			return c.dayRange(name, values)
		}
		if isNotSet(values) {
			return "-" + name + ":*", nil
		}
		return name + ":(" + strings.Join(values, " OR ") + ")", nil
	case criteria.OpIsNot:
		if isNotSet(values) {
			return name + ":*", nil
		}
		return "-" + name + ":(" + strings.Join(values, " OR ") + ")", nil
	case criteria.OpIsAfter:
		return name + ":[" + bound(values, 0) + " TO *]", nil
	case criteria.OpIsBefore:
		return name + ":[* TO " + bound(values, 0) + "]", nil
	case criteria.OpIsWithin:
		return c.withinRange(name, values)
	}
	c.logf("solr: no rule for operator %q on field %q, criterion dropped", row.Operator, row.Field)
	return "", nil
}

// dayRange renders an exact-day date match: the serialized instant up to
// the same instant one day later.
func (c *Compiler) dayRange(name string, values []string) (string, error) {
	if len(values) == 0 || values[0] == "" {
		return "", nil
	}
	start, err := codec.ParseDateTime(values[0])
	if err != nil {
		return "", fmt.Errorf("solr: field %s: parse date %q: %w", name, values[0], err)
	}
	end := start.AddDate(0, 0, 1)
	return name + ":[" + values[0] + " TO " + codec.FormatDateTime(end) + "]", nil
}

// withinRange resolves a date range macro to concrete quoted bounds. An
// unresolvable bound stays open.
func (c *Compiler) withinRange(name string, values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	rng, ok := codec.FindDateRange(c.DateRanges, values[0])
	if !ok {
		c.logf("solr: unknown date range %q, criterion dropped", values[0])
		return "", nil
	}
	now := c.now()
	start := "*"
	if t, ok := codec.OffsetToDate(rng.StartOffset, now); ok {
		start = `"` + codec.FormatDateTime(t) + `"`
	}
	end := "*"
	if t, ok := codec.OffsetToDate(rng.EndOffset, now); ok {
		end = `"` + codec.FormatDateTime(t) + `"`
	}
	return name + ":[" + start + " TO " + end + "]", nil
}

// escapedValueType reports whether values of the type are user-entered
// text that must be escaped before query embedding. Other types carry
// serialized dates, numbers or URIs that embed verbatim.
func escapedValueType(t catalog.ValueType) bool {
	switch t {
	case catalog.TypeString, catalog.TypeSelect, catalog.TypeAutocomplete:
		return true
	}
	return false
}

// isNotSet reports whether the first value is the escaped "no value"
// selector of boolean inputs.
func isNotSet(values []string) bool {
	return len(values) > 0 && values[0] == codec.EscapedNotSet
}

func joinWrapped(values []string, prefix, suffix string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = prefix + v + suffix
	}
	return strings.Join(parts, " OR ")
}

func bound(values []string, i int) string {
	if i < len(values) && values[i] != "" {
		return values[i]
	}
	return "*"
}
