package solr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
	"github.com/semsearch/semsearch/internal/testutil"
)

func testCatalog() *catalog.Catalog {
	return catalog.FromRemote([]catalog.RemoteField{
		{ID: "title"},
		{ID: "status", CodeLists: []int{102}},
		{ID: "size", RangeClass: "long"},
		{ID: "createdOn", RangeClass: "dateTime"},
		{ID: "active", RangeClass: "boolean"},
	})
}

func testRanges() []codec.DateRange {
	return []codec.DateRange{
		{
			ID:          "last_week",
			Order:       1,
			StartOffset: &codec.Offset{Hours: -168},
			EndOffset:   &codec.Offset{},
		},
		{
			ID:    "after_today",
			Order: 2,
			// Open end.
			StartOffset: &codec.Offset{},
		},
	}
}

func testCompiler(t *testing.T) *Compiler {
	t.Helper()
	clock := testutil.NewFixedClock(time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC))
	return &Compiler{
		Catalog:    testCatalog(),
		DateRanges: testRanges(),
		Now:        clock.Now,
	}
}

func crit(field string, op criteria.Operator, values ...string) *criteria.Criterion {
	return &criteria.Criterion{Field: field, Operator: op, Values: values}
}

func conj(op criteria.Conjunction) *criteria.Conj {
	return &criteria.Conj{Operator: op}
}

func TestCompileFragments(t *testing.T) {
	tests := []struct {
		name string
		row  *criteria.Criterion
		want string
	}{
		{"contains", crit("title", criteria.OpContains, "report"), "title:(*report*)"},
		{"contains multiple", crit("title", criteria.OpContains, "a", "b"), "title:(*a* OR *b*)"},
		{"contains escapes", crit("title", criteria.OpContains, "a b"), `title:(*a\ b*)`},
		{"does not contain", crit("title", criteria.OpDoesNotContain, "draft"), "-title:(*draft*)"},
		{"equals", crit("status", criteria.OpEquals, "OPEN"), "status:(OPEN)"},
		{"in", crit("status", criteria.OpIn, "OPEN", "CLOSED"), "status:(OPEN OR CLOSED)"},
		{"not in", crit("status", criteria.OpNotIn, "OPEN"), "-status:(OPEN)"},
		{"not equals no value", crit("status", criteria.OpNotEquals, "-1"), "-status:*"},
		{"starts with", crit("title", criteria.OpStartsWith, "re"), "title:(re*)"},
		{"does not start with", crit("title", criteria.OpDoesNotStartWith, "re"), "-title:(re*)"},
		{"ends with", crit("title", criteria.OpEndsWith, "rt"), "title:(*rt)"},
		{"does not end with", crit("title", criteria.OpDoesNotEndWith, "rt"), "-title:(*rt)"},
		{"between", crit("size", criteria.OpBetween, "1", "5"), "size:[1 TO 5]"},
		{"between open end", crit("size", criteria.OpBetween, "1", ""), "size:[1 TO *]"},
		{"lower than", crit("size", criteria.OpLowerThan, "5"), "size:[* TO 5]"},
		{"greater than", crit("size", criteria.OpGreaterThan, "5"), "size:[5 TO *]"},
		{"is boolean", crit("active", criteria.OpIs, "true"), "active:(true)"},
		{"is not", crit("status", criteria.OpIsNot, "OPEN"), "-status:(OPEN)"},
		{"is not no value", crit("status", criteria.OpIsNot, "-1"), "status:*"},
		{
			"is date spans one day",
			crit("createdOn", criteria.OpIs, "2024-03-15T00:00:00.000Z"),
			"createdOn:[2024-03-15T00:00:00.000Z TO 2024-03-16T00:00:00.000Z]",
		},
		{
			"is after",
			crit("createdOn", criteria.OpIsAfter, "2024-03-15T00:00:00.000Z"),
			"createdOn:[2024-03-15T00:00:00.000Z TO *]",
		},
		{
			"is before",
			crit("createdOn", criteria.OpIsBefore, "2024-03-15T00:00:00.000Z"),
			"createdOn:[* TO 2024-03-15T00:00:00.000Z]",
		},
		{
			"is within",
			crit("createdOn", criteria.OpIsWithin, "last_week"),
			`createdOn:["2024-03-08T00:00:00.000Z" TO "2024-03-15T00:00:00.000Z"]`,
		},
		{
			"is within open end",
			crit("createdOn", criteria.OpIsWithin, "after_today"),
			`createdOn:["2024-03-15T00:00:00.000Z" TO *]`,
		},
		{"unknown field falls back to string", crit("mystery", criteria.OpContains, "x"), "mystery:(*x*)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testCompiler(t).Compile(criteria.Sequence{tt.row})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileDroppedCriteria(t *testing.T) {
	rec := &testutil.LogRecorder{}
	c := testCompiler(t)
	c.Logf = rec.Logf

	got, err := c.Compile(criteria.Sequence{crit("createdOn", criteria.OpIsWithin, "no_such_range")})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Compile(criteria.Sequence{crit("title", criteria.OpSetTo, "emf:x")})
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Len(t, rec.Lines(), 2)
}

func TestCompileBadDate(t *testing.T) {
	_, err := testCompiler(t).Compile(criteria.Sequence{crit("createdOn", criteria.OpIs, "garbage")})
	require.Error(t, err)
}

func TestCompileRunAssembly(t *testing.T) {
	a := crit("title", criteria.OpContains, "a")
	b := crit("title", criteria.OpContains, "b")
	c := crit("title", criteria.OpContains, "c")

	tests := []struct {
		name string
		seq  criteria.Sequence
		want string
	}{
		{"empty", criteria.Sequence{}, ""},
		{"single", criteria.Sequence{a}, "title:(*a*)"},
		{"and run stays bare", criteria.Sequence{a, conj(criteria.ConjAnd), b}, "title:(*a*) AND title:(*b*)"},
		{"or without parens", criteria.Sequence{a, conj(criteria.ConjOr), b}, "title:(*a*) OR title:(*b*)"},
		{
			"and run parenthesized before or",
			criteria.Sequence{a, conj(criteria.ConjAnd), b, conj(criteria.ConjOr), c},
			"(title:(*a*) AND title:(*b*)) OR title:(*c*)",
		},
		{
			"or then and run",
			criteria.Sequence{a, conj(criteria.ConjOr), b, conj(criteria.ConjAnd), c},
			"title:(*a*) OR (title:(*b*) AND title:(*c*))",
		},
		{
			"valueless rows are skipped",
			criteria.Sequence{a, conj(criteria.ConjAnd), crit("title", criteria.OpContains)},
			"title:(*a*)",
		},
		{
			"group boundaries are kept",
			criteria.Sequence{
				&criteria.Group{Criteria: criteria.Sequence{a, conj(criteria.ConjOr), b}},
				conj(criteria.ConjAnd),
				c,
			},
			"(title:(*a*) OR title:(*b*)) AND title:(*c*)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testCompiler(t).Compile(tt.seq)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
