package sparql

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
		{ID: catalog.AnyField},
		{ID: catalog.AnyRelation, PropertyType: "object"},
		{ID: "title", URI: "dcterms:title"},
		{ID: "createdOn", RangeClass: "dateTime", URI: "emf:createdOn"},
		{ID: "size", RangeClass: "long", URI: "emf:size"},
		{ID: "active", RangeClass: "boolean", URI: "emf:active"},
		{ID: "createdBy", RangeClass: "emf:User", URI: "emf:createdBy"},
		{ID: "hasChild", PropertyType: "object", URI: "emf:hasChild"},
		{ID: "reference", CodeLists: []int{7}, PropertyType: "object", URI: "emf:reference"},
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
	}
}

func testCompiler(t *testing.T) *Compiler {
	t.Helper()
	clock := testutil.NewFixedClock(time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC))
	return &Compiler{
		Catalog:        testCatalog(),
		DateRanges:     testRanges(),
		Now:            clock.Now,
		CurrentUserURI: "emf:admin",
	}
}

func crit(field string, op criteria.Operator, values ...string) *criteria.Criterion {
	return &criteria.Criterion{Field: field, Operator: op, Values: values}
}

func conj(op criteria.Conjunction) *criteria.Conj {
	return &criteria.Conj{Operator: op}
}

func field(t *testing.T, c *Compiler, id string) catalog.FieldDescriptor {
	t.Helper()
	f, ok := c.Catalog.Lookup(id)
	require.True(t, ok)
	return f
}

func TestStringQuery(t *testing.T) {
	c := testCompiler(t)
	title := field(t, c, "title")

	tests := []struct {
		name string
		row  *criteria.Criterion
		want string
	}{
		{
			"contains lowercases the pattern",
			crit("title", criteria.OpContains, "Report"),
			`{ ?instance dcterms:title ?var0_0_1 FILTER(regex(lcase(?var0_0_1), "report")) }`,
		},
		{
			"equals anchors both ends",
			crit("title", criteria.OpEquals, "Report"),
			`{ ?instance dcterms:title ?var0_0_1 FILTER(regex(lcase(?var0_0_1), "^report$")) }`,
		},
		{
			"starts with anchors the front",
			crit("title", criteria.OpStartsWith, "re"),
			`{ ?instance dcterms:title ?var0_0_1 FILTER(regex(lcase(?var0_0_1), "^re")) }`,
		},
		{
			"ends with anchors the back",
			crit("title", criteria.OpEndsWith, "rt"),
			`{ ?instance dcterms:title ?var0_0_1 FILTER(regex(lcase(?var0_0_1), "rt$")) }`,
		},
		{
			"multiple positive values union",
			crit("title", criteria.OpContains, "a", "b"),
			`{ ?instance dcterms:title ?var0_0_1 FILTER(regex(lcase(?var0_0_1), "a") || regex(lcase(?var0_0_1), "b")) }`,
		},
		{
			"regex metacharacters are escaped",
			crit("title", criteria.OpContains, "a.b"),
			`{ ?instance dcterms:title ?var0_0_1 FILTER(regex(lcase(?var0_0_1), "a\\.b")) }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.stringQuery(tt.row, title, "0_0_1"))
		})
	}
}

func TestStringQueryNegation(t *testing.T) {
	c := testCompiler(t)
	title := field(t, c, "title")

	got := c.stringQuery(crit("title", criteria.OpNotEquals, "x"), title, "0_0_1")
	want := "{ {OPTIONAL { ?instance dcterms:title ?var0_0_1 . ?instance emf:isDeleted ?var0_0_1Check }" +
		"  FILTER (!bound(?var0_0_1Check)) } \nUNION\n " +
		`{ ?instance dcterms:title ?var0_0_1 FILTER(regex(lcase(?var0_0_1), "^(?!x$).*$")) } }`
	assert.Equal(t, want, got)

	got = c.stringQuery(crit("title", criteria.OpDoesNotContain, "x"), title, "0_0_1")
	assert.Contains(t, got, `"^((?!x).)*$"`)
	assert.Contains(t, got, "OPTIONAL")

	// Two negative values combine conjunctively.
	got = c.stringQuery(crit("title", criteria.OpNotIn, "a", "b"), title, "0_0_1")
	assert.Contains(t, got, `regex(lcase(?var0_0_1), "^(?!a$).*$") && regex(lcase(?var0_0_1), "^(?!b$).*$")`)
}

func TestStringQueryAnyField(t *testing.T) {
	c := testCompiler(t)
	any := field(t, c, catalog.AnyField)

	got := c.stringQuery(crit(catalog.AnyField, criteria.OpContains, "x"), any, "0_0_1")
	assert.Equal(t, `{ ?instance ?var0_0_1_0 ?var0_0_1 FILTER(regex(lcase(?var0_0_1), "x")) }`, got)

	// The keyword field never unions in the missing-property branch.
	got = c.stringQuery(crit(catalog.AnyField, criteria.OpDoesNotContain, "x"), any, "0_0_1")
	assert.NotContains(t, got, "OPTIONAL")
}

func TestDateQuery(t *testing.T) {
	c := testCompiler(t)
	createdOn := field(t, c, "createdOn")

	tests := []struct {
		name string
		row  *criteria.Criterion
		want string
	}{
		{
			"is after",
			crit("createdOn", criteria.OpIsAfter, "2024-03-15T00:00:00.000Z"),
			`?instance emf:createdOn ?var0_0_1 .  FILTER (?var0_0_1 > xsd:dateTime("2024-03-15T00:00:00.000Z")) `,
		},
		{
			"is before",
			crit("createdOn", criteria.OpIsBefore, "2024-03-15T00:00:00.000Z"),
			`?instance emf:createdOn ?var0_0_1 .  FILTER (?var0_0_1 < xsd:dateTime("2024-03-15T00:00:00.000Z")) `,
		},
		{
			"is spans one day",
			crit("createdOn", criteria.OpIs, "2024-03-15T00:00:00.000Z"),
			`?instance emf:createdOn ?var0_0_1 .  FILTER (?var0_0_1 >= xsd:dateTime("2024-03-15T00:00:00.000Z"))  FILTER (?var0_0_1 < xsd:dateTime("2024-03-16T00:00:00.000Z")) `,
		},
		{
			"between",
			crit("createdOn", criteria.OpBetween, "2024-03-01T00:00:00.000Z", "2024-03-15T00:00:00.000Z"),
			`?instance emf:createdOn ?var0_0_1 .  FILTER (?var0_0_1 >= xsd:dateTime("2024-03-01T00:00:00.000Z"))  FILTER (?var0_0_1 < xsd:dateTime("2024-03-15T00:00:00.000Z")) `,
		},
		{
			"between with open start",
			crit("createdOn", criteria.OpBetween, "*", "2024-03-15T00:00:00.000Z"),
			`?instance emf:createdOn ?var0_0_1 .  FILTER (?var0_0_1 < xsd:dateTime("2024-03-15T00:00:00.000Z")) `,
		},
		{
			"is within resolves the range",
			crit("createdOn", criteria.OpIsWithin, "last_week"),
			`?instance emf:createdOn ?var0_0_1 .  FILTER (?var0_0_1 >= xsd:dateTime("2024-03-08T00:00:00.000Z"))  FILTER (?var0_0_1 <= xsd:dateTime("2024-03-15T00:00:00.000Z")) `,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.dateQuery(tt.row, createdOn, "0_0_1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateQueryErrors(t *testing.T) {
	c := testCompiler(t)
	createdOn := field(t, c, "createdOn")

	_, err := c.dateQuery(crit("createdOn", criteria.OpIs, "garbage"), createdOn, "0_0_1")
	require.Error(t, err)

	rec := &testutil.LogRecorder{}
	c.Logf = rec.Logf
	got, err := c.dateQuery(crit("createdOn", criteria.OpIsWithin, "no_such_range"), createdOn, "0_0_1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, rec.Lines(), 1)
}

func TestNumberQuery(t *testing.T) {
	c := testCompiler(t)
	size := field(t, c, "size")

	assert.Equal(t,
		`?instance emf:size "5"^^xsd:long`,
		c.numberQuery(crit("size", criteria.OpEquals, "5"), size, "0_0_1"))
	assert.Equal(t,
		"?instance emf:size ?var0_0_1. \nMINUS { ?instance emf:size \"5\"^^xsd:long }",
		c.numberQuery(crit("size", criteria.OpNotEquals, "5"), size, "0_0_1"))
	assert.Equal(t,
		"?instance emf:size ?var0_0_1. \nFILTER (?var0_0_1 < 5)",
		c.numberQuery(crit("size", criteria.OpLowerThan, "5"), size, "0_0_1"))
	assert.Equal(t,
		"?instance emf:size ?var0_0_1. \nFILTER (?var0_0_1 > 5)",
		c.numberQuery(crit("size", criteria.OpGreaterThan, "5"), size, "0_0_1"))
	assert.Equal(t,
		"?instance emf:size ?var0_0_1 .\n FILTER (?var0_0_1 > 1 && ?var0_0_1 < 5)",
		c.numberQuery(crit("size", criteria.OpBetween, "1", "5"), size, "0_0_1"))
	assert.Equal(t,
		"?instance emf:size ?var0_0_1 .\n FILTER (?var0_0_1 < 5)",
		c.numberQuery(crit("size", criteria.OpBetween, "*", "5"), size, "0_0_1"))
}

func TestBooleanQuery(t *testing.T) {
	c := testCompiler(t)
	active := field(t, c, "active")

	assert.Equal(t,
		`?instance emf:active "true"^^xsd:boolean`,
		c.booleanQuery(crit("active", criteria.OpIs, "true"), active, "0_0_1"))
	assert.Equal(t,
		"OPTIONAL { ?instance emf:active ?var0_0_1 . ?instance emf:isDeleted ?var0_0_1Check .  } FILTER(!bound(?var0_0_1Check))",
		c.booleanQuery(crit("active", criteria.OpIs, "-1"), active, "0_0_1"))
	assert.Equal(t,
		"?instance emf:active ?var0_0_1",
		c.booleanQuery(crit("active", criteria.OpIsNot, "-1"), active, "0_0_1"))
	assert.Equal(t,
		`MINUS { ?instance emf:active "false"^^xsd:boolean }`,
		c.booleanQuery(crit("active", criteria.OpIsNot, "false"), active, "0_0_1"))
}

func TestObjectShortURIQuery(t *testing.T) {
	c := testCompiler(t)
	createdBy := field(t, c, "createdBy")

	got := c.objectShortURIQuery(crit("createdBy", criteria.OpIn, codec.CurrentUser), createdBy, "0_0_1")
	assert.Equal(t, " {  { ?instance emf:createdBy emf:admin }  } ", got)

	got = c.objectShortURIQuery(crit("createdBy", criteria.OpNotIn, "emf:john"), createdBy, "0_0_1")
	want := " OPTIONAL {  {  { ?instance emf:createdBy emf:john }  }  . ?instance emf:isDeleted ?var0_0_1emf_createdByCheck }" +
		" FILTER (!bound(?var0_0_1emf_createdByCheck))"
	assert.Equal(t, want, got)
}

func TestObjectFullURIQuery(t *testing.T) {
	c := testCompiler(t)

	got := c.objectFullURIQuery(crit("reference", criteria.OpIn, "http://ex.org/o#My Obj"), "0_0_1")
	assert.Equal(t, " {  { ?instance ?var0_0_1 <http://ex.org/o#My%20Obj> }  }", got)

	got = c.objectFullURIQuery(crit("reference", criteria.OpNotIn, "http://ex.org/o#a"), "0_0_1")
	want := " OPTIONAL {  {  { ?instance ?var0_0_1 <http://ex.org/o#a> }  } . ?instance emf:isDeleted ?var0_0_1Check }" +
		" FILTER (!bound(?var0_0_1Check))"
	assert.Equal(t, want, got)
}
