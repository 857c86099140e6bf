package sparql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/criteria"
	"github.com/semsearch/semsearch/internal/harness"
)

func testTaxonomy() *catalog.Taxonomy {
	tax := catalog.BuildTaxonomy([]catalog.ObjectTypeRecord{
		{Name: "projects", ObjectType: "category"},
		{Name: "PR0001", ObjectType: "definition"},
		{Name: "emf:Document", ObjectType: "class", URI: "http://example.org/emf#Document"},
	})
	return &tax
}

func TestCompileCriteriaAssembly(t *testing.T) {
	c := testCompiler(t)

	t.Run("empty", func(t *testing.T) {
		got, err := c.CompileCriteria(criteria.Sequence{}, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("single row wraps once", func(t *testing.T) {
		got, err := c.CompileCriteria(criteria.Sequence{
			crit("size", criteria.OpEquals, "5"),
		}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, ` { ?instance emf:size "5"^^xsd:long } `, got)
	})

	t.Run("and joins patterns", func(t *testing.T) {
		got, err := c.CompileCriteria(criteria.Sequence{
			crit("size", criteria.OpEquals, "1"),
			conj(criteria.ConjAnd),
			crit("size", criteria.OpEquals, "2"),
		}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t,
			" { ?instance emf:size \"1\"^^xsd:long .\n ?instance emf:size \"2\"^^xsd:long } ",
			got)
	})

	t.Run("or unions runs", func(t *testing.T) {
		got, err := c.CompileCriteria(criteria.Sequence{
			crit("size", criteria.OpEquals, "1"),
			conj(criteria.ConjOr),
			crit("size", criteria.OpEquals, "2"),
		}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t,
			" { ?instance emf:size \"1\"^^xsd:long } \n UNION \n { ?instance emf:size \"2\"^^xsd:long } ",
			got)
	})

	t.Run("variables are positional", func(t *testing.T) {
		got, err := c.CompileCriteria(criteria.Sequence{
			crit("title", criteria.OpContains, "a"),
			conj(criteria.ConjAnd),
			crit("title", criteria.OpContains, "b"),
		}, 2, 1)
		require.NoError(t, err)
		assert.Contains(t, got, "?var2_0_2")
		assert.Contains(t, got, "?var2_2_2")
	})

	t.Run("groups nest as graph patterns", func(t *testing.T) {
		got, err := c.CompileCriteria(criteria.Sequence{
			&criteria.Group{Criteria: criteria.Sequence{
				crit("size", criteria.OpEquals, "1"),
			}},
			conj(criteria.ConjAnd),
			crit("size", criteria.OpEquals, "2"),
		}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t,
			" {  {  { ?instance emf:size \"1\"^^xsd:long }  } .\n ?instance emf:size \"2\"^^xsd:long } ",
			got)
	})

	t.Run("valueless rows are skipped", func(t *testing.T) {
		got, err := c.CompileCriteria(criteria.Sequence{
			crit("size", criteria.OpEquals, "1"),
			conj(criteria.ConjAnd),
			crit("title", criteria.OpContains),
		}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, ` { ?instance emf:size "1"^^xsd:long } `, got)
	})
}

func TestCompileGroup(t *testing.T) {
	tax := testTaxonomy()
	c := testCompiler(t)

	t.Run("empty object type yields nothing", func(t *testing.T) {
		got, err := c.CompileGroup("", criteria.Sequence{crit("size", criteria.OpEquals, "1")}, tax, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unrestricted type compiles criteria without a type clause", func(t *testing.T) {
		got, err := c.CompileGroup(catalog.ObjectTypeAll, criteria.Sequence{
			crit("size", criteria.OpEquals, "1"),
		}, tax, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, ` {  { ?instance emf:size "1"^^xsd:long }  }`, got)
	})

	t.Run("semantic type matches rdf:type", func(t *testing.T) {
		got, err := c.CompileGroup("emf:Document", criteria.Sequence{}, tax, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, " { {  { ?instance rdf:type emf:Document }  }  .\n }", got)
	})

	t.Run("definition type matches parent class and emf:type", func(t *testing.T) {
		got, err := c.CompileGroup("PR0001", criteria.Sequence{}, tax, 0, 0)
		require.NoError(t, err)
		assert.Equal(t,
			" { {  { ?instance rdf:type projects . ?instance emf:type \"PR0001\" }  }  .\n }",
			got)
	})

	t.Run("entirely empty group yields nothing", func(t *testing.T) {
		got, err := c.CompileGroup(catalog.ObjectTypeAll, criteria.Sequence{}, tax, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestBuildFullQuery(t *testing.T) {
	assert.Equal(t, "", BuildFullQuery(nil))
	assert.Equal(t, "", BuildFullQuery([]string{"", ""}))
	assert.Equal(t,
		" { q1 } $permissions_block$instance \n",
		BuildFullQuery([]string{" { q1 }"}))
	assert.Equal(t,
		" { q1 }\n UNION \n { q2 } $permissions_block$instance \n",
		BuildFullQuery([]string{" { q1 }", "", " { q2 }"}))
}

func TestReplaceInnerInstanceNames(t *testing.T) {
	got := ReplaceInnerInstanceNames(" ?instance a emf:Case . $instance ", "1_2_3")
	assert.Equal(t, " ?instance1_2_3 a emf:Case . $instance1_2_3 ", got)

	// Without surrounding whitespace the subject is left alone.
	got = ReplaceInnerInstanceNames("?instanceX", "1_2_3")
	assert.Equal(t, "?instanceX", got)
}

func TestCompileGroupGolden(t *testing.T) {
	tax := testTaxonomy()
	c := testCompiler(t)

	group, err := c.CompileGroup(catalog.ObjectTypeAll, criteria.Sequence{
		crit("title", criteria.OpContains, "report"),
		conj(criteria.ConjAnd),
		crit("size", criteria.OpEquals, "5"),
	}, tax, 0, 0)
	require.NoError(t, err)

	harness.AssertGoldenQuery(t, "sparql_keyword_and_number", BuildFullQuery([]string{group}))
}
