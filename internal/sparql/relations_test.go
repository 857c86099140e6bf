package sparql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/semsearch/semsearch/internal/catalog"
	"github.com/semsearch/semsearch/internal/codec"
	"github.com/semsearch/semsearch/internal/criteria"
)

func TestExtractAnyObject(t *testing.T) {
	values, ok := extractAnyObject([]string{"emf:1", codec.AnyObject, "emf:2"})
	assert.True(t, ok)
	assert.Equal(t, []string{"emf:1", "emf:2"}, values)

	values, ok = extractAnyObject([]string{"emf:1"})
	assert.False(t, ok)
	assert.Equal(t, []string{"emf:1"}, values)
}

func TestRelationQuerySetTo(t *testing.T) {
	c := testCompiler(t)
	hasChild := field(t, c, "hasChild")

	got := c.relationQuery(crit("hasChild", criteria.OpSetTo, "emf:123"), hasChild, "0_0_1")
	assert.Equal(t, "{  { ?instance emf:hasChild emf:123 }  }", got)

	got = c.relationQuery(crit("hasChild", criteria.OpSetTo, "emf:1", "emf:2"), hasChild, "0_0_1")
	assert.Equal(t, "{  { ?instance emf:hasChild emf:1 }  UNION\n { ?instance emf:hasChild emf:2 }  }", got)

	got = c.relationQuery(crit("hasChild", criteria.OpSetTo, codec.AnyObject), hasChild, "0_0_1")
	assert.Equal(t, "?instance emf:hasChild ?var0_0_1", got)
}

func TestRelationQueryAnyRelation(t *testing.T) {
	c := testCompiler(t)
	anyRel := field(t, c, catalog.AnyRelation)

	got := c.relationQuery(crit(catalog.AnyRelation, criteria.OpSetTo, codec.AnyObject), anyRel, "0_0_1")
	assert.Equal(t, "?var0_0_1_rel a owl:ObjectProperty .\n?instance ?var0_0_1_rel ?var0_0_1", got)

	got = c.relationQuery(crit(catalog.AnyRelation, criteria.OpSetTo, "emf:123"), anyRel, "0_0_1")
	assert.Equal(t, "?var0_0_1_rel a owl:ObjectProperty .\n{  { ?instance ?var0_0_1_rel emf:123 }  }", got)
}

func TestRelationQueryNotSetTo(t *testing.T) {
	c := testCompiler(t)
	hasChild := field(t, c, "hasChild")

	got := c.relationQuery(crit("hasChild", criteria.OpNotSetTo, "emf:123"), hasChild, "0_0_1")
	want := "OPTIONAL {  { ?instance emf:hasChild emf:123 }  . ?instance emf:isDeleted ?var0_0_1Check .  }" +
		" FILTER(!bound(?var0_0_1Check))"
	assert.Equal(t, want, got)

	got = c.relationQuery(crit("hasChild", criteria.OpNotSetTo, codec.AnyObject), hasChild, "0_0_1")
	want = "OPTIONAL {  ?instance emf:hasChild ?var0_0_1 . ?instance emf:isDeleted ?var0_0_1Check .  }" +
		" FILTER(!bound(?var0_0_1Check))"
	assert.Equal(t, want, got)
}

func TestRelationQuerySetToSomeButNotTo(t *testing.T) {
	c := testCompiler(t)
	hasChild := field(t, c, "hasChild")

	got := c.relationQuery(crit("hasChild", criteria.OpSetToSomeButNotTo, "emf:123"), hasChild, "0_0_1")
	want := "?instance emf:hasChild ?var0_0_1 .\n" +
		"OPTIONAL {  { ?instance emf:hasChild emf:123 }  . ?instance emf:isDeleted ?var0_0_1Check .  }" +
		" FILTER(!bound(?var0_0_1Check))"
	assert.Equal(t, want, got)
}

func TestRelationQueryDynamicValue(t *testing.T) {
	c := testCompiler(t)
	hasChild := field(t, c, "hasChild")

	row := crit("hasChild", criteria.OpSetTo, "dynamicQuery_1")
	row.DynamicCriteria = []criteria.GroupCriteria{{ObjectType: "emf:Case"}}
	row.DynamicQuery = " { ?instance a emf:Case } "

	got := c.relationQuery(row, hasChild, "0_0_1")
	// The nested query is renamed to its own instance variable and
	// spliced after the relation pattern; the dynamic value closes one
	// brace of its own, so the opening stays unclosed here.
	want := "{  { ?instance emf:hasChild ?instance0_0_1 } .  { ?instance0_0_1 a emf:Case }  } "
	assert.Equal(t, want, got)
}

func TestRelationQueryContextValues(t *testing.T) {
	c := testCompiler(t)
	c.Breadcrumb = []ContextEntry{
		{ID: "emf:project-1", Type: "projectinstance"},
		{ID: "emf:case-7", Type: "caseinstance"},
	}
	hasChild := field(t, c, "hasChild")

	got := c.relationQuery(crit("hasChild", criteria.OpSetTo, codec.ContextCurrentProject), hasChild, "0_0_1")
	assert.Equal(t, "{  { ?instance emf:hasChild emf:project-1 }  }", got)

	got = c.relationQuery(crit("hasChild", criteria.OpSetTo, codec.ContextCurrentObject), hasChild, "0_0_1")
	assert.Equal(t, "{  { ?instance emf:hasChild emf:case-7 }  }", got)
}

func TestReplaceContextValues(t *testing.T) {
	c := testCompiler(t)
	c.Breadcrumb = []ContextEntry{
		{ID: "emf:project-1", Type: "projectinstance"},
		{ID: "emf:case-7", Type: "caseinstance"},
	}

	got := c.replaceContextValues([]string{
		codec.ContextCurrentProject,
		codec.ContextCurrentCase,
		codec.ContextCurrentObject,
		"emf:untouched",
	})
	assert.Equal(t, []string{"emf:project-1", "emf:case-7", "emf:case-7", "emf:untouched"}, got)

	// Placeholders the breadcrumb cannot satisfy are dropped.
	c.Breadcrumb = nil
	got = c.replaceContextValues([]string{codec.ContextCurrentProject, "emf:kept"})
	assert.Equal(t, []string{"emf:kept"}, got)
}
