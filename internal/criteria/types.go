// Package criteria defines the criteria tree shared by the search
// compilers: the flat bracketed row form authored by the search UI, the
// normalized tree form consumed by compilers, and the transformations
// between them (normalization, bracket validation, flattening and
// sanitization).
package criteria

import "strings"

// Operator identifies a comparison applied by one criterion row. The set
// of operators a field offers depends on its value type; the compilers
// accept any operator on any type and render whatever combination they
// have a rule for.
type Operator string

const (
	OpContains          Operator = "CONTAINS"
	OpDoesNotContain    Operator = "DOES_NOT_CONTAIN"
	OpEquals            Operator = "EQUALS"
	OpNotEquals         Operator = "NOT_EQUALS"
	OpIn                Operator = "IN"
	OpNotIn             Operator = "NOT_IN"
	OpStartsWith        Operator = "STARTS_WITH"
	OpDoesNotStartWith  Operator = "DOES_NOT_START_WITH"
	OpEndsWith          Operator = "ENDS_WITH"
	OpDoesNotEndWith    Operator = "DOES_NOT_END_WITH"
	OpBetween           Operator = "BETWEEN"
	OpLowerThan         Operator = "LOWER_THAN"
	OpGreaterThan       Operator = "GREATER_THAN"
	OpIs                Operator = "IS"
	OpIsNot             Operator = "IS_NOT"
	OpIsAfter           Operator = "IS_AFTER"
	OpIsBefore          Operator = "IS_BEFORE"
	OpIsWithin          Operator = "IS_WITHIN"
	OpSetTo             Operator = "SET_TO"
	OpNotSetTo          Operator = "NOT_SET_TO"
	OpSetToSomeButNotTo Operator = "SET_TO_SOME_BUT_NOT_TO"
)

// Conjunction joins two adjacent criterion rows.
type Conjunction string

const (
	ConjAnd Conjunction = "AND"
	ConjOr  Conjunction = "OR"
)

// Criterion is one row of a flat criteria list: a field, an operator, the
// entered values and the bracket counts the author placed around the row.
// Row is the zero-based position inside its group and is used for error
// reporting.
type Criterion struct {
	Field         string   `json:"field"`
	Operator      Operator `json:"operator"`
	Values        []string `json:"values"`
	OpenBrackets  int      `json:"openBrackets,omitempty"`
	CloseBrackets int      `json:"closeBrackets,omitempty"`
	Row           int      `json:"row"`

	// DynamicCriteria carries the criteria of a nested object-picker
	// search; DynamicQuery is the registry key its compiled form is
	// stored under. DynamicQuery is volatile and never persisted.
	DynamicCriteria []GroupCriteria `json:"dynamicCriteria,omitempty"`
	DynamicQuery    string          `json:"dynamicQuery,omitempty"`
}

// HasValues reports whether the row carries at least one non-empty value.
// Rows without values are skipped by validation and compilation.
func (c *Criterion) HasValues() bool {
	for _, v := range c.Values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the criterion.
func (c *Criterion) Clone() *Criterion {
	cp := *c
	cp.Values = append([]string(nil), c.Values...)
	if c.DynamicCriteria != nil {
		cp.DynamicCriteria = make([]GroupCriteria, len(c.DynamicCriteria))
		for i, g := range c.DynamicCriteria {
			cp.DynamicCriteria[i] = g.Clone()
		}
	}
	return &cp
}

// Node is one element of a criteria sequence.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern enables exhaustive type switches in the
// backend compilers.
//
// Node types:
//   - Criterion: a criterion row
//   - Conj: the conjunction between two adjacent rows
//   - Group: a bracketed sub-sequence produced by Normalize
type Node interface {
	criteriaNode() // Marker method - seals interface to this package
}

func (*Criterion) criteriaNode() {}

// Conj is a conjunction marker sitting between two rows of a sequence.
type Conj struct {
	Operator Conjunction `json:"operator"`
}

func (*Conj) criteriaNode() {}

// Group is a bracketed sub-sequence. OpenBrackets and CloseBrackets hold
// the brackets left over after the pair that formed the group was
// consumed, so nested groups normalize on the next pass.
type Group struct {
	Criteria      Sequence
	OpenBrackets  int
	CloseBrackets int
}

func (*Group) criteriaNode() {}

// Sequence is an alternating list of rows (or groups) and conjunction
// markers: elements at even indices are rows or groups, elements at odd
// indices are conjunctions.
type Sequence []Node

// Clone returns a deep copy of the sequence.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	for i, n := range s {
		switch v := n.(type) {
		case *Criterion:
			out[i] = v.Clone()
		case *Conj:
			c := *v
			out[i] = &c
		case *Group:
			out[i] = &Group{
				Criteria:      v.Criteria.Clone(),
				OpenBrackets:  v.OpenBrackets,
				CloseBrackets: v.CloseBrackets,
			}
		}
	}
	return out
}

// GroupCriteria pairs a search group's object type with its criteria.
type GroupCriteria struct {
	ObjectType string   `json:"objectType"`
	Criteria   Sequence `json:"criteria"`
}

// Clone returns a deep copy of the group criteria.
func (g GroupCriteria) Clone() GroupCriteria {
	return GroupCriteria{ObjectType: g.ObjectType, Criteria: g.Criteria.Clone()}
}
