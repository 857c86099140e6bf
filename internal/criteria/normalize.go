package criteria

import (
	"errors"
	"fmt"
)

// BracketErrorCode categorizes bracket balance errors.
type BracketErrorCode string

const (
	// ErrCodeTooManyClosing indicates a closing bracket with no matching
	// opening bracket before it.
	ErrCodeTooManyClosing BracketErrorCode = "TOO_MANY_CLOSING_BRACKETS"

	// ErrCodeTooManyOpening indicates an opening bracket that is never
	// closed.
	ErrCodeTooManyOpening BracketErrorCode = "TOO_MANY_OPENING_BRACKETS"
)

// BracketError reports unbalanced brackets in a criteria sequence. Row is
// the zero-based row the imbalance was detected at, so the UI can mark
// the offending input.
type BracketError struct {
	Code BracketErrorCode
	Row  int
}

// Error implements the error interface.
func (e *BracketError) Error() string {
	switch e.Code {
	case ErrCodeTooManyClosing:
		return fmt.Sprintf("%s: too many closing brackets at row %d", e.Code, e.Row)
	case ErrCodeTooManyOpening:
		return fmt.Sprintf("%s: too many opening brackets at row %d", e.Code, e.Row)
	}
	return fmt.Sprintf("%s: unbalanced brackets at row %d", e.Code, e.Row)
}

// IsBracketError returns true if the error is a bracket balance error.
// Uses errors.As to handle wrapped errors.
func IsBracketError(err error) bool {
	var be *BracketError
	return errors.As(err, &be)
}

func nodeOpen(n Node) int {
	switch v := n.(type) {
	case *Criterion:
		return v.OpenBrackets
	case *Group:
		return v.OpenBrackets
	}
	return 0
}

func nodeClose(n Node) int {
	switch v := n.(type) {
	case *Criterion:
		return v.CloseBrackets
	case *Group:
		return v.CloseBrackets
	}
	return 0
}

// nodeRow digs to the first criterion row a node covers.
func nodeRow(n Node) int {
	switch v := n.(type) {
	case *Criterion:
		return v.Row
	case *Group:
		if len(v.Criteria) > 0 {
			return nodeRow(v.Criteria[0])
		}
	}
	return 0
}

// Normalize turns a flat bracketed sequence into a tree of groups. Each
// pass finds the innermost bracketed span: the last element with open
// brackets before the first element with close brackets. That span is
// lifted into a Group, the matched pair count (the smaller of the two
// ends) is consumed and any residual brackets move onto the group so
// outer pairs resolve on later passes. Passes repeat until no close
// brackets remain.
//
// The input is not modified. A close bracket with no preceding open
// bracket, or an open bracket that is never closed, yields a
// *BracketError naming the offending row.
func Normalize(seq Sequence) (Sequence, error) {
	return normalize(seq.Clone())
}

func normalize(seq Sequence) (Sequence, error) {
	lastOpen := -1
	firstClose := -1
	for i := 0; i < len(seq); i += 2 {
		if nodeOpen(seq[i]) > 0 {
			lastOpen = i
		}
		if nodeClose(seq[i]) > 0 {
			if lastOpen == -1 {
				return nil, &BracketError{Code: ErrCodeTooManyClosing, Row: nodeRow(seq[i])}
			}
			firstClose = i
			break
		}
	}
	if firstClose == -1 {
		for i := len(seq) - 1; i >= 0; i-- {
			if nodeOpen(seq[i]) > 0 {
				return nil, &BracketError{Code: ErrCodeTooManyOpening, Row: nodeRow(seq[i])}
			}
		}
		return seq, nil
	}

	inner := seq[lastOpen : firstClose+1]
	first := inner[0]
	last := inner[len(inner)-1]
	consumed := min(nodeOpen(first), nodeClose(last))
	group := &Group{
		Criteria:      inner,
		OpenBrackets:  nodeOpen(first) - consumed,
		CloseBrackets: nodeClose(last) - consumed,
	}
	setOpen(first, 0)
	setClose(last, 0)

	rebuilt := make(Sequence, 0, len(seq)-len(inner)+1)
	rebuilt = append(rebuilt, seq[:lastOpen]...)
	rebuilt = append(rebuilt, group)
	rebuilt = append(rebuilt, seq[firstClose+1:]...)
	return normalize(rebuilt)
}

func setOpen(n Node, v int) {
	switch t := n.(type) {
	case *Criterion:
		t.OpenBrackets = v
	case *Group:
		t.OpenBrackets = v
	}
}

func setClose(n Node, v int) {
	switch t := n.(type) {
	case *Criterion:
		t.CloseBrackets = v
	case *Group:
		t.CloseBrackets = v
	}
}

// ValidateBrackets checks bracket balance of a flat sequence without
// building the tree. Rows with no values are ignored, matching what the
// compilers will later skip. A close count larger than the top of the
// open stack cascades into older opens.
func ValidateBrackets(seq Sequence) error {
	type open struct {
		row   int
		count int
	}
	var stack []open
	for i := 0; i < len(seq); i += 2 {
		c, ok := seq[i].(*Criterion)
		if !ok {
			continue
		}
		if !c.HasValues() {
			continue
		}
		if c.OpenBrackets > 0 {
			stack = append(stack, open{row: c.Row, count: c.OpenBrackets})
		}
		remaining := c.CloseBrackets
		for remaining > 0 {
			if len(stack) == 0 {
				return &BracketError{Code: ErrCodeTooManyClosing, Row: c.Row}
			}
			top := &stack[len(stack)-1]
			if top.count > remaining {
				top.count -= remaining
				remaining = 0
			} else {
				remaining -= top.count
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) > 0 {
		return &BracketError{Code: ErrCodeTooManyOpening, Row: stack[len(stack)-1].row}
	}
	return nil
}

// Flatten is the inverse of Normalize up to redundant brackets: every
// group contributes one bracket pair plus whatever residual brackets it
// still carries. The result contains no Group nodes and always passes
// ValidateBrackets.
func Flatten(seq Sequence) Sequence {
	out := make(Sequence, 0, len(seq))
	for _, n := range seq {
		switch v := n.(type) {
		case *Group:
			inner := Flatten(v.Criteria)
			if len(inner) == 0 {
				continue
			}
			addOpen(inner[0], v.OpenBrackets+1)
			addClose(inner[len(inner)-1], v.CloseBrackets+1)
			out = append(out, inner...)
		case *Criterion:
			out = append(out, v.Clone())
		case *Conj:
			c := *v
			out = append(out, &c)
		}
	}
	return out
}

func addOpen(n Node, v int) {
	if c, ok := n.(*Criterion); ok {
		c.OpenBrackets += v
	}
}

func addClose(n Node, v int) {
	if c, ok := n.(*Criterion); ok {
		c.CloseBrackets += v
	}
}

// PruneEmpty drops rows without values together with their adjacent
// conjunction markers, and groups left empty by the pruning. The result
// keeps the alternating row/conjunction shape.
func PruneEmpty(seq Sequence) Sequence {
	out := make(Sequence, 0, len(seq))
	for i := 0; i < len(seq); i += 2 {
		var kept Node
		switch v := seq[i].(type) {
		case *Criterion:
			if v.HasValues() {
				kept = v
			}
		case *Group:
			inner := PruneEmpty(v.Criteria)
			if len(inner) > 0 {
				kept = &Group{Criteria: inner, OpenBrackets: v.OpenBrackets, CloseBrackets: v.CloseBrackets}
			}
		}
		if kept == nil {
			continue
		}
		if len(out) > 0 && i > 0 {
			if conj, ok := seq[i-1].(*Conj); ok {
				out = append(out, conj)
			}
		}
		out = append(out, kept)
	}
	return out
}
