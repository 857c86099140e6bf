package criteria

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sequences travel as flat JSON arrays: criterion rows are objects with a
// "field" key, conjunction markers are objects with only an "operator"
// key. Groups never appear on the wire; marshaling flattens them back to
// bracket counts first.

// MarshalJSON serializes the sequence in flat wire form.
func (s Sequence) MarshalJSON() ([]byte, error) {
	flat := Flatten(s)
	var b bytes.Buffer
	b.WriteByte('[')
	for i, n := range flat {
		if i > 0 {
			b.WriteByte(',')
		}
		var (
			raw []byte
			err error
		)
		switch v := n.(type) {
		case *Criterion:
			raw, err = json.Marshal(v)
		case *Conj:
			raw, err = json.Marshal(v)
		default:
			err = fmt.Errorf("criteria: cannot marshal node %T", n)
		}
		if err != nil {
			return nil, err
		}
		b.Write(raw)
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

// UnmarshalJSON parses the flat wire form. Elements carrying a "field"
// key become criterion rows, all others conjunction markers.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Sequence, 0, len(raws))
	for i, raw := range raws {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return fmt.Errorf("criteria: element %d: %w", i, err)
		}
		if _, ok := probe["field"]; ok {
			var c Criterion
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("criteria: element %d: %w", i, err)
			}
			out = append(out, &c)
			continue
		}
		var conj Conj
		if err := json.Unmarshal(raw, &conj); err != nil {
			return fmt.Errorf("criteria: element %d: %w", i, err)
		}
		out = append(out, &conj)
	}
	*s = out
	return nil
}
