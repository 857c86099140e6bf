package criteria

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Saved filters are content addressed: the filter id is a hash of the
// canonical JSON of the sanitized criteria. Canonical JSON follows RFC
// 8785: object keys sorted by UTF-16 code units, strings NFC normalized,
// no HTML escaping. Two filters that differ only in row ordering of an
// unordered map or in Unicode normalization of a value hash identically.

// filterIDDomain separates filter hashes from any other sha256 use.
// The version suffix allows a future algorithm change.
const filterIDDomain = "semsearch/filter/v1"

// FilterIDPrefix prefixes every computed filter id.
const FilterIDPrefix = "flt_"

// MarshalCanonical produces canonical JSON bytes for the sanitized group
// criteria. Only this serialization feeds FilterID.
func MarshalCanonical(groups []GroupCriteria) ([]byte, error) {
	wire, err := json.Marshal(groups)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(wire))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return canonicalValue(v)
}

// FilterID computes the content-addressed id of a saved filter.
// Format: "flt_" + hex(SHA256(domain + 0x00 + canonicalJSON)).
// The null separator prevents domain/data boundary ambiguity.
func FilterID(groups []GroupCriteria) (string, error) {
	canonical, err := MarshalCanonical(Sanitize(groups))
	if err != nil {
		return "", fmt.Errorf("FilterID: failed to marshal: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(filterIDDomain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return FilterIDPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

func canonicalValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case json.Number:
		return []byte(val.String()), nil
	case string:
		return canonicalString(val)
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := canonicalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		return canonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func canonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := canonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := canonicalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// canonicalString serializes with NFC normalization and without HTML
// escaping, per RFC 8785.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

// compareUTF16 compares strings by UTF-16 code units as RFC 8785
// requires. Go's native string comparison uses UTF-8 bytes, which orders
// surrogate-pair characters differently.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
