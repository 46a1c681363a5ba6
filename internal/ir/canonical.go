package ir

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON:
//   - object keys sorted by UTF-16 code units
//   - strings NFC normalized, no HTML escaping
//   - only quote, backslash and control characters are escaped
//
// This is the only serialization used for content hashes.
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Str:
		writeCanonicalString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	default:
		return fmt.Errorf("unsupported canonical value %T", v)
	}
	return nil
}

func writeCanonicalString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// OutlineValue converts an outline into its canonical value form. Sections
// become [label, node] pairs so declaration order survives key sorting.
func OutlineValue(g *Group) Value {
	sections := make(List, len(g.Sections))
	for i, s := range g.Sections {
		sections[i] = List{Str(s.Label), nodeValue(s.Node)}
	}
	return Object{"kind": Str("group"), "sections": sections}
}

func nodeValue(n Node) Value {
	switch v := n.(type) {
	case *Group:
		return OutlineValue(v)
	case *Leaf:
		obj := Object{"kind": Str("leaf"), "questions": StrList(v.Questions)}
		if len(v.Comments) > 0 {
			obj["comments"] = StrList(v.Comments)
		}
		return obj
	case *CommentBlock:
		return Object{"kind": Str("comments"), "fields": StrList(v.Fields)}
	default:
		return Object{"kind": Str("unknown")}
	}
}

// MarshalOutline returns the canonical JSON of an outline.
func MarshalOutline(g *Group) ([]byte, error) {
	return MarshalCanonical(OutlineValue(g))
}
