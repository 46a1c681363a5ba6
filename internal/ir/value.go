package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the values canonical JSON accepts.
// There is no float and no null: hashes must not depend on number formatting.
type Value interface {
	value()
}

// Str is a string value.
type Str string

// Int is an integer value.
type Int int64

// Bool is a boolean value.
type Bool bool

// List is an ordered list of values.
type List []Value

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Str) value()    {}
func (Int) value()    {}
func (Bool) value()   {}
func (List) value()   {}
func (Object) value() {}

// StrList converts a string slice into a List of Str.
func StrList(ss []string) List {
	out := make(List, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units), which
// differs from Go's byte-wise string order outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
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
