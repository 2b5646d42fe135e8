// This file contains the Key type and the comparison functions built on top of it.
//
// Windows sorts file names case-insensitively: ["abc1", "ABC2", "abc3"]. Go, Linux and most tools sort by code point:
// ["ABC2", "abc1", "abc3"]. Keys are case-insensitive by default to match what artists see in the host application.

package natsort

import (
	"slices"
	"strings"
)

// Kind tags a Segment as a digit run or a text run.
type Kind int

const (
	// Number segments order before Text segments when two keys disagree on kind at the same position.
	Number Kind = iota
	Text
)

// Segment is one run of a split string.
type Segment struct {
	Kind Kind
	// Value is the text as it will be compared. For Number segments it is the digit run without leading zeros.
	Value string
	// Raw is the run exactly as it appeared in the source string.
	Raw string
}

// Key is the sort key of a single string.
type Key []Segment

// Split splits s on maximal runs of decimal digits, keeping both the digit runs and the text in between.
// Like a capturing regexp split, the result always starts and ends with a text run, which may be empty:
//
//	"ab123cd" -> ["ab", "123", "cd"]
//	"123"     -> ["", "123", ""]
//	""        -> [""]
func Split(s string) []string {
	parts := []string{}
	start := 0
	inDigits := false
	for i, r := range s {
		digit := isDecimal(r)
		if digit == inDigits {
			continue
		}
		parts = append(parts, s[start:i])
		start = i
		inDigits = digit
	}
	parts = append(parts, s[start:])
	if inDigits {
		parts = append(parts, "")
	}
	return parts
}

// NewKey builds the natural sort key of s.
func NewKey(s string, caseSensitive bool) Key {
	parts := Split(s)
	key := make(Key, 0, len(parts))
	for _, part := range parts {
		if isDigits(part) {
			key = append(key, Segment{Kind: Number, Value: trimZeros(part), Raw: part})
			continue
		}
		value := part
		if !caseSensitive {
			value = strings.ToLower(part)
		}
		key = append(key, Segment{Kind: Text, Value: value, Raw: part})
	}
	return key
}

// Compare returns -1, 0 or +1 depending on whether k sorts before, equal to or after other.
// Keys are compared segment by segment; a key that is a prefix of the other sorts first.
func (k Key) Compare(other Key) int {
	for i := 0; i < len(k) && i < len(other); i++ {
		if c := compareSegment(k[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k) < len(other):
		return -1
	case len(k) > len(other):
		return 1
	}
	return 0
}

// Text returns the concatenation of the key's text segments, dropping every number.
// "lamp001" -> "lamp", "v2Lamp" -> "vlamp" for a case-insensitive key.
func (k Key) Text() string {
	var sb strings.Builder
	for _, seg := range k {
		if seg.Kind == Text {
			sb.WriteString(seg.Value)
		}
	}
	return sb.String()
}

// Compare compares two strings in case-insensitive natural order.
func Compare(a, b string) int {
	return NewKey(a, false).Compare(NewKey(b, false))
}

// CompareCase compares two strings in natural order, optionally case-sensitive.
func CompareCase(a, b string, caseSensitive bool) int {
	return NewKey(a, caseSensitive).Compare(NewKey(b, caseSensitive))
}

// Less reports whether a sorts before b in case-insensitive natural order.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Strings sorts s in place in case-insensitive natural order. The sort is stable.
func Strings(s []string) {
	Slice(s, func(v string) string { return v })
}

// Slice sorts s in place by the natural order of the name returned for each element. The sort is stable, so
// elements whose names compare equal ("01" and "1") keep their input order.
func Slice[T any](s []T, name func(T) string) {
	type item struct {
		key   Key
		value T
	}
	items := make([]item, len(s))
	for i, v := range s {
		items[i] = item{key: NewKey(name(v), false), value: v}
	}
	slices.SortStableFunc(items, func(a, b item) int {
		return a.key.Compare(b.key)
	})
	for i, it := range items {
		s[i] = it.value
	}
}

func compareSegment(a, b Segment) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	if a.Kind == Number {
		// Digit strings without leading zeros: longer is larger, equal length compares lexically.
		switch {
		case len(a.Value) < len(b.Value):
			return -1
		case len(a.Value) > len(b.Value):
			return 1
		}
	}
	return strings.Compare(a.Value, b.Value)
}

func trimZeros(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDecimal(r) {
			return false
		}
	}
	return true
}

// isDecimal matches [0-9] only; other Unicode digits are treated as text.
func isDecimal(r rune) bool {
	return r >= '0' && r <= '9'
}
