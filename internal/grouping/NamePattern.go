// This file contains the name-pattern matcher: tokenizing, single-mismatch detection and token cleaning.

package grouping

import (
	"slices"
	"strings"
	"unicode"

	"github.com/jr-dreamview/ingest-bulk/internal/natsort"
)

// Delimiter separates the tokens of a node name.
const Delimiter = "_"

// Tokenize splits a node name on Delimiter. Empty tokens are kept so that token positions line up with the name.
func Tokenize(name string) []string {
	return strings.Split(name, Delimiter)
}

// MismatchIndex returns the position of the single token at which name1 and name2 differ.
// It reports false when the names are identical, have a different number of tokens or differ in more than one token.
func MismatchIndex(name1, name2 string) (int, bool) {
	if name1 == name2 {
		return 0, false
	}
	tokens1, tokens2 := Tokenize(name1), Tokenize(name2)
	if len(tokens1) != len(tokens2) {
		return 0, false
	}

	index := -1
	for i := range tokens1 {
		if tokens1[i] == tokens2[i] {
			continue
		}
		if index >= 0 {
			return 0, false
		}
		index = i
	}
	return index, index >= 0
}

// VersionMismatch is MismatchIndex restricted to version-like differences: it also reports false when the differing
// token of name2 is a plain word. "lilly" vs "weed" names two different things, "lamp" vs "lamp001" names two versions
// of one thing.
//
// Only name2 is checked. The sweep always passes the earlier node first, so "lamp" followed by "lamp001" matches.
func VersionMismatch(name1, name2 string) (int, bool) {
	index, ok := MismatchIndex(name1, name2)
	if !ok || isAlpha(Tokenize(name2)[index]) {
		return 0, false
	}
	return index, true
}

// CleanTokenAt removes the version marker held by the token at index and returns the cleaned copy of tokens.
//
//	["AE34", "002", "lilly", "01"]      3 -> ["AE34", "002", "lilly"]
//	["AE34", "002", "garden", "lamp001"] 3 -> ["AE34", "002", "garden", "lamp"]
//	["AE34", "002", "garden", "lamp"]    3 -> unchanged
//
// Plain words are kept, numbers are dropped (unless they are the only token) and mixed tokens lose their digit runs.
// The digit-stripped token is lower-cased unless preserveCase is set. An out of range index returns an unchanged copy.
func CleanTokenAt(tokens []string, index int, preserveCase bool) []string {
	cleaned := slices.Clone(tokens)
	if index < 0 || index >= len(cleaned) {
		return cleaned
	}
	token := cleaned[index]
	switch {
	case isAlpha(token):
		return cleaned
	case isNumeric(token):
		if len(cleaned) > 1 {
			cleaned = slices.Delete(cleaned, index, index+1)
		}
		return cleaned
	default:
		cleaned[index] = natsort.NewKey(token, preserveCase).Text()
		return cleaned
	}
}

// Family reports whether two names belong to the same naming family and returns the canonical key they share.
func Family(name1, name2 string, preserveCase bool) (string, bool) {
	index, ok := VersionMismatch(name1, name2)
	if !ok {
		return "", false
	}
	clean1 := CleanTokenAt(Tokenize(name1), index, preserveCase)
	clean2 := CleanTokenAt(Tokenize(name2), index, preserveCase)
	if !slices.Equal(clean1, clean2) {
		return "", false
	}
	return strings.Join(clean1, Delimiter), true
}

// isAlpha reports whether s is a non-empty run of letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// isNumeric reports whether s is a non-empty run of the digits 0-9.
// Other Unicode digits do not count; host asset names only use ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
