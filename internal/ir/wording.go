package ir

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalWording is the comparison form of a question wording: surrounding
// whitespace trimmed and NFC normalized. Two wordings refer to the same
// question text iff their canonical forms are equal.
func CanonicalWording(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ordinalPrefix matches the numbering survey exports put before a question.
var ordinalPrefix = regexp.MustCompile(`^\s*[0-9]+\s*\)\s*`)

// CanonicalColumn derives a wording from a raw survey column header.
//
// Survey exports number their questions ("2) Do you like pizza?"). One such
// prefix is dropped before the wording is canonicalized; digits that are not
// followed by ')' belong to the wording.
func CanonicalColumn(header string) string {
	return CanonicalWording(ordinalPrefix.ReplaceAllString(header, ""))
}
