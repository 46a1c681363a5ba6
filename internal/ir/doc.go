// Package ir provides the shared data types for surveykn.
//
// This package holds question identifiers, the report outline, tabular survey
// datasets and their categorical distributions. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Question identifiers are exactly three symbols A-Z and never reused
//   - Outline nodes are a closed set decided once at compile time
//   - Wordings are compared only after CanonicalWording (trim + NFC)
//   - Canonical JSON (sorted keys, NFC strings, no floats) is the only
//     serialization used for content hashes
package ir
