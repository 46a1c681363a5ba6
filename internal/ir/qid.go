package ir

import "fmt"

// QuestionID is a three-symbol base-26 identifier ("AAA".."ZZZ").
// Once allocated it names a question permanently.
type QuestionID string

const (
	// MinQuestionID is the first identifier ever allocated.
	MinQuestionID QuestionID = "AAA"
	// MaxQuestionID is the last addressable identifier.
	MaxQuestionID QuestionID = "ZZZ"
	// QuestionIDSpace is the number of addressable identifiers (26^3).
	QuestionIDSpace = 26 * 26 * 26
)

const qidLen = 3

// ParseQuestionID validates s as a question identifier.
func ParseQuestionID(s string) (QuestionID, error) {
	id := QuestionID(s)
	if !id.Valid() {
		return "", fmt.Errorf("invalid question id %q: want three letters A-Z", s)
	}
	return id, nil
}

// Valid reports whether id is exactly three symbols in A-Z.
func (id QuestionID) Valid() bool {
	if len(id) != qidLen {
		return false
	}
	for i := 0; i < qidLen; i++ {
		if id[i] < 'A' || id[i] > 'Z' {
			return false
		}
	}
	return true
}

func (id QuestionID) String() string {
	return string(id)
}

// Increment returns the successor of id, carrying from the rightmost symbol
// to the leftmost: "AAZ" -> "ABA", "AZZ" -> "BAA".
//
// Increment panics on MaxQuestionID or a malformed id. Callers guard overflow
// through the question store's capacity check.
func Increment(id QuestionID) QuestionID {
	mustValid(id)
	if id == MaxQuestionID {
		panic("ir: Increment overflow at " + string(id))
	}
	b := []byte(id)
	for i := qidLen - 1; i >= 0; i-- {
		if b[i] != 'Z' {
			b[i]++
			return QuestionID(b)
		}
		b[i] = 'A'
	}
	return QuestionID(b)
}

// Decrement is the inverse of Increment: "ABA" -> "AAZ", "BAA" -> "AZZ".
//
// Decrement panics on MinQuestionID or a malformed id.
func Decrement(id QuestionID) QuestionID {
	mustValid(id)
	if id == MinQuestionID {
		panic("ir: Decrement underflow at " + string(id))
	}
	b := []byte(id)
	for i := qidLen - 1; i >= 0; i-- {
		if b[i] != 'A' {
			b[i]--
			return QuestionID(b)
		}
		b[i] = 'Z'
	}
	return QuestionID(b)
}

// Ordinal returns the zero-based allocation position of id ("AAA" = 0).
func Ordinal(id QuestionID) int {
	mustValid(id)
	n := 0
	for i := 0; i < qidLen; i++ {
		n = n*26 + int(id[i]-'A')
	}
	return n
}

// QuestionIDFromOrdinal is the inverse of Ordinal.
func QuestionIDFromOrdinal(n int) (QuestionID, error) {
	if n < 0 || n >= QuestionIDSpace {
		return "", fmt.Errorf("ordinal %d out of range [0, %d)", n, QuestionIDSpace)
	}
	b := make([]byte, qidLen)
	for i := qidLen - 1; i >= 0; i-- {
		b[i] = byte('A' + n%26)
		n /= 26
	}
	return QuestionID(b), nil
}

func mustValid(id QuestionID) {
	if !id.Valid() {
		panic(fmt.Sprintf("ir: malformed question id %q", string(id)))
	}
}
