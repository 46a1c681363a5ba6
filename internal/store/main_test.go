package store

import (
	"testing"

	"go.uber.org/goleak"
)

// Every test closes the archives it opens; a leaked connection goroutine
// fails the package.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
