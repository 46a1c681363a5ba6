package engine

import "time"

// Clock supplies wall time for document dates, run records and the duration
// metric. Implemented by SystemClock (production) and FixedClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// RunMonth parses a run label of the form YYYY-MM.
func RunMonth(label string) (time.Time, error) {
	return time.Parse("2006-01", label)
}

// DocumentDate formats the date line of a report: the month of today when
// useToday is set, otherwise the month of the run label.
func DocumentDate(label string, useToday bool, clock Clock) (string, error) {
	if useToday {
		return clock.Now().Format("January 2006"), nil
	}
	t, err := RunMonth(label)
	if err != nil {
		return "", err
	}
	return t.Format("January 2006"), nil
}
