package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/surveykn/internal/ir"
)

const timeLayout = time.RFC3339Nano

// marshalStrings converts a string list to canonical JSON TEXT for storage.
func marshalStrings(ss []string) (string, error) {
	data, err := ir.MarshalCanonical(ir.StrList(ss))
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings parses a JSON array TEXT. Returns an empty slice, never nil.
func unmarshalStrings(data string) ([]string, error) {
	out := []string{}
	if data == "" || data == "[]" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return out, nil
}

func questionIDStrings(ids []ir.QuestionID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
