package schema

import (
	"fmt"
	"time"
)

const (
	// sourceLayout is the layout used by the vehicles, day first.
	// Fractional seconds are accepted by time.Parse even though the layout does not name them.
	sourceLayout = "02/01/2006 15:04:05"
	// outputLayout always carries milliseconds. Go truncates when formatting fractions.
	outputLayout = "2006-01-02 15:04:05.000"
)

// ParseTimestamp parses a source timestamp such as "15/01/2024 08:00:00.000".
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(sourceLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %v", s, err)
	}
	return t, nil
}

// FormatTimestamp renders t as "2024-01-15 08:00:00.000".
func FormatTimestamp(t time.Time) string {
	return t.Format(outputLayout)
}

// ReformatTimestamp converts a source timestamp to the output layout.
// An empty input gives an empty output.
func ReformatTimestamp(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t), nil
}
