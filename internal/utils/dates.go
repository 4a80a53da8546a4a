package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	// DisplayDateLayout matches the short en-US date the dashboard shows (M/D/YYYY).
	DisplayDateLayout = "1/2/2006"
)

// ParseDate accepts a calendar date (YYYY-MM-DD, read as UTC midnight) or an
// RFC 3339 timestamp.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", value)
	}
	return t.UTC(), nil
}

// TotalDays counts the started 24 hour periods between start and end. A range
// shorter than a day still counts as one day; end must be after start.
func TotalDays(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("end date must be after start date")
	}
	d := end.Sub(start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days, nil
}

// FormatAmount renders minor currency units as a decimal string, e.g. 12345 -> "123.45".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
