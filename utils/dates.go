package utils

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts lists the accepted date formats, most specific first
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
}

// DateParseError is returned when a value matches none of the accepted date layouts
type DateParseError struct {
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unrecognized date %q (expected YYYY-MM-DD or RFC3339)", e.Value)
}

// ParseDate parses a date or timestamp string. Values without a zone are read as UTC.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, &DateParseError{Value: value}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateParseError{Value: value}
}

// ParseOptionalDate parses value and returns nil when it is empty or unparseable
func ParseOptionalDate(value string) *time.Time {
	t, err := ParseDate(value)
	if err != nil {
		return nil
	}
	return &t
}

// DaysBetween returns the number of whole days elapsed from then to now, floored.
// Negative spans (dates in the future) floor toward minus infinity like a calendar day count.
func DaysBetween(then, now time.Time) int {
	d := now.Sub(then)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
