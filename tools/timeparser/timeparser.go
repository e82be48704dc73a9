package timeparser

import (
	"fmt"
	"strings"
	"time"
)

// WireDateLayout is the date format the REST service stores
const WireDateLayout = "2006-01-02"

// ParseFormDate attempts to parse a user supplied date with multiple formats
func ParseFormDate(dateStr string) (time.Time, error) {
	formats := []string{
		WireDateLayout, // YYYY-MM-DD, what a date input produces
		"02/01/2006",   // DD/MM/YYYY
		time.RFC3339,   // Standard RFC3339
	}

	dateStr = strings.TrimSpace(dateStr)

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", dateStr, lastErr)
}

// NormalizeDate converts any accepted date format to the wire layout.
// Blank input stays blank.
func NormalizeDate(dateStr string) (string, error) {
	if strings.TrimSpace(dateStr) == "" {
		return "", nil
	}
	t, err := ParseFormDate(dateStr)
	if err != nil {
		return "", err
	}
	return t.Format(WireDateLayout), nil
}
