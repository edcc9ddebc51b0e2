package idcard

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Unparseable is returned by FormatDate for input in no known shape.
const Unparseable = "Invalid Date"

const canonicalLayout = "01/02/2006"

var (
	numericDateRe = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})$`)
	textDateRe    = regexp.MustCompile(`^(\d{1,2})\s+([A-Z]{3})\s+(\d{4})$`)
	isoDateRe     = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)

	monthNumbers = map[string]string{
		"JAN": "01", "FEB": "02", "MAR": "03", "APR": "04",
		"MAY": "05", "JUN": "06", "JUL": "07", "AUG": "08",
		"SEP": "09", "OCT": "10", "NOV": "11", "DEC": "12",
	}
)

// FormatDate converts D/D/Y(Y), D MMM YYYY or YYYY-M-D into MM/DD/YYYY.
// In the first shape a leading group above 12 is read as the day; two-digit
// years get a "20" prefix. Unknown month abbreviations become 01.
func FormatDate(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		first, second, year := m[1], m[2], m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		if atoi(first) > 12 {
			first, second = second, first
		}
		return fmt.Sprintf("%s/%s/%s", pad2(first), pad2(second), year)
	}

	if m := textDateRe.FindStringSubmatch(s); m != nil {
		month, ok := monthNumbers[m[2]]
		if !ok {
			month = "01"
		}
		return fmt.Sprintf("%s/%s/%s", month, pad2(m[1]), m[3])
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s/%s/%s", pad2(m[2]), pad2(m[3]), m[1])
	}

	return Unparseable
}

// ParseDate normalizes s and parses it as a calendar date (UTC).
func ParseDate(s string) (time.Time, bool) {
	formatted := FormatDate(s)
	if formatted == Unparseable {
		return time.Time{}, false
	}
	t, err := time.Parse(canonicalLayout, formatted)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CalculateAge returns full years between the date of birth and now.
func CalculateAge(dateOfBirth string, now time.Time) (int, bool) {
	birth, ok := ParseDate(dateOfBirth)
	if !ok {
		return 0, false
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, true
}

// IsExpired reports whether the date lies before today. Unparseable dates
// are never expired.
func IsExpired(date string, now time.Time) bool {
	expiry, ok := ParseDate(date)
	if !ok {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return expiry.Before(today)
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
