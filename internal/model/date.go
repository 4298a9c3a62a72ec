package model

import "time"

// DateLayout is the ISO form every date in the ledger and change log uses.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO YYYY-MM-DD date. The returned time is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t as ISO YYYY-MM-DD. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from first to last.
func DaysBetween(first, last time.Time) int {
	return int(last.Sub(first).Hours() / 24)
}
