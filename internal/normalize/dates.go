package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

// Plausible bounds for any date appearing in the source publications. The
// program started in 2010s-era data; anything outside this window is an
// extraction artifact, not a real date.
const (
	MinYear = 2010
	MaxYear = 2030
)

var (
	eraDateRe   = regexp.MustCompile(`^([HR])(\d+)\.(\d+)\.(\d+)$`)
	slashDateRe = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
)

// ParseSourceDate parses a date in any accepted source format: ISO
// YYYY-MM-DD, YYYY/M/D, or Japanese era form H{y}.{m}.{d} (Heisei, base
// 1988) / R{y}.{m}.{d} (Reiwa, base 2018). The result is midnight UTC.
func ParseSourceDate(s string) (time.Time, error) {
	if m := eraDateRe.FindStringSubmatch(s); m != nil {
		base := 1988 // Heisei 1 = 1989
		if m[1] == "R" {
			base = 2018 // Reiwa 1 = 2019
		}
		year, _ := strconv.Atoi(m[2])
		month, _ := strconv.Atoi(m[3])
		day, _ := strconv.Atoi(m[4])
		return civilDate(base+year, month, day)
	}

	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return civilDate(year, month, day)
	}

	return time.Time{}, eris.Wrapf(ErrInvalidDate, "unrecognized date %q", s)
}

// NormalizeDate converts a source-format date to ISO form. Empty input
// stays empty.
func NormalizeDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	t, err := ParseSourceDate(s)
	if err != nil {
		return "", err
	}
	return model.FormatDate(t), nil
}

// YearInRange reports whether t falls inside the plausible source window.
func YearInRange(t time.Time) bool {
	return t.Year() >= MinYear && t.Year() <= MaxYear
}

func civilDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, eris.Wrapf(ErrInvalidDate, "out-of-range date %04d-%02d-%02d", year, month, day)
	}
	t, err := time.Parse(model.DateLayout, fmt.Sprintf("%04d-%02d-%02d", year, month, day))
	if err != nil {
		// Rejects impossible calendar dates such as Feb 30.
		return time.Time{}, eris.Wrapf(ErrInvalidDate, "impossible date %04d-%02d-%02d", year, month, day)
	}
	return t, nil
}
