package lint

import (
	"regexp"
	"strconv"
	"time"

	"github.com/rouki-watch/rouki-cli/internal/model"
	"github.com/rouki-watch/rouki-cli/internal/normalize"
)

var (
	excelSerialRe = regexp.MustCompile(`^\d{5}$`)
	embeddedEraRe = regexp.MustCompile(`[HR]\d+\.\d+\.\d+`)
)

// excelEpoch is the base date for Excel serial day numbers.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// FixDate reinterprets a malformed date value from a recognized format:
// a valid ISO date inside the plausible year window, a five-digit Excel
// serial (spreadsheet round-trips corrupt dates this way), or an era-form
// date buried in stray characters ("町 R5.10.19" → 2023-10-19). Values
// matching no pattern are not guessed.
func FixDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	if t, err := model.ParseDate(s); err == nil {
		if normalize.YearInRange(t) {
			return t, true
		}
		return time.Time{}, false
	}

	if excelSerialRe.MatchString(s) {
		serial, _ := strconv.Atoi(s)
		t := excelEpoch.AddDate(0, 0, serial)
		if normalize.YearInRange(t) {
			return t, true
		}
		return time.Time{}, false
	}

	cleaned := normalize.StripSpace(s)
	if m := embeddedEraRe.FindString(cleaned); m != "" {
		if t, err := normalize.ParseSourceDate(m); err == nil && normalize.YearInRange(t) {
			return t, true
		}
	}

	return time.Time{}, false
}
