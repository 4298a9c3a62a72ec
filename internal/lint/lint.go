// Package lint validates ledger invariants and, on request, repairs what
// can be repaired from recognizable patterns. Anything outside a known
// pattern is reported, never guessed.
package lint

import (
	"fmt"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/rouki-watch/rouki-cli/internal/ledger"
	"github.com/rouki-watch/rouki-cli/internal/model"
	"github.com/rouki-watch/rouki-cli/internal/normalize"
)

// maxCompanyNameRunes is the length above which a company name is flagged
// as implausibly long (usually a summary cell bled into the name column).
const maxCompanyNameRunes = 60

// Checks toggles individual lint checks. The zero value disables
// everything; use DefaultChecks for the full pass.
type Checks struct {
	Dates              bool
	CompanyName        bool
	Boilerplate        bool
	LocationWhitespace bool
	GarbledLocation    bool
	LongCompanyName    bool
	Integrity          bool
}

// DefaultChecks enables every check.
func DefaultChecks() Checks {
	return Checks{
		Dates:              true,
		CompanyName:        true,
		Boilerplate:        true,
		LocationWhitespace: true,
		GarbledLocation:    true,
		LongCompanyName:    true,
		Integrity:          true,
	}
}

// Linter scans and repairs a loaded ledger. The corruption table is
// injected configuration, shared with the normalizer.
type Linter struct {
	Checks Checks
	Table  normalize.CorruptionTable
}

// New creates a Linter with the given corruption table and checks.
func New(table normalize.CorruptionTable, checks Checks) *Linter {
	if table == nil {
		table = normalize.CorruptionTable{}
	}
	return &Linter{Checks: checks, Table: table}
}

// Scan reports every issue in the ledger and its malformed rows without
// modifying anything.
func (l *Linter) Scan(led *ledger.Ledger, malformed []ledger.MalformedRow) []model.Issue {
	_, issues := l.run(led, malformed, false)
	return issues
}

// Repair re-runs the scan and, when fix is true, returns a corrected
// ledger: auto-fixable issues applied, unfixable error rows dropped (and
// marked Dropped in the returned issues). With fix false it behaves like
// Scan and returns the input ledger unchanged.
//
// Repair never writes to disk; making a backup before persisting the
// result is the caller's contract.
func (l *Linter) Repair(led *ledger.Ledger, malformed []ledger.MalformedRow, fix bool) (*ledger.Ledger, []model.Issue) {
	return l.run(led, malformed, fix)
}

func (l *Linter) run(led *ledger.Ledger, malformed []ledger.MalformedRow, fix bool) (*ledger.Ledger, []model.Issue) {
	var issues []model.Issue
	out := ledger.New()

	for _, rec := range led.All() {
		fixed, recIssues, drop := l.checkRecord(rec, fix)
		issues = append(issues, recIssues...)
		if fix && drop {
			continue
		}
		if !fix {
			fixed = rec
		}
		if err := out.Insert(fixed); err != nil {
			// Collapsing whitespace can unify two spellings of one active
			// entity; keep the first and report the collision.
			issues = append(issues, model.Issue{
				Severity:    model.SeverityError,
				Category:    model.CategoryDuplicateActive,
				RecordKey:   fixed.Key(),
				Description: "repair produced a second active record for this key; kept the first",
				Dropped:     fix,
			})
		}
	}

	for _, row := range malformed {
		rowIssues, rec, recovered := l.checkMalformed(row, fix)
		issues = append(issues, rowIssues...)
		if fix && recovered {
			if err := out.Insert(rec); err != nil {
				issues = append(issues, model.Issue{
					Severity:    model.SeverityError,
					Category:    model.CategoryDuplicateActive,
					RecordKey:   rec.Key(),
					Description: fmt.Sprintf("line %d: recovered row duplicates an active key; dropped", row.Line),
					Dropped:     true,
				})
			}
		}
	}

	if !fix {
		return led, issues
	}
	return out, issues
}

// checkRecord lints one well-formed record. It returns the (possibly
// fixed) record, the issues found, and whether the record must be dropped
// when fixing.
func (l *Linter) checkRecord(rec model.AppearanceRecord, fix bool) (model.AppearanceRecord, []model.Issue, bool) {
	var issues []model.Issue
	drop := false
	key := rec.Key()

	if l.Checks.CompanyName && utf8.RuneCountInString(rec.CompanyName) < 2 {
		issues = append(issues, model.Issue{
			Severity:    model.SeverityError,
			Category:    model.CategoryEmptyCompanyName,
			RecordKey:   key,
			Field:       "company_name",
			Value:       rec.CompanyName,
			Description: "company name empty or implausibly short",
			Dropped:     fix,
		})
		drop = true
	}

	if l.Checks.Boilerplate && normalize.IsBoilerplate(rec.CompanyName) {
		issues = append(issues, model.Issue{
			Severity:    model.SeverityError,
			Category:    model.CategoryBoilerplateRow,
			RecordKey:   key,
			Field:       "company_name",
			Value:       rec.CompanyName,
			Description: "row is a misextracted table header or title",
			Dropped:     fix,
		})
		drop = true
	}

	if l.Checks.LongCompanyName && utf8.RuneCountInString(rec.CompanyName) > maxCompanyNameRunes {
		issues = append(issues, model.Issue{
			Severity:    model.SeverityWarning,
			Category:    model.CategoryLongCompanyName,
			RecordKey:   key,
			Field:       "company_name",
			Value:       rec.CompanyName,
			Description: "company name unusually long; retained unmodified",
		})
	}

	if l.Checks.LocationWhitespace {
		if stripped := normalize.StripSpace(rec.Location); stripped != rec.Location {
			issues = append(issues, model.Issue{
				Severity:    model.SeverityError,
				Category:    model.CategoryLocationWhitespace,
				RecordKey:   key,
				Field:       "location",
				Value:       rec.Location,
				Description: fmt.Sprintf("extraction-artifact whitespace in location; collapse to %q", stripped),
				Fixed:       fix,
			})
			if fix {
				rec.Location = stripped
			}
		}
	}

	if l.Checks.GarbledLocation {
		if corrected, ok := l.Table.Apply(rec.Location); ok {
			issues = append(issues, model.Issue{
				Severity:    model.SeverityWarning,
				Category:    model.CategoryGarbledLocation,
				RecordKey:   key,
				Field:       "location",
				Value:       rec.Location,
				Description: fmt.Sprintf("known garbled location; correct to %q", corrected),
				Fixed:       fix,
			})
			if fix {
				rec.Location = corrected
			}
		} else if normalize.LooksGarbled(rec.Location) {
			issues = append(issues, model.Issue{
				Severity:    model.SeverityWarning,
				Category:    model.CategoryGarbledLocation,
				RecordKey:   key,
				Field:       "location",
				Value:       rec.Location,
				Description: "location matches the interleaving-corruption heuristic but has no correction table entry; left for manual curation",
			})
		}
	}

	if l.Checks.Dates {
		if !normalize.YearInRange(rec.FirstAppeared) {
			issues = append(issues, model.Issue{
				Severity:    model.SeverityError,
				Category:    model.CategoryDateOutOfRange,
				RecordKey:   key,
				Field:       "first_appeared",
				Value:       model.FormatDate(rec.FirstAppeared),
				Description: "first_appeared year outside the plausible source window",
				Dropped:     fix,
			})
			drop = true
		}
		if rec.LastAppeared != nil && !normalize.YearInRange(*rec.LastAppeared) {
			issues = append(issues, model.Issue{
				Severity:    model.SeverityError,
				Category:    model.CategoryDateOutOfRange,
				RecordKey:   key,
				Field:       "last_appeared",
				Value:       model.FormatDate(*rec.LastAppeared),
				Description: "last_appeared year outside the plausible source window",
				Dropped:     fix,
			})
			drop = true
		}
	}

	if l.Checks.Integrity && rec.LastAppeared != nil && rec.LastAppeared.Before(rec.FirstAppeared) {
		issues = append(issues, model.Issue{
			Severity:    model.SeverityError,
			Category:    model.CategoryOrderViolation,
			RecordKey:   key,
			Field:       "last_appeared",
			Value:       model.FormatDate(*rec.LastAppeared),
			Description: "last_appeared precedes first_appeared; reconciliation ran with out-of-order dates",
		})
	}

	return rec, issues, drop
}

// checkMalformed reports a row that failed strict parsing and, when fixing
// and every broken field matches a recognizable pattern, recovers it.
func (l *Linter) checkMalformed(row ledger.MalformedRow, fix bool) ([]model.Issue, model.AppearanceRecord, bool) {
	key := model.NaturalKey(row.Raw["company_name"], row.Raw["location"], row.Raw["labor_bureau"])

	if eris.Is(row.Err, ledger.ErrDuplicateActive) {
		return []model.Issue{{
			Severity:    model.SeverityError,
			Category:    model.CategoryDuplicateActive,
			RecordKey:   key,
			Description: fmt.Sprintf("line %d: second active record for this key; not auto-fixed", row.Line),
		}}, model.AppearanceRecord{}, false
	}

	rec, ok := l.recoverRow(row)
	issue := model.Issue{
		Severity:    model.SeverityError,
		Category:    model.CategoryInvalidDate,
		RecordKey:   key,
		Description: fmt.Sprintf("line %d: %s", row.Line, eris.Cause(row.Err).Error()),
	}
	if row.Raw["company_name"] == "" {
		issue.Category = model.CategoryEmptyCompanyName
	} else if row.Raw["status"] != "" &&
		row.Raw["status"] != string(model.StatusActive) &&
		row.Raw["status"] != string(model.StatusRemoved) {
		issue.Category = model.CategoryInvalidStatus
	}

	if fix {
		if ok {
			issue.Fixed = true
		} else {
			issue.Dropped = true
		}
	}
	return []model.Issue{issue}, rec, ok
}

// recoverRow rebuilds a typed record from a malformed row when every
// broken field can be reinterpreted from a recognized format.
func (l *Linter) recoverRow(row ledger.MalformedRow) (model.AppearanceRecord, bool) {
	name := row.Raw["company_name"]
	if utf8.RuneCountInString(name) < 2 {
		return model.AppearanceRecord{}, false
	}

	first, ok := FixDate(row.Raw["first_appeared"])
	if !ok {
		return model.AppearanceRecord{}, false
	}

	rec := model.AppearanceRecord{
		CompanyName:      name,
		Location:         row.Raw["location"],
		LaborBureau:      row.Raw["labor_bureau"],
		FirstAppeared:    first,
		ViolationLaw:     row.Raw["violation_law"],
		ViolationSummary: row.Raw["violation_summary"],
		ProsecutionDate:  row.Raw["prosecution_date"],
		Status:           model.StatusActive,
		CrossedDataGap:   row.Raw["crossed_data_gap"] == "true",
	}

	if lastStr := row.Raw["last_appeared"]; lastStr != "" {
		last, ok := FixDate(lastStr)
		if !ok {
			return model.AppearanceRecord{}, false
		}
		rec.LastAppeared = &last
	}

	// An unrecognized status collapses to active, matching the original
	// curation behavior; removed survives only with its removal date.
	if row.Raw["status"] == string(model.StatusRemoved) && rec.LastAppeared != nil {
		rec.Status = model.StatusRemoved
		dur := model.DaysBetween(rec.FirstAppeared, *rec.LastAppeared)
		rec.DurationDays = &dur
	}
	if rec.Status == model.StatusActive {
		rec.LastAppeared = nil
		rec.DurationDays = nil
	}
	return rec, true
}
