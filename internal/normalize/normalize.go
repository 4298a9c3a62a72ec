// Package normalize canonicalizes raw extracted rows into comparable
// snapshot records: whitespace artifacts removed, known corruption
// repaired, era dates converted to ISO, and the natural key derived.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

// minCompanyNameRunes is the shortest company name accepted as real data.
const minCompanyNameRunes = 2

// boilerplatePhrases are fragments of table headers and page titles that
// occasionally survive extraction as data rows.
var boilerplatePhrases = []string{
	"企業・事業場",
	"所在地",
	"公表日",
	"違反法条",
	"事案概要",
	"最終更新日",
	"労働基準関係法令違反に係る公表事案",
}

var whitespaceRe = regexp.MustCompile(`[\s　]+`)

// Normalizer canonicalizes raw records. Construct with New; the corruption
// table is injected so new patterns need no code change.
type Normalizer struct {
	table CorruptionTable
}

// New creates a Normalizer with the given corruption table. A nil table is
// treated as empty.
func New(table CorruptionTable) *Normalizer {
	if table == nil {
		table = CorruptionTable{}
	}
	return &Normalizer{table: table}
}

// Normalize canonicalizes raw into a comparable record.
// It fails with ErrInvalidRecord for rows that cannot represent an entity
// and ErrInvalidDate for unparseable date fields; in both cases the caller
// drops the row and counts it.
func (n *Normalizer) Normalize(raw model.RawRecord) (model.NormalizedRecord, error) {
	name := CollapseSpace(norm.NFC.String(raw.CompanyName))
	if utf8.RuneCountInString(name) < minCompanyNameRunes {
		return model.NormalizedRecord{}, eris.Wrapf(ErrInvalidRecord, "company name %q too short", name)
	}
	if IsBoilerplate(name) {
		return model.NormalizedRecord{}, eris.Wrapf(ErrInvalidRecord, "company name %q is table boilerplate", name)
	}

	location := StripSpace(norm.NFC.String(raw.Location))
	location, replaced := n.table.Apply(location)
	garbled := !replaced && LooksGarbled(location)

	bureau := StripSpace(norm.NFC.String(raw.LaborBureau))

	pubDate, err := NormalizeDate(strings.TrimSpace(raw.PublicationDate))
	if err != nil {
		return model.NormalizedRecord{}, eris.Wrapf(err, "publication date")
	}
	prosDate, err := NormalizeDate(strings.TrimSpace(raw.ProsecutionDate))
	if err != nil {
		return model.NormalizedRecord{}, eris.Wrapf(err, "prosecution date")
	}

	return model.NormalizedRecord{
		Key:              model.NaturalKey(name, location, bureau),
		CompanyName:      name,
		Location:         location,
		LaborBureau:      bureau,
		ViolationLaw:     CollapseSpace(norm.NFC.String(raw.ViolationLaw)),
		ViolationSummary: CollapseSpace(norm.NFC.String(raw.ViolationSummary)),
		ProsecutionDate:  prosDate,
		PublicationDate:  pubDate,
		GarbledLocation:  garbled,
	}, nil
}

// CollapseSpace trims s and collapses internal whitespace runs (including
// ideographic spaces) to a single ASCII space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StripSpace removes all whitespace from s. Place names never contain
// spaces; any present are extraction artifacts.
func StripSpace(s string) string {
	return whitespaceRe.ReplaceAllString(s, "")
}

// IsBoilerplate reports whether a company-name cell is actually a table
// header or page title fragment.
func IsBoilerplate(name string) bool {
	if name == "-" || name == "－" || name == "ー" {
		return true
	}
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(name, phrase) {
			return true
		}
	}
	return false
}
