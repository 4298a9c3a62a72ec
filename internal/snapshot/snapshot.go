// Package snapshot loads a snapshot TSV and feeds it through the
// normalizer, producing the comparable record set one reconciliation run
// consumes.
package snapshot

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rouki-watch/rouki-cli/internal/model"
	"github.com/rouki-watch/rouki-cli/internal/normalize"
)

// Stats reports what loading dropped. Skips are counted, never silent:
// the run summary always shows how many rows were unusable and why.
type Stats struct {
	Rows           int
	Loaded         int
	SkippedInvalid int // unusable row (empty/boilerplate company name)
	SkippedBadDate int // unparseable date field
	Garbled        int // loaded, but location flagged for curation
}

// Skipped is the total number of dropped rows.
func (s Stats) Skipped() int { return s.SkippedInvalid + s.SkippedBadDate }

// Load reads the snapshot TSV at path and normalizes every row.
func Load(path string, n *normalize.Normalizer) (model.Snapshot, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, Stats{}, eris.Wrapf(err, "snapshot: open %s", path)
	}
	defer f.Close()

	snap, stats, err := Read(f, n)
	if err != nil {
		return model.Snapshot{}, stats, eris.Wrapf(err, "snapshot: parse %s", path)
	}
	return snap, stats, nil
}

// Read parses snapshot TSV content from r and normalizes every row.
func Read(r io.Reader, n *normalize.Normalizer) (model.Snapshot, Stats, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return model.Snapshot{}, Stats{}, nil
	}
	if err != nil {
		return model.Snapshot{}, Stats{}, eris.Wrap(err, "read header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	var (
		snap  model.Snapshot
		stats Stats
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Snapshot{}, stats, eris.Wrap(err, "read row")
		}
		stats.Rows++

		raw := model.RawRecord{
			CompanyName:      cell(row, col, "company_name"),
			Location:         cell(row, col, "location"),
			LaborBureau:      cell(row, col, "labor_bureau"),
			ViolationLaw:     cell(row, col, "violation_law"),
			ViolationSummary: cell(row, col, "violation_summary"),
			ProsecutionDate:  cell(row, col, "prosecution_date"),
			PublicationDate:  cell(row, col, "publication_date"),
		}

		rec, err := n.Normalize(raw)
		switch {
		case err == nil:
			if rec.GarbledLocation {
				stats.Garbled++
			}
			snap.Records = append(snap.Records, rec)
			stats.Loaded++
		case eris.Is(err, normalize.ErrInvalidDate):
			stats.SkippedBadDate++
		default:
			stats.SkippedInvalid++
		}
	}
	return snap, stats, nil
}

func cell(row []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
