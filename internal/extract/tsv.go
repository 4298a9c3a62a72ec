package extract

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

// SnapshotColumns is the snapshot interchange header.
var SnapshotColumns = []string{
	"company_name", "location", "labor_bureau",
	"violation_law", "violation_summary",
	"prosecution_date", "publication_date",
}

// WriteSnapshot writes raw records as a snapshot TSV at path.
func WriteSnapshot(path string, records []model.RawRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "extract: mkdir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "extract: create %s", path)
	}
	defer f.Close()
	return WriteSnapshotTo(f, records)
}

// WriteSnapshotTo serializes raw records as snapshot TSV to w.
func WriteSnapshotTo(w io.Writer, records []model.RawRecord) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'

	if err := writer.Write(SnapshotColumns); err != nil {
		return eris.Wrap(err, "extract: write header")
	}
	for _, rec := range records {
		row := []string{
			rec.CompanyName, rec.Location, rec.LaborBureau,
			rec.ViolationLaw, rec.ViolationSummary,
			rec.ProsecutionDate, rec.PublicationDate,
		}
		if err := writer.Write(row); err != nil {
			return eris.Wrap(err, "extract: write row")
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "extract: flush")
}
