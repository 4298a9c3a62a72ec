package ledger

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

// Columns is the stable ledger column order. Stability matters: the file
// lives in version control and diffs must stay readable.
var Columns = []string{
	"company_name", "location", "labor_bureau",
	"first_appeared", "last_appeared", "duration_days",
	"violation_law", "violation_summary", "prosecution_date",
	"status", "crossed_data_gap",
}

// MalformedRow is a ledger row that failed strict parsing. Such rows are
// never silently dropped: Load returns them for the lint pass to report
// and, where the format is recognizable, repair. Raw maps column name to
// the cell value as read.
type MalformedRow struct {
	Line int
	Raw  map[string]string
	Err  error
}

// Load reads a ledger TSV. A missing file yields an empty ledger (first
// run). Rows with malformed required fields are returned separately.
func Load(path string) (*Ledger, []MalformedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil, nil
		}
		return nil, nil, eris.Wrapf(err, "ledger: open %s", path)
	}
	defer f.Close()

	led, malformed, err := Read(f)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "ledger: parse %s", path)
	}
	return led, malformed, nil
}

// Read parses ledger TSV content from r.
func Read(r io.Reader) (*Ledger, []MalformedRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return New(), nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "read header")
	}
	col := indexColumns(header)

	led := New()
	var malformed []MalformedRow
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrapf(err, "read row %d", line)
		}

		rec, perr := parseRow(row, col)
		if perr != nil {
			malformed = append(malformed, MalformedRow{Line: line, Raw: rawMap(row, col), Err: perr})
			continue
		}
		if ierr := led.Insert(rec); ierr != nil {
			// A second active record for the same key is a structural
			// defect in the file, not in this row alone; keep the row for
			// the lint pass instead of failing the whole load.
			malformed = append(malformed, MalformedRow{Line: line, Raw: rawMap(row, col), Err: ierr})
		}
	}
	return led, malformed, nil
}

// Save writes the ledger atomically: temp file in the target directory,
// then rename. A crash mid-write leaves the previous file intact.
func Save(path string, led *Ledger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "ledger: mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".appearances-*.tsv")
	if err != nil {
		return eris.Wrap(err, "ledger: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, led); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "ledger: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "ledger: rename to %s", path)
	}
	return nil
}

// Write serializes the ledger as TSV to w.
func Write(w io.Writer, led *Ledger) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'

	if err := writer.Write(Columns); err != nil {
		return eris.Wrap(err, "ledger: write header")
	}
	for _, rec := range led.All() {
		if err := writer.Write(formatRow(rec)); err != nil {
			return eris.Wrap(err, "ledger: write row")
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "ledger: flush")
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

func rawMap(row []string, col map[string]int) map[string]string {
	raw := make(map[string]string, len(col))
	for name := range col {
		raw[name] = field(row, col, name)
	}
	return raw
}

func field(row []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseRow(row []string, col map[string]int) (model.AppearanceRecord, error) {
	rec := model.AppearanceRecord{
		CompanyName:      field(row, col, "company_name"),
		Location:         field(row, col, "location"),
		LaborBureau:      field(row, col, "labor_bureau"),
		ViolationLaw:     field(row, col, "violation_law"),
		ViolationSummary: field(row, col, "violation_summary"),
		ProsecutionDate:  field(row, col, "prosecution_date"),
	}

	if rec.CompanyName == "" {
		return rec, eris.New("empty company_name")
	}

	firstStr := field(row, col, "first_appeared")
	first, err := model.ParseDate(firstStr)
	if err != nil {
		return rec, eris.Wrapf(err, "first_appeared %q", firstStr)
	}
	rec.FirstAppeared = first

	if lastStr := field(row, col, "last_appeared"); lastStr != "" {
		last, err := model.ParseDate(lastStr)
		if err != nil {
			return rec, eris.Wrapf(err, "last_appeared %q", lastStr)
		}
		rec.LastAppeared = &last
	}

	if durStr := field(row, col, "duration_days"); durStr != "" {
		dur, err := strconv.Atoi(durStr)
		if err != nil {
			return rec, eris.Wrapf(err, "duration_days %q", durStr)
		}
		rec.DurationDays = &dur
	}

	switch status := model.RecordStatus(field(row, col, "status")); status {
	case model.StatusActive, model.StatusRemoved:
		rec.Status = status
	case "":
		rec.Status = model.StatusActive
	default:
		return rec, eris.Errorf("invalid status %q", status)
	}

	rec.CrossedDataGap = field(row, col, "crossed_data_gap") == "true"
	return rec, nil
}

func formatRow(rec model.AppearanceRecord) []string {
	last := ""
	if rec.LastAppeared != nil {
		last = model.FormatDate(*rec.LastAppeared)
	}
	dur := ""
	if rec.DurationDays != nil {
		dur = strconv.Itoa(*rec.DurationDays)
	}
	gap := ""
	if rec.CrossedDataGap {
		gap = "true"
	}
	return []string{
		rec.CompanyName, rec.Location, rec.LaborBureau,
		model.FormatDate(rec.FirstAppeared), last, dur,
		rec.ViolationLaw, rec.ViolationSummary, rec.ProsecutionDate,
		string(rec.Status), gap,
	}
}
