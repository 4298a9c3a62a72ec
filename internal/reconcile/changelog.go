package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

// changeColumns is the change-log header. The file is append-only; prior
// events are never rewritten.
var changeColumns = []string{"date", "added", "removed", "total_active"}

// AppendChange appends one event to the change log at path, creating the
// file with a header row on first use.
func AppendChange(path string, ev model.ChangeEvent) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "changelog: mkdir for %s", path)
	}

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "changelog: open %s", path)
	}
	defer f.Close()

	if fresh {
		if _, err := fmt.Fprintf(f, "%s\t%s\t%s\t%s\n", changeColumns[0], changeColumns[1], changeColumns[2], changeColumns[3]); err != nil {
			return eris.Wrap(err, "changelog: write header")
		}
	}
	_, err = fmt.Fprintf(f, "%s\t%d\t%d\t%d\n",
		model.FormatDate(ev.Date), ev.Added, ev.Removed, ev.TotalActive)
	return eris.Wrap(err, "changelog: append event")
}

// LoadChanges reads all events from the change log. A missing file yields
// an empty slice.
func LoadChanges(path string) ([]model.ChangeEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "changelog: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	var events []model.ChangeEvent
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "changelog: parse %s", path)
		}
		if first {
			first = false
			continue
		}
		if len(row) < 4 {
			continue
		}
		date, err := model.ParseDate(row[0])
		if err != nil {
			return nil, eris.Wrapf(err, "changelog: bad date %q", row[0])
		}
		added, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, eris.Wrapf(err, "changelog: bad added count %q on %s", row[1], row[0])
		}
		removed, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, eris.Wrapf(err, "changelog: bad removed count %q on %s", row[2], row[0])
		}
		total, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, eris.Wrapf(err, "changelog: bad total_active count %q on %s", row[3], row[0])
		}
		events = append(events, model.ChangeEvent{Date: date, Added: added, Removed: removed, TotalActive: total})
	}
	return events, nil
}

// LatestDate returns the observation date of the newest logged event.
func LatestDate(path string) (time.Time, bool, error) {
	events, err := LoadChanges(path)
	if err != nil || len(events) == 0 {
		return time.Time{}, false, err
	}
	latest := events[0].Date
	for _, ev := range events[1:] {
		if ev.Date.After(latest) {
			latest = ev.Date
		}
	}
	return latest, true, nil
}
