package site

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

//go:embed index.html.tmpl
var indexTemplate string

// appearanceView flattens an AppearanceRecord for the published JSON,
// with dates in the same YYYY-MM-DD form the TSV uses.
type appearanceView struct {
	CompanyName      string `json:"company_name"`
	Location         string `json:"location"`
	LaborBureau      string `json:"labor_bureau"`
	FirstAppeared    string `json:"first_appeared"`
	LastAppeared     string `json:"last_appeared"`
	DurationDays     *int   `json:"duration_days"`
	ViolationLaw     string `json:"violation_law"`
	ViolationSummary string `json:"violation_summary"`
	ProsecutionDate  string `json:"prosecution_date"`
	Status           string `json:"status"`
	CrossedDataGap   bool   `json:"crossed_data_gap"`
}

type changeView struct {
	Date        string `json:"date"`
	Added       int    `json:"added"`
	Removed     int    `json:"removed"`
	TotalActive int    `json:"total_active"`
}

type statisticsView struct {
	GeneratedAt     string         `json:"generated_at"`
	TotalRecords    int            `json:"total_records"`
	ActiveCount     int            `json:"active_count"`
	RemovedCount    int            `json:"removed_count"`
	ByBureau        map[string]int `json:"by_bureau"`
	ByYear          map[string]int `json:"by_year"`
	AvgDurationDays *float64       `json:"avg_duration_days"`
	RecentChanges   []changeView   `json:"recent_changes"`
}

// Generate writes the static site under docsDir: data/appearances.json,
// data/changes.json, data/statistics.json and index.html.
func Generate(docsDir string, records []model.AppearanceRecord, changes []model.ChangeEvent, stats Statistics) error {
	dataDir := filepath.Join(docsDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return eris.Wrapf(err, "creating %s", dataDir)
	}

	apps := make([]appearanceView, 0, len(records))
	for _, rec := range records {
		var last string
		if rec.LastAppeared != nil {
			last = model.FormatDate(*rec.LastAppeared)
		}
		apps = append(apps, appearanceView{
			CompanyName:      rec.CompanyName,
			Location:         rec.Location,
			LaborBureau:      rec.LaborBureau,
			FirstAppeared:    model.FormatDate(rec.FirstAppeared),
			LastAppeared:     last,
			DurationDays:     rec.DurationDays,
			ViolationLaw:     rec.ViolationLaw,
			ViolationSummary: rec.ViolationSummary,
			ProsecutionDate:  rec.ProsecutionDate,
			Status:           string(rec.Status),
			CrossedDataGap:   rec.CrossedDataGap,
		})
	}
	if err := writeJSON(filepath.Join(dataDir, "appearances.json"), apps); err != nil {
		return err
	}

	changeViews := toChangeViews(changes)
	if err := writeJSON(filepath.Join(dataDir, "changes.json"), changeViews); err != nil {
		return err
	}

	sv := statisticsView{
		GeneratedAt:     stats.GeneratedAt,
		TotalRecords:    stats.TotalRecords,
		ActiveCount:     stats.ActiveCount,
		RemovedCount:    stats.RemovedCount,
		ByBureau:        stats.ByBureau,
		ByYear:          stats.ByYear,
		AvgDurationDays: stats.AvgDurationDays,
		RecentChanges:   toChangeViews(stats.RecentChanges),
	}
	if err := writeJSON(filepath.Join(dataDir, "statistics.json"), sv); err != nil {
		return err
	}

	if err := writeIndex(filepath.Join(docsDir, "index.html"), stats); err != nil {
		return err
	}

	zap.L().Info("site generated",
		zap.String("dir", docsDir),
		zap.Int("records", len(records)),
		zap.Int("changes", len(changes)))
	return nil
}

func toChangeViews(changes []model.ChangeEvent) []changeView {
	views := make([]changeView, 0, len(changes))
	for _, ch := range changes {
		views = append(views, changeView{
			Date:        model.FormatDate(ch.Date),
			Added:       ch.Added,
			Removed:     ch.Removed,
			TotalActive: ch.TotalActive,
		})
	}
	return views
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "marshaling %s", filepath.Base(path))
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "writing %s", path)
	}
	return nil
}

type indexData struct {
	Stats      Statistics
	AvgDays    string
	ByYearJSON template.JS
}

func writeIndex(path string, stats Statistics) error {
	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return eris.Wrap(err, "parsing index template")
	}

	avg := "-"
	if stats.AvgDurationDays != nil {
		avg = strconv.FormatFloat(*stats.AvgDurationDays, 'f', -1, 64)
	}
	yearJSON, err := json.Marshal(stats.ByYear)
	if err != nil {
		return eris.Wrap(err, "marshaling year chart data")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	data := indexData{
		Stats:      stats,
		AvgDays:    avg,
		ByYearJSON: template.JS(yearJSON),
	}
	if err := tmpl.Execute(f, data); err != nil {
		return eris.Wrap(err, "rendering index.html")
	}
	return nil
}
