package site

import (
	"math"
	"sort"
	"time"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

// Statistics is the shape written to statistics.json and served by the
// preview API.
type Statistics struct {
	GeneratedAt     string              `json:"generated_at"`
	TotalRecords    int                 `json:"total_records"`
	ActiveCount     int                 `json:"active_count"`
	RemovedCount    int                 `json:"removed_count"`
	ByBureau        map[string]int      `json:"by_bureau"`
	ByYear          map[string]int      `json:"by_year"`
	AvgDurationDays *float64            `json:"avg_duration_days"`
	RecentChanges   []model.ChangeEvent `json:"recent_changes"`
}

const recentChangeCount = 10

// Compute aggregates the ledger and change log into site statistics.
// Durations of records that crossed the publication gap are excluded
// from the average, since their spans are inflated by the hiatus.
func Compute(records []model.AppearanceRecord, changes []model.ChangeEvent, now time.Time) Statistics {
	stats := Statistics{
		GeneratedAt: now.Format(time.RFC3339),
		ByBureau:    map[string]int{},
		ByYear:      map[string]int{},
	}

	var durationSum, durationN int
	for _, rec := range records {
		stats.TotalRecords++
		if rec.Active() {
			stats.ActiveCount++
		} else {
			stats.RemovedCount++
		}
		if rec.LaborBureau != "" {
			stats.ByBureau[rec.LaborBureau]++
		}
		if !rec.FirstAppeared.IsZero() {
			stats.ByYear[rec.FirstAppeared.Format("2006")]++
		}
		if rec.DurationDays != nil && !rec.CrossedDataGap {
			durationSum += *rec.DurationDays
			durationN++
		}
	}
	if durationN > 0 {
		avg := math.Round(float64(durationSum)/float64(durationN)*10) / 10
		stats.AvgDurationDays = &avg
	}

	if n := len(changes); n > 0 {
		start := n - recentChangeCount
		if start < 0 {
			start = 0
		}
		stats.RecentChanges = append(stats.RecentChanges, changes[start:]...)
	}
	return stats
}

// TopBureaus returns bureau names ordered by descending record count,
// ties broken by name so output is stable.
func (s Statistics) TopBureaus() []string {
	names := make([]string, 0, len(s.ByBureau))
	for name := range s.ByBureau {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ByBureau[names[i]] != s.ByBureau[names[j]] {
			return s.ByBureau[names[i]] > s.ByBureau[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
