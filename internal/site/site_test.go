package site

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func intp(n int) *int { return &n }

func testRecords() []model.AppearanceRecord {
	removed := day("2024-06-01")
	gapEnd := day("2020-12-01")
	return []model.AppearanceRecord{
		{
			CompanyName:   "株式会社サンプル",
			Location:      "東京都千代田区",
			LaborBureau:   "東京労働局",
			FirstAppeared: day("2024-01-15"),
			Status:        model.StatusActive,
		},
		{
			CompanyName:   "有限会社テスト",
			Location:      "大阪市北区",
			LaborBureau:   "大阪労働局",
			FirstAppeared: day("2024-01-15"),
			LastAppeared:  &removed,
			DurationDays:  intp(138),
			Status:        model.StatusRemoved,
		},
		{
			CompanyName:    "株式会社長期",
			Location:       "名古屋市中区",
			LaborBureau:    "愛知労働局",
			FirstAppeared:  day("2018-04-27"),
			LastAppeared:   &gapEnd,
			DurationDays:   intp(949),
			Status:         model.StatusRemoved,
			CrossedDataGap: true,
		},
		{
			CompanyName:   "合同会社東京二",
			Location:      "東京都港区",
			LaborBureau:   "東京労働局",
			FirstAppeared: day("2023-11-30"),
			Status:        model.StatusActive,
		},
	}
}

func testChanges() []model.ChangeEvent {
	changes := make([]model.ChangeEvent, 0, 12)
	for i := 0; i < 12; i++ {
		changes = append(changes, model.ChangeEvent{
			Date:        day("2024-01-15").AddDate(0, 0, i),
			Added:       1,
			TotalActive: i + 1,
		})
	}
	return changes
}

func TestCompute(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	stats := Compute(testRecords(), testChanges(), now)

	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, 2, stats.ActiveCount)
	assert.Equal(t, 2, stats.RemovedCount)
	assert.Equal(t, map[string]int{
		"東京労働局": 2,
		"大阪労働局": 1,
		"愛知労働局": 1,
	}, stats.ByBureau)
	assert.Equal(t, map[string]int{
		"2024": 2,
		"2023": 1,
		"2018": 1,
	}, stats.ByYear)
	assert.Equal(t, "2026-08-31T12:00:00Z", stats.GeneratedAt)
}

func TestCompute_AvgExcludesGapRecords(t *testing.T) {
	stats := Compute(testRecords(), nil, time.Now())

	// Only the 138-day record counts; the 949-day span crossed the
	// publication void and would distort the average.
	require.NotNil(t, stats.AvgDurationDays)
	assert.Equal(t, 138.0, *stats.AvgDurationDays)
}

func TestCompute_NoRemovedRecords(t *testing.T) {
	records := []model.AppearanceRecord{
		{CompanyName: "a", FirstAppeared: day("2024-01-01"), Status: model.StatusActive},
	}
	stats := Compute(records, nil, time.Now())
	assert.Nil(t, stats.AvgDurationDays)
}

func TestCompute_RecentChangesLastTen(t *testing.T) {
	stats := Compute(nil, testChanges(), time.Now())

	require.Len(t, stats.RecentChanges, 10)
	assert.Equal(t, day("2024-01-17"), stats.RecentChanges[0].Date)
	assert.Equal(t, day("2024-01-26"), stats.RecentChanges[9].Date)
}

func TestCompute_FewerChangesThanWindow(t *testing.T) {
	changes := testChanges()[:3]
	stats := Compute(nil, changes, time.Now())
	assert.Len(t, stats.RecentChanges, 3)
}

func TestTopBureaus(t *testing.T) {
	stats := Compute(testRecords(), nil, time.Now())

	// Count descending, ties broken by name.
	assert.Equal(t, []string{"東京労働局", "大阪労働局", "愛知労働局"}, stats.TopBureaus())
}

func TestGenerate(t *testing.T) {
	docsDir := t.TempDir()
	records := testRecords()
	changes := testChanges()
	stats := Compute(records, changes, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))

	require.NoError(t, Generate(docsDir, records, changes, stats))

	var apps []map[string]any
	readJSON(t, filepath.Join(docsDir, "data", "appearances.json"), &apps)
	require.Len(t, apps, 4)
	assert.Equal(t, "株式会社サンプル", apps[0]["company_name"])
	assert.Equal(t, "2024-01-15", apps[0]["first_appeared"])
	assert.Equal(t, "", apps[0]["last_appeared"])
	assert.Equal(t, "2024-06-01", apps[1]["last_appeared"])
	assert.Equal(t, float64(138), apps[1]["duration_days"])
	assert.Equal(t, true, apps[2]["crossed_data_gap"])

	var chs []map[string]any
	readJSON(t, filepath.Join(docsDir, "data", "changes.json"), &chs)
	require.Len(t, chs, 12)
	assert.Equal(t, "2024-01-15", chs[0]["date"])
	assert.Equal(t, float64(1), chs[0]["added"])

	var sv map[string]any
	readJSON(t, filepath.Join(docsDir, "data", "statistics.json"), &sv)
	assert.Equal(t, float64(4), sv["total_records"])
	assert.Equal(t, float64(138), sv["avg_duration_days"])
	recent, ok := sv["recent_changes"].([]any)
	require.True(t, ok)
	assert.Len(t, recent, 10)

	html, err := os.ReadFile(filepath.Join(docsDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "東京労働局")
	assert.Contains(t, string(html), "138")
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
