package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouki-watch/rouki-cli/internal/ledger"
	"github.com/rouki-watch/rouki-cli/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func snapRecord(name, location, bureau string) model.NormalizedRecord {
	return model.NormalizedRecord{
		Key:         model.NaturalKey(name, location, bureau),
		CompanyName: name,
		Location:    location,
		LaborBureau: bureau,
	}
}

var testGap = GapInterval{Start: day("2018-08-01"), End: day("2020-11-30")}

func TestReconcile_FirstAppearance(t *testing.T) {
	led := ledger.New()
	snap := model.Snapshot{Records: []model.NormalizedRecord{
		snapRecord("Acme Co", "Tokyo", "Tokyo Bureau"),
	}}
	engine := Engine{Gap: testGap}

	event, stats, err := engine.Reconcile(led, snap, day("2024-01-15"))
	require.NoError(t, err)

	assert.Equal(t, Stats{Added: 1}, stats)
	assert.Equal(t, model.ChangeEvent{Date: day("2024-01-15"), Added: 1, Removed: 0, TotalActive: 1}, event)

	rec, ok := led.FindActive(model.NaturalKey("Acme Co", "Tokyo", "Tokyo Bureau"))
	require.True(t, ok)
	assert.Equal(t, day("2024-01-15"), rec.FirstAppeared)
	assert.Equal(t, model.StatusActive, rec.Status)
	assert.Nil(t, rec.LastAppeared)
	assert.Nil(t, rec.DurationDays)
}

func TestReconcile_Removal(t *testing.T) {
	led := ledger.New()
	engine := Engine{Gap: testGap}
	snap := model.Snapshot{Records: []model.NormalizedRecord{
		snapRecord("Acme Co", "Tokyo", "Tokyo Bureau"),
	}}
	_, _, err := engine.Reconcile(led, snap, day("2024-01-15"))
	require.NoError(t, err)

	event, stats, err := engine.Reconcile(led, model.Snapshot{}, day("2024-06-01"))
	require.NoError(t, err)

	assert.Equal(t, Stats{Removed: 1}, stats)
	assert.Equal(t, 0, event.TotalActive)

	all := led.All()
	require.Len(t, all, 1)
	rec := all[0]
	assert.Equal(t, model.StatusRemoved, rec.Status)
	require.NotNil(t, rec.LastAppeared)
	assert.Equal(t, day("2024-06-01"), *rec.LastAppeared)
	require.NotNil(t, rec.DurationDays)
	assert.Equal(t, 138, *rec.DurationDays)
	assert.False(t, rec.CrossedDataGap)
}

func TestReconcile_Idempotent(t *testing.T) {
	led := ledger.New()
	engine := Engine{Gap: testGap}
	snap := model.Snapshot{Records: []model.NormalizedRecord{
		snapRecord("会社A", "東京都", "東京労働局"),
		snapRecord("会社B", "大阪府", "大阪労働局"),
	}}

	_, first, err := engine.Reconcile(led, snap, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Added: 2}, first)

	event, second, err := engine.Reconcile(led, snap, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Unchanged: 2}, second)
	assert.Equal(t, 0, event.Added)
	assert.Equal(t, 0, event.Removed)
	assert.Equal(t, 2, event.TotalActive)
}

func TestReconcile_Conservation(t *testing.T) {
	led := ledger.New()
	engine := Engine{}
	snap := model.Snapshot{Records: []model.NormalizedRecord{
		snapRecord("会社A", "東京都", "東京労働局"),
		snapRecord("会社B", "大阪府", "大阪労働局"),
		snapRecord("会社C", "愛知県", "愛知労働局"),
	}}

	event, _, err := engine.Reconcile(led, snap, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 3, event.TotalActive)
	assert.Equal(t, led.ActiveCount(), event.TotalActive)
}

func TestReconcile_SnapshotDuplicatesCollapse(t *testing.T) {
	led := ledger.New()
	engine := Engine{}
	snap := model.Snapshot{Records: []model.NormalizedRecord{
		snapRecord("会社A", "東京都", "東京労働局"),
		snapRecord("会社A", "東京都", "東京労働局"),
	}}

	_, stats, err := engine.Reconcile(led, snap, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Added: 1}, stats)
	assert.Equal(t, 1, led.Len())
}

func TestReconcile_PublicationDatePreferred(t *testing.T) {
	led := ledger.New()
	engine := Engine{}
	rec := snapRecord("会社A", "東京都", "東京労働局")
	rec.PublicationDate = "2023-11-30"

	_, _, err := engine.Reconcile(led, model.Snapshot{Records: []model.NormalizedRecord{rec}}, day("2024-03-01"))
	require.NoError(t, err)

	got, ok := led.FindActive(rec.Key)
	require.True(t, ok)
	assert.Equal(t, day("2023-11-30"), got.FirstAppeared, "publication date wins over run date for backfills")
}

func TestReconcile_ReappearanceIsNewRecord(t *testing.T) {
	led := ledger.New()
	engine := Engine{}
	snap := model.Snapshot{Records: []model.NormalizedRecord{
		snapRecord("会社A", "東京都", "東京労働局"),
	}}

	_, _, err := engine.Reconcile(led, snap, day("2024-01-15"))
	require.NoError(t, err)
	_, _, err = engine.Reconcile(led, model.Snapshot{}, day("2024-02-01"))
	require.NoError(t, err)
	_, stats, err := engine.Reconcile(led, snap, day("2024-05-01"))
	require.NoError(t, err)

	assert.Equal(t, Stats{Added: 1}, stats)
	assert.Equal(t, 2, led.Len(), "removal then re-appearance yields two records")

	rec, ok := led.FindActive(model.NaturalKey("会社A", "東京都", "東京労働局"))
	require.True(t, ok)
	assert.Equal(t, day("2024-05-01"), rec.FirstAppeared)
}

func TestReconcile_GapFlag(t *testing.T) {
	engine := Engine{Gap: testGap}

	run := func(first, removed string) model.AppearanceRecord {
		led := ledger.New()
		rec := snapRecord("会社A", "東京都", "東京労働局")
		rec.PublicationDate = first
		_, _, err := engine.Reconcile(led, model.Snapshot{Records: []model.NormalizedRecord{rec}}, day(first))
		require.NoError(t, err)
		_, _, err = engine.Reconcile(led, model.Snapshot{}, day(removed))
		require.NoError(t, err)
		return led.All()[0]
	}

	assert.True(t, run("2018-05-01", "2020-12-15").CrossedDataGap, "interval spans the whole gap")
	assert.True(t, run("2018-05-01", "2018-09-01").CrossedDataGap, "interval enters the gap")
	assert.True(t, run("2020-11-01", "2020-12-15").CrossedDataGap, "interval leaves the gap")
	assert.False(t, run("2017-01-01", "2018-07-31").CrossedDataGap, "entirely before the gap")
	assert.False(t, run("2020-12-01", "2024-01-15").CrossedDataGap, "entirely after the gap")
}

func TestGapInterval_ZeroDisabled(t *testing.T) {
	var g GapInterval
	assert.False(t, g.Overlaps(day("2018-05-01"), day("2021-01-01")))
}
