package lint

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouki-watch/rouki-cli/internal/ledger"
	"github.com/rouki-watch/rouki-cli/internal/model"
	"github.com/rouki-watch/rouki-cli/internal/normalize"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ledgerWith(t *testing.T, recs ...model.AppearanceRecord) *ledger.Ledger {
	t.Helper()
	led := ledger.New()
	for _, rec := range recs {
		require.NoError(t, led.Insert(rec))
	}
	return led
}

func record(name, location string) model.AppearanceRecord {
	return model.AppearanceRecord{
		CompanyName:   name,
		Location:      location,
		LaborBureau:   "東京労働局",
		FirstAppeared: day("2024-01-15"),
		Status:        model.StatusActive,
	}
}

func issuesByCategory(issues []model.Issue) map[string]int {
	counts := map[string]int{}
	for _, is := range issues {
		counts[is.Category]++
	}
	return counts
}

func TestScan_CleanLedger(t *testing.T) {
	led := ledgerWith(t, record("株式会社テスト", "東京都千代田区"))
	linter := New(nil, DefaultChecks())
	assert.Empty(t, linter.Scan(led, nil))
}

func TestScan_LocationWhitespace(t *testing.T) {
	led := ledgerWith(t, record("株式会社テスト", "東 京都"))
	linter := New(nil, DefaultChecks())

	issues := linter.Scan(led, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, model.CategoryLocationWhitespace, issues[0].Category)
	assert.False(t, issues[0].Fixed, "scan does not fix")
}

func TestRepair_LocationWhitespace(t *testing.T) {
	led := ledgerWith(t, record("株式会社テスト", "東 京都"))
	linter := New(nil, DefaultChecks())

	fixed, issues := linter.Repair(led, nil, true)
	require.Len(t, issues, 1)
	assert.True(t, issues[0].Fixed)

	all := fixed.All()
	require.Len(t, all, 1)
	assert.Equal(t, "東京都", all[0].Location)
}

func TestRepair_FixFalseLeavesLedger(t *testing.T) {
	led := ledgerWith(t, record("株式会社テスト", "東 京都"))
	linter := New(nil, DefaultChecks())

	same, issues := linter.Repair(led, nil, false)
	require.Len(t, issues, 1)
	assert.Equal(t, "東 京都", same.All()[0].Location)
}

func TestScan_GarbledLocation(t *testing.T) {
	table := normalize.CorruptionTable{"東あ京い都う区え": "東京都千代田区"}
	linter := New(table, DefaultChecks())

	known := ledgerWith(t, record("会社A", "東あ京い都う区え"))
	issues := linter.Scan(known, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, model.CategoryGarbledLocation, issues[0].Category)

	fixed, _ := linter.Repair(known, nil, true)
	assert.Equal(t, "東京都千代田区", fixed.All()[0].Location)

	// Garble with no table entry is warned about, never changed.
	unknown := ledgerWith(t, record("会社B", "大さ阪い府と市"))
	fixed, issues = linter.Repair(unknown, nil, true)
	require.Len(t, issues, 1)
	assert.Equal(t, model.SeverityWarning, issues[0].Severity)
	assert.False(t, issues[0].Fixed)
	assert.Equal(t, "大さ阪い府と市", fixed.All()[0].Location)
}

func TestRepair_DroppedRows(t *testing.T) {
	outOfRange := record("株式会社テスト", "東京都")
	outOfRange.FirstAppeared = day("1931-05-01")

	led := ledgerWith(t,
		record("正常な会社", "東京都"),
		outOfRange,
		record("所在地", "東京都"), // boilerplate
	)
	linter := New(nil, DefaultChecks())

	fixed, issues := linter.Repair(led, nil, true)
	counts := issuesByCategory(issues)
	assert.Equal(t, 1, counts[model.CategoryDateOutOfRange])
	assert.Equal(t, 1, counts[model.CategoryBoilerplateRow])
	assert.Equal(t, 1, fixed.Len(), "bad rows dropped, good row kept")
}

func TestScan_OrderViolation(t *testing.T) {
	bad := record("株式会社テスト", "東京都")
	last := day("2023-12-01")
	dur := -45
	bad.LastAppeared = &last
	bad.DurationDays = &dur
	bad.Status = model.StatusRemoved

	led := ledgerWith(t, bad)
	linter := New(nil, DefaultChecks())

	issues := linter.Scan(led, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, model.CategoryOrderViolation, issues[0].Category)
	assert.Equal(t, model.SeverityError, issues[0].Severity)

	// Not pattern-matched: repair reports but does not rewrite the dates.
	fixed, _ := linter.Repair(led, nil, true)
	require.NotNil(t, fixed.All()[0].LastAppeared)
	assert.Equal(t, day("2023-12-01"), *fixed.All()[0].LastAppeared)
}

func TestScan_LongCompanyName(t *testing.T) {
	led := ledgerWith(t, record(strings.Repeat("あ", 61), "東京都"))
	linter := New(nil, DefaultChecks())

	issues := linter.Scan(led, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, model.CategoryLongCompanyName, issues[0].Category)
	assert.Equal(t, model.SeverityWarning, issues[0].Severity)

	fixed, _ := linter.Repair(led, nil, true)
	assert.Equal(t, 1, fixed.Len(), "long names are kept")
}

func TestChecks_Toggles(t *testing.T) {
	led := ledgerWith(t, record("株式会社テスト", "東 京都"))
	linter := New(nil, Checks{}) // everything off
	assert.Empty(t, linter.Scan(led, nil))
}

func TestRepair_MalformedExcelSerial(t *testing.T) {
	content := strings.Join(ledger.Columns, "\t") + "\n" +
		"株式会社テスト\t東京都\t東京労働局\t43217\t\t\t\t\t\tactive\t\n"
	led, malformed, err := ledger.Read(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, malformed, 1)

	linter := New(nil, DefaultChecks())
	fixed, issues := linter.Repair(led, malformed, true)

	require.Len(t, issues, 1)
	assert.True(t, issues[0].Fixed)
	require.Equal(t, 1, fixed.Len())
	assert.Equal(t, day("2018-04-27"), fixed.All()[0].FirstAppeared)
}

func TestRepair_MalformedRemovedRow(t *testing.T) {
	content := strings.Join(ledger.Columns, "\t") + "\n" +
		"株式会社テスト\t東京都\t東京労働局\t43217\tR2.12.1\t\t\t\t\tremoved\t\n"
	led, malformed, err := ledger.Read(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, malformed, 1)

	linter := New(nil, DefaultChecks())
	fixed, _ := linter.Repair(led, malformed, true)

	require.Equal(t, 1, fixed.Len())
	rec := fixed.All()[0]
	assert.Equal(t, model.StatusRemoved, rec.Status)
	require.NotNil(t, rec.LastAppeared)
	assert.Equal(t, day("2020-12-01"), *rec.LastAppeared)
	require.NotNil(t, rec.DurationDays)
	assert.Equal(t, 949, *rec.DurationDays)
}

func TestRepair_UnrecoverableDropped(t *testing.T) {
	content := strings.Join(ledger.Columns, "\t") + "\n" +
		"株式会社テスト\t東京都\t東京労働局\tまったく日付でない\t\t\t\t\t\tactive\t\n"
	led, malformed, err := ledger.Read(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, malformed, 1)

	linter := New(nil, DefaultChecks())
	fixed, issues := linter.Repair(led, malformed, true)

	require.Len(t, issues, 1)
	assert.True(t, issues[0].Dropped)
	assert.Equal(t, 0, fixed.Len())
}

func TestScan_DuplicateActiveReported(t *testing.T) {
	content := strings.Join(ledger.Columns, "\t") + "\n" +
		"株式会社テスト\t東京都\t東京労働局\t2024-01-15\t\t\t\t\t\tactive\t\n" +
		"株式会社テスト\t東京都\t東京労働局\t2024-03-01\t\t\t\t\t\tactive\t\n"
	led, malformed, err := ledger.Read(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, malformed, 1)

	linter := New(nil, DefaultChecks())
	issues := linter.Scan(led, malformed)
	require.Len(t, issues, 1)
	assert.Equal(t, model.CategoryDuplicateActive, issues[0].Category)
	assert.False(t, issues[0].Fixed)
	assert.False(t, issues[0].Dropped)
}
