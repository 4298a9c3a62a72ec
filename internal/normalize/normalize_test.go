package normalize

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

func TestNormalize(t *testing.T) {
	n := New(nil)

	rec, err := n.Normalize(model.RawRecord{
		CompanyName:      "株式会社　テスト  工業",
		Location:         "東 京都千代田区",
		LaborBureau:      "東京労働局",
		ViolationLaw:     "労働基準法第32条",
		ViolationSummary: "違法な時間外労働を行わせたもの",
		PublicationDate:  "R6.11.29",
		ProsecutionDate:  "R6.7.1",
	})
	require.NoError(t, err)

	assert.Equal(t, "株式会社 テスト 工業", rec.CompanyName)
	assert.Equal(t, "東京都千代田区", rec.Location, "location whitespace is stripped, not collapsed")
	assert.Equal(t, "東京労働局", rec.LaborBureau)
	assert.Equal(t, "2024-11-29", rec.PublicationDate)
	assert.Equal(t, "2024-07-01", rec.ProsecutionDate)
	assert.Equal(t, model.NaturalKey("株式会社 テスト 工業", "東京都千代田区", "東京労働局"), rec.Key)
	assert.False(t, rec.GarbledLocation)
}

func TestNormalize_InvalidRecords(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		raw  model.RawRecord
	}{
		{"empty name", model.RawRecord{CompanyName: "", Location: "東京都"}},
		{"single rune name", model.RawRecord{CompanyName: "あ", Location: "東京都"}},
		{"dash placeholder", model.RawRecord{CompanyName: "－", Location: "東京都"}},
		{"header fragment", model.RawRecord{CompanyName: "企業・事業場名称", Location: "東京都"}},
		{"page title", model.RawRecord{CompanyName: "労働基準関係法令違反に係る公表事案", Location: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.raw)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidRecord))
		})
	}
}

func TestNormalize_BadDate(t *testing.T) {
	n := New(nil)
	_, err := n.Normalize(model.RawRecord{
		CompanyName:     "株式会社テスト",
		Location:        "東京都",
		PublicationDate: "平成30年",
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidDate))
}

func TestNormalize_EmptyDatesAllowed(t *testing.T) {
	n := New(nil)
	rec, err := n.Normalize(model.RawRecord{
		CompanyName: "株式会社テスト",
		Location:    "東京都",
	})
	require.NoError(t, err)
	assert.Empty(t, rec.PublicationDate)
	assert.Empty(t, rec.ProsecutionDate)
}

func TestNormalize_CorruptionTable(t *testing.T) {
	table := CorruptionTable{"東あ京い都う区え": "東京都千代田区"}
	n := New(table)

	rec, err := n.Normalize(model.RawRecord{
		CompanyName: "株式会社テスト",
		Location:    "東あ京い都う区え",
	})
	require.NoError(t, err)
	assert.Equal(t, "東京都千代田区", rec.Location)
	assert.False(t, rec.GarbledLocation, "a repaired location is no longer garbled")
}

func TestNormalize_GarbledWithoutTableEntry(t *testing.T) {
	n := New(nil)
	rec, err := n.Normalize(model.RawRecord{
		CompanyName: "株式会社テスト",
		Location:    "東あ京い都う区え",
	})
	require.NoError(t, err)
	assert.True(t, rec.GarbledLocation)
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpace("  a \t b　　c "))
	assert.Empty(t, CollapseSpace("　 \t "))
}

func TestStripSpace(t *testing.T) {
	assert.Equal(t, "東京都", StripSpace("東 京　都"))
	assert.Equal(t, "abc", StripSpace("a b c"))
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, IsBoilerplate("-"))
	assert.True(t, IsBoilerplate("ー"))
	assert.True(t, IsBoilerplate("所在地"))
	assert.False(t, IsBoilerplate("株式会社テスト"))
}
