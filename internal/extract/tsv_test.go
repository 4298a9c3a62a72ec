package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

func TestWriteSnapshot(t *testing.T) {
	records := []model.RawRecord{
		{
			CompanyName:      "株式会社サンプル",
			Location:         "東京都千代田区",
			LaborBureau:      "東京労働局",
			ViolationLaw:     "労働基準法第32条",
			ViolationSummary: "違法な時間外労働を行わせたもの",
			ProsecutionDate:  "2024-03-01",
			PublicationDate:  "2024-04-01",
		},
		{CompanyName: "有限会社テスト", LaborBureau: "大阪労働局"},
	}

	path := filepath.Join(t.TempDir(), "out", "snapshot.tsv")
	require.NoError(t, WriteSnapshot(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(SnapshotColumns, "\t"), lines[0])
	assert.Equal(t, "株式会社サンプル\t東京都千代田区\t東京労働局\t労働基準法第32条\t違法な時間外労働を行わせたもの\t2024-03-01\t2024-04-01", lines[1])
	assert.Equal(t, "有限会社テスト\t\t大阪労働局\t\t\t\t", lines[2])
}
