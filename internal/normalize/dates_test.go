package normalize

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"heisei era", "H30.4.27", "2018-04-27"},
		{"heisei single digit year", "H29.12.1", "2017-12-01"},
		{"reiwa era", "R7.5.30", "2025-05-30"},
		{"reiwa first year", "R1.5.1", "2019-05-01"},
		{"iso", "2024-01-15", "2024-01-15"},
		{"slash", "2024/1/5", "2024-01-05"},
		{"slash padded", "2024/01/05", "2024-01-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseSourceDate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"free text", "平成30年4月27日"},
		{"era without dots", "H30427"},
		{"month out of range", "2024/13/01"},
		{"day out of range", "R6.1.32"},
		{"impossible calendar date", "2023/2/30"},
		{"excel serial", "43217"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSourceDate(tt.input)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidDate))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	got, err := NormalizeDate("R6.11.29")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-29", got)

	got, err = NormalizeDate("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NormalizeDate("garbage")
	require.Error(t, err)
}

func TestYearInRange(t *testing.T) {
	in := func(s string) bool {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return YearInRange(d)
	}
	assert.True(t, in("2010-01-01"))
	assert.True(t, in("2024-06-15"))
	assert.True(t, in("2030-12-31"))
	assert.False(t, in("2009-12-31"))
	assert.False(t, in("2031-01-01"))
	assert.False(t, in("1931-05-01"))
}
