package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"valid iso passes through", "2024-01-15", "2024-01-15", true},
		{"excel serial", "43217", "2018-04-27", true},
		{"era buried in stray text", "町 R5.10.19", "2023-10-19", true},
		{"era with leading junk", "ヶ原H30.4.27", "2018-04-27", true},
		{"iso out of window", "1931-05-01", "", false},
		{"excel serial out of window", "10000", "", false},
		{"four digit number", "2024", "", false},
		{"free text", "平成30年4月27日", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FixDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}
