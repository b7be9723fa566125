package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short message unchanged", "gm molty", 20, "gm molty"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long message cut", "your molty finished deploying to discord", 15, "your molty f..."},
		{"multi-line message flattened", "first line\n\nsecond\r\nthird", 40, "first line second third"},
		{"tabs and runs of spaces collapsed", "a\t\tb    c", 10, "a b c"},
		{"runes not bytes", "héllo wörld ünïcode", 10, "héllo w..."},
		{"tiny limit raised", "abcdefgh", 1, "a..."},
		{"empty", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.input, tt.maxLen))
		})
	}
}
