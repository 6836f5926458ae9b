package text

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single line", "line1", []string{"line1"}},
		{"lf", "a\nb\nc", []string{"a", "b", "c"}},
		{"trailing lf", "a\n", []string{"a"}},
		{"only lf", "\n", []string{""}},
		{"crlf", "a\r\nb\r\nc", []string{"a", "b", "c"}},
		{"trailing crlf", "a\r\n", []string{"a"}},
		{"mixed", "a\nb\r\nc", []string{"a", "b", "c"}},
		{"blank lines kept", "a\n\n\nb", []string{"a", "", "", "b"}},
		{"lone cr kept", "a\rb", []string{"a\rb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lines(tt.input))
		})
	}
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"empty", nil, false},
		{"plain text", []byte("hello\nworld"), false},
		{"nul byte", []byte("ab\x00cd"), true},
		{"utf16 le bom", []byte{0xFF, 0xFE, 'a', 0x00}, false},
		{"utf16 be bom", []byte{0xFE, 0xFF, 0x00, 'a'}, false},
		{"utf32 be bom", []byte{0x00, 0x00, 0xFE, 0xFF, 0x00, 0x00, 0x00, 'a'}, false},
		{"nul past sniff window", append(bytes.Repeat([]byte("a"), SniffLen), 0), false},
		{"nul at end of sniff window", append(bytes.Repeat([]byte("a"), SniffLen-1), 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBinary(tt.data))
		})
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name          string
		offset, limit int
		want          []int
		more          bool
	}{
		{"first page", 0, 2, []int{1, 2}, true},
		{"middle", 2, 2, []int{3, 4}, true},
		{"last exact", 3, 2, []int{4, 5}, false},
		{"limit past end", 4, 10, []int{5}, false},
		{"offset past end", 9, 2, []int{}, false},
		{"zero limit", 0, 0, []int{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, w := Page(items, tt.offset, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 5, w.Total)
			assert.Equal(t, tt.more, w.More())
		})
	}
}

func TestWindowFooter(t *testing.T) {
	assert.Equal(t, "", Window{Offset: 0, Shown: 3, Total: 3}.Footer("files", false, 100))
	assert.Equal(t, "\n[showing 11-20 of 45 files; more at offset 20]",
		Window{Offset: 10, Shown: 10, Total: 45}.Footer("files", false, 100))
	assert.Equal(t, "\n[results capped at 100 matches]",
		Window{Offset: 0, Shown: 10, Total: 100}.Footer("matches", true, 100))
}
