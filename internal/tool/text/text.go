// Package text holds the content helpers shared by the tools: binary
// sniffing, line splitting and result paging.
package text

import (
	"bytes"
	"strings"
)

// SniffLen matches git's binary heuristic.
const SniffLen = 8000

// UTF-16 and UTF-32 text legitimately contains NUL bytes.
var textBOMs = [][]byte{
	{0xFF, 0xFE},
	{0xFE, 0xFF},
	{0x00, 0x00, 0xFE, 0xFF},
}

// IsBinary reports whether data looks binary: a NUL byte in the first
// SniffLen bytes, unless data starts with a UTF-16 or UTF-32 BOM.
func IsBinary(data []byte) bool {
	for _, bom := range textBOMs {
		if bytes.HasPrefix(data, bom) {
			return false
		}
	}
	return bytes.IndexByte(data[:min(len(data), SniffLen)], 0) >= 0
}

// Lines splits s on LF or CRLF. A final line ending does not produce a
// trailing empty line, and an empty s yields nil.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
