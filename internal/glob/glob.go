// Package glob compiles glob patterns into anchored, case-insensitive regular expressions.
//
// Two flavours exist. Path globs treat "/" as a separator: "*" and "?" stay inside one
// segment, "**" crosses segments and "**/" also matches zero directories. Command globs
// treat the whole target as a single segment, so "*" matches any run of characters.
// Every other metacharacter is matched literally.
package glob

import (
	"regexp"
	"strings"
)

// Kind selects how separators are treated.
type Kind int

const (
	// Path treats "/" (and "\", which is normalized to "/") as a segment separator.
	Path Kind = iota
	// Command matches the target as one segment.
	Command
)

// NormalizePath unifies separators and strips leading slashes so that
// "/src\\main.go" and "src/main.go" compare equal.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimLeft(p, "/")
}

// NormalizeCommand trims surrounding whitespace.
func NormalizeCommand(c string) string {
	return strings.TrimSpace(c)
}

// Normalize applies the normalization matching kind.
func Normalize(kind Kind, target string) string {
	if kind == Command {
		return NormalizeCommand(target)
	}
	return NormalizePath(target)
}

// Compile translates pattern into a regular expression for the given kind.
func Compile(kind Kind, pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(Translate(kind, pattern))
}

// Translate returns the regular expression source for pattern.
func Translate(kind Kind, pattern string) string {
	pattern = Normalize(kind, pattern)

	var sb strings.Builder
	sb.WriteString("(?is)^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				i++
				// collapse runs like "***"
				for i+1 < len(runes) && runes[i+1] == '*' {
					i++
				}
				if kind == Path && i+1 < len(runes) && runes[i+1] == '/' {
					i++
					sb.WriteString("(?:.*/)?")
					continue
				}
				sb.WriteString(".*")
				continue
			}
			if kind == Path {
				sb.WriteString("[^/]*")
			} else {
				sb.WriteString(".*")
			}
		case '?':
			if kind == Path {
				sb.WriteString("[^/]")
			} else {
				sb.WriteString(".")
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	sb.WriteString("$")
	return sb.String()
}

// Match reports whether target matches pattern. Invalid patterns never match.
func Match(kind Kind, pattern, target string) bool {
	re, err := Compile(kind, pattern)
	if err != nil {
		return false
	}
	return re.MatchString(Normalize(kind, target))
}
