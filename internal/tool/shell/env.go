package shell

import (
	"strings"

	"github.com/Cyclone1070/agentcore/internal/tool/text"
)

type envFileReader interface {
	ReadFileRange(path string, offset, limit int64) ([]byte, error)
}

// ParseEnvFile parses KEY=VALUE lines from a .env file. Blank lines, comments
// and an optional "export " prefix are accepted; matching single or double
// quotes around a value are stripped. Multi-line values and variable
// expansion are not supported.
func ParseEnvFile(fs envFileReader, path string) (map[string]string, error) {
	data, err := fs.ReadFileRange(path, 0, 0)
	if err != nil {
		return nil, &EnvFileReadError{Path: path, Cause: err}
	}

	env := make(map[string]string)
	for i, raw := range text.Lines(string(data)) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &EnvFileParseError{Path: path, Line: i + 1, Content: line}
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		env[key] = value
	}
	return env, nil
}
