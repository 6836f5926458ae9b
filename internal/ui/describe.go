package ui

import (
	"fmt"
	"strings"
)

// Describe is a one-line summary of a tool call.
func Describe(name string, args map[string]any) string {
	switch name {
	case "read_file", "write_file", "edit_file", "delete_file", "list_directory":
		if p, ok := args["path"].(string); ok {
			return fmt.Sprintf("%s %s", name, p)
		}
	case "shell":
		if cmd := commandString(args["command"]); cmd != "" {
			return fmt.Sprintf("shell '%s'", cmd)
		}
	case "find_file":
		if pattern, ok := args["pattern"].(string); ok {
			return fmt.Sprintf("find_file '%s'", pattern)
		}
	case "search_content":
		if query, ok := args["query"].(string); ok {
			return fmt.Sprintf("search_content '%s'", query)
		}
	case "spawn_agent":
		if task, ok := args["task"].(string); ok {
			return fmt.Sprintf("spawn_agent '%s'", task)
		}
	}
	return name
}

// Preview renders what a mutating call would do, or "" when there is
// nothing beyond the description to show.
func Preview(name string, args map[string]any) string {
	switch name {
	case "edit_file":
		return editPreview(args)
	case "write_file":
		content, _ := args["content"].(string)
		return clip(content, 20)
	case "shell":
		if cmd := commandString(args["command"]); cmd != "" {
			return "$ " + cmd
		}
	}
	return ""
}

func editPreview(args map[string]any) string {
	ops, ok := args["operations"].([]any)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for i, op := range ops {
		m, ok := op.(map[string]any)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "Operation %d:\n", i+1)
		if before, ok := m["before"].(string); ok && before != "" {
			sb.WriteString("  - " + strings.ReplaceAll(before, "\n", "\n  - ") + "\n")
		}
		if after, ok := m["after"].(string); ok {
			sb.WriteString("  + " + strings.ReplaceAll(after, "\n", "\n  + ") + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func commandString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []string:
		return strings.Join(c, " ")
	case []any:
		parts := make([]string, len(c))
		for i, p := range c {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func clip(s string, maxLines int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:maxLines], "\n") + fmt.Sprintf("\n… %d more lines", len(lines)-maxLines)
}
