package permission

import (
	"path"
	"regexp"
	"strings"
)

// forkBomb is matched with all whitespace removed.
const forkBomb = ":(){:|:&};:"

var (
	blockDeviceWrite = regexp.MustCompile(`>\s*/dev/(sd|nvme|hd|disk|mmcblk|vd|xvd)[a-z0-9]*`)
	blockDeviceArg   = regexp.MustCompile(`^of=/dev/(sd|nvme|hd|disk|mmcblk|vd|xvd)`)

	shells = map[string]bool{"sh": true, "bash": true, "zsh": true, "dash": true, "ksh": true}

	// wrappers run the next word as the command.
	wrappers = map[string]bool{"sudo": true, "doas": true, "env": true, "nohup": true, "exec": true, "command": true, "time": true}

	// rootTargets are rm/chmod operands that reach the whole system or home.
	rootTargets = map[string]bool{
		"/": true, "/*": true, "/.": true,
		"~": true, "~/": true, "~/*": true,
		"$home": true, "${home}": true, "$home/": true, "$home/*": true,
		"*": true,
	}
)

// segment is one simple command of a command line.
type segment struct {
	words []string
	// piped is set when the segment reads the previous segment's stdout.
	piped bool
}

// MatchDangerous reports the catastrophic pattern found in command, named in
// its canonical spelling.
func MatchDangerous(command string) (string, bool) {
	cmd := strings.ToLower(command)
	if strings.Contains(stripSpaces(cmd), forkBomb) {
		return ":(){ :|:& };:", true
	}
	if m := blockDeviceWrite.FindString(cmd); m != "" {
		return "> " + strings.TrimSpace(strings.TrimPrefix(m, ">")), true
	}
	for _, seg := range segments(cmd) {
		if hit, ok := dangerousSegment(seg); ok {
			return hit, true
		}
	}
	return "", false
}

func dangerousSegment(seg segment) (string, bool) {
	words := seg.words
	for len(words) > 0 && (wrappers[words[0]] || strings.HasPrefix(words[0], "-") || isAssignment(words[0])) {
		words = words[1:]
	}
	if len(words) == 0 {
		return "", false
	}
	name := path.Base(words[0])
	args := words[1:]

	switch {
	case seg.piped && shells[name]:
		return "| " + name, true
	case name == "mkfs" || strings.HasPrefix(name, "mkfs."):
		return "mkfs", true
	case name == "dd":
		for _, a := range args {
			if blockDeviceArg.MatchString(a) {
				return "dd " + a, true
			}
		}
	case name == "rm" || name == "chmod" || name == "chown":
		flags, operands := splitFlags(args)
		if !strings.ContainsRune(flags, 'r') {
			return "", false
		}
		for _, o := range operands {
			if rootTargets[o] {
				return name + " -r " + o, true
			}
		}
	}
	return "", false
}

// splitFlags collects short flag letters, mapping --recursive and --force,
// and returns the remaining operands with quotes removed.
func splitFlags(args []string) (string, []string) {
	var flags strings.Builder
	var operands []string
	for _, a := range args {
		switch {
		case a == "--recursive":
			flags.WriteByte('r')
		case a == "--force":
			flags.WriteByte('f')
		case strings.HasPrefix(a, "--"):
		case strings.HasPrefix(a, "-") && len(a) > 1:
			flags.WriteString(a[1:])
		default:
			operands = append(operands, strings.Trim(a, `"'`))
		}
	}
	return flags.String(), operands
}

// segments splits a command line on ;, &, &&, ||, |, newlines, parentheses
// and backquotes.
func segments(cmd string) []segment {
	var out []segment
	start, piped := 0, false
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		switch c {
		case ';', '&', '|', '\n', '(', ')', '`':
		default:
			continue
		}
		out = append(out, segment{words: strings.Fields(cmd[start:i]), piped: piped})
		piped = false
		next := byte(0)
		if i+1 < len(cmd) {
			next = cmd[i+1]
		}
		switch {
		case c == '|' && next == '|':
			i++
		case c == '|' && next == '&':
			i++
			piped = true
		case c == '|':
			piped = true
		case c == '&' && next == '&':
			i++
		}
		start = i + 1
	}
	return append(out, segment{words: strings.Fields(cmd[start:]), piped: piped})
}

func isAssignment(w string) bool {
	eq := strings.IndexByte(w, '=')
	return eq > 0 && !strings.ContainsAny(w[:eq], "/-.")
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
