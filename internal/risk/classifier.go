// Package risk classifies proposed tool calls by consulting the permission
// rules and layering command heuristics on top.
package risk

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Cyclone1070/agentcore/internal/permission"
	"github.com/Cyclone1070/agentcore/internal/tool/service/path"
)

// Level grades how much damage a call could do.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	case LevelCritical:
		return "critical"
	default:
		return "low"
	}
}

// Family groups tools that share an argument shape and rule category.
type Family string

const (
	FamilyRead   Family = "read"
	FamilyWrite  Family = "write"
	FamilyDelete Family = "delete"
	FamilyShell  Family = "shell"
	FamilyPlugin Family = "plugin"
	FamilyOther  Family = "other"
)

// Assessment is the classifier's verdict for one call. It is recomputed per call.
type Assessment struct {
	IsRisky        bool
	Level          Level
	Reason         string
	ApprovalPrompt string

	Action   permission.Action
	Category permission.Category
	Target   string
	Family   Family
}

// ruleEvaluator is the rule engine as the classifier sees it.
type ruleEvaluator interface {
	Evaluate(category permission.Category, target string) permission.Decision
}

// pathLocator places a path relative to the workspace.
type pathLocator interface {
	Locate(p string) (path.Location, error)
}

// PluginPrefix marks tools provided by external MCP servers.
const PluginPrefix = "mcp__"

var knownFamilies = map[string]Family{
	"read_file":      FamilyRead,
	"list_directory": FamilyRead,
	"find_file":      FamilyRead,
	"search_content": FamilyRead,
	"write_file":     FamilyWrite,
	"edit_file":      FamilyWrite,
	"delete_file":    FamilyDelete,
	"shell":          FamilyShell,
	"bash":           FamilyShell,
	"run_command":    FamilyShell,
	"execute":        FamilyShell,
	"spawn_agent":    FamilyOther,
	"read_todos":     FamilyOther,
	"write_todos":    FamilyOther,
}

var familyPrefixes = []struct {
	prefix string
	family Family
}{
	{"read_", FamilyRead},
	{"list_", FamilyRead},
	{"find_", FamilyRead},
	{"search_", FamilyRead},
	{"get_", FamilyRead},
	{"write_", FamilyWrite},
	{"edit_", FamilyWrite},
	{"create_", FamilyWrite},
	{"update_", FamilyWrite},
	{"delete_", FamilyDelete},
	{"remove_", FamilyDelete},
}

var (
	pathKeys    = []string{"path", "file_path", "filepath", "file", "directory", "dir", "target"}
	commandKeys = []string{"command", "cmd", "script"}
)

// Classifier assesses the risk of tool calls.
type Classifier struct {
	rules     ruleEvaluator
	workspace pathLocator
}

// NewClassifier creates a Classifier backed by rules. Paths are placed with workspace.
func NewClassifier(rules ruleEvaluator, workspace pathLocator) *Classifier {
	if rules == nil {
		panic("rules is required")
	}
	if workspace == nil {
		panic("workspace is required")
	}
	return &Classifier{rules: rules, workspace: workspace}
}

// CanonicalName lower-cases name, splits CamelCase and maps '-', '.' and spaces to '_'.
// The "mcp__" plugin separator is preserved.
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '.':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FamilyOf returns the family of a tool name.
func FamilyOf(name string) Family {
	canonical := CanonicalName(name)
	if strings.HasPrefix(canonical, PluginPrefix) {
		return FamilyPlugin
	}
	if f, ok := knownFamilies[canonical]; ok {
		return f
	}
	for _, p := range familyPrefixes {
		if strings.HasPrefix(canonical, p.prefix) {
			return p.family
		}
	}
	return FamilyOther
}

// AssessRisk classifies a proposed call of toolName with args.
func (c *Classifier) AssessRisk(toolName string, args map[string]any) Assessment {
	canonical := CanonicalName(toolName)
	family := FamilyOf(canonical)

	var a Assessment
	switch family {
	case FamilyRead:
		a = c.assessPath(permission.CategoryRead, stringArg(args, pathKeys), LevelLow)
	case FamilyWrite:
		a = c.assessPath(permission.CategoryEdit, stringArg(args, pathKeys), LevelMedium)
	case FamilyDelete:
		a = c.assessPath(permission.CategoryEdit, stringArg(args, pathKeys), LevelHigh)
	case FamilyShell:
		a = c.assessShell(commandArg(args))
	case FamilyPlugin:
		a = c.assessPlugin(canonical)
	default:
		a = Assessment{Action: permission.ActionAllow, Level: LevelLow, Reason: "no permission category applies"}
	}
	a.Family = family
	finish(&a, canonical)
	return a
}

// assessPath evaluates a path in category and, when the path leaves the
// workspace, also in external_directory. The stricter verdict wins.
func (c *Classifier) assessPath(category permission.Category, p string, base Level) Assessment {
	target := p
	external := false
	if p != "" {
		if loc, err := c.workspace.Locate(p); err == nil {
			if loc.Inside {
				target = loc.Rel
				if target == "" {
					target = "."
				}
			} else {
				target = loc.Abs
				external = true
			}
		}
	}

	d := c.rules.Evaluate(category, target)
	a := Assessment{Action: d.Action, Category: category, Target: target, Level: base, Reason: d.Reason}

	if external {
		ext := c.rules.Evaluate(permission.CategoryExternalDirectory, target)
		if permission.Strictest(d.Action, ext.Action) != d.Action {
			a.Action = ext.Action
			a.Category = permission.CategoryExternalDirectory
			a.Reason = ext.Reason
		}
		a.Reason = "path is outside the workspace; " + a.Reason
		a.Level = max(a.Level, LevelMedium)
	}
	return a
}

func (c *Classifier) assessShell(command string) Assessment {
	d := c.rules.Evaluate(permission.CategoryBash, command)
	level, why := ShellLevel(command)
	reason := d.Reason
	if why != "" {
		reason = reason + "; " + why
	}
	return Assessment{
		Action:   d.Action,
		Category: permission.CategoryBash,
		Target:   command,
		Level:    level,
		Reason:   reason,
	}
}

func (c *Classifier) assessPlugin(canonical string) Assessment {
	d := c.rules.Evaluate(permission.CategoryMcpTools, canonical)
	return Assessment{
		Action:   d.Action,
		Category: permission.CategoryMcpTools,
		Target:   canonical,
		Level:    LevelMedium,
		Reason:   d.Reason,
	}
}

// finish derives IsRisky and the approval prompt from the verdict.
// Deny never carries a prompt; Ask always does.
func finish(a *Assessment, toolName string) {
	switch a.Action {
	case permission.ActionDeny:
		a.IsRisky = true
		a.ApprovalPrompt = ""
	case permission.ActionAsk:
		a.IsRisky = true
		a.ApprovalPrompt = approvalPrompt(a, toolName)
	default:
		a.IsRisky = a.Level >= LevelHigh
	}
}

func approvalPrompt(a *Assessment, toolName string) string {
	target := a.Target
	if target == "" {
		target = "(no target)"
	}
	return fmt.Sprintf("Allow %s on %s? Risk: %s. %s", toolName, target, a.Level, a.Reason)
}

var (
	criticalShell = []*regexp.Regexp{
		regexp.MustCompile(`\brm\s+(\S+\s+)*-[a-z]*[rf]`),
		regexp.MustCompile(`\brm\s+--(recursive|force)\b`),
		regexp.MustCompile(`\bmkfs(\.\w+)?\b`),
		regexp.MustCompile(`\bdd\s+.*\bof=`),
		regexp.MustCompile(`\b(shred|wipefs)\b`),
		regexp.MustCompile(`:\(\)\s*\{`),
		regexp.MustCompile(`>\s*/dev/(sd|nvme|hd|disk)`),
		regexp.MustCompile(`\bfind\b.*\s-delete\b`),
	}
	highShell = []*regexp.Regexp{
		regexp.MustCompile(`(^|[;&|]\s*|\s)(sudo|su|doas|pkexec)(\s|$)`),
		regexp.MustCompile(`\b(curl|wget|fetch)\b[^|]*\|\s*(sudo\s+)?(sh|bash|zsh|ksh|dash|python3?|perl|ruby)\b`),
		regexp.MustCompile(`\bchmod\s+(-[a-z]+\s+)*([ugoa]*\+s|[2467][0-7]{3})\b`),
		regexp.MustCompile(`\bgit\s+push\b.*(--force\b|\s-f\b)`),
		regexp.MustCompile(`\bgit\s+reset\s+--hard\b`),
	}
)

// ShellLevel grades a command by pattern alone, independent of any rule.
func ShellLevel(command string) (Level, string) {
	cmd := strings.ToLower(strings.TrimSpace(command))
	if hit, ok := permission.MatchDangerous(cmd); ok {
		return LevelCritical, fmt.Sprintf("catastrophic pattern %q", hit)
	}
	for _, re := range criticalShell {
		if re.MatchString(cmd) {
			return LevelCritical, "destructive filesystem operation"
		}
	}
	for _, re := range highShell {
		if re.MatchString(cmd) {
			return LevelHigh, "elevated privileges or remote code execution"
		}
	}
	return LevelMedium, ""
}

func stringArg(args map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := args[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// commandArg accepts a command given as one string or as an argv list.
func commandArg(args map[string]any) string {
	for _, k := range commandKeys {
		switch v := args[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case []string:
			return strings.Join(v, " ")
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, " ")
		}
	}
	return ""
}
