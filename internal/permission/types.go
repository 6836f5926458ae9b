// Package permission implements the glob-based rule engine that decides whether a
// tool may touch a path or run a command.
package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Action is the verdict attached to a rule.
type Action string

const (
	ActionAllow Action = "allow"
	ActionDeny  Action = "deny"
	ActionAsk   Action = "ask"
)

// ParseAction converts a config string into an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAllow, ActionDeny, ActionAsk:
		return a, nil
	default:
		return "", &InvalidActionError{Value: s}
	}
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a == ActionAllow || a == ActionDeny || a == ActionAsk
}

func (a Action) rank() int {
	switch a {
	case ActionDeny:
		return 2
	case ActionAsk:
		return 1
	default:
		return 0
	}
}

// Strictest returns the more restrictive of two actions (deny > ask > allow).
func Strictest(a, b Action) Action {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Category partitions rules. Evaluation never crosses categories.
type Category string

const (
	CategoryRead              Category = "read"
	CategoryEdit              Category = "edit"
	CategoryBash              Category = "bash"
	CategoryExternalDirectory Category = "external_directory"
	CategoryMcpTools          Category = "mcp_tools"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryRead,
	CategoryEdit,
	CategoryBash,
	CategoryExternalDirectory,
	CategoryMcpTools,
}

// Rule maps a glob pattern to an action.
type Rule struct {
	Pattern  string
	Action   Action
	Priority int
	Reason   string
}

// Config owns the rule lists for every category and the fallback action.
// It is read-only once handed to an Engine.
type Config struct {
	Read              []Rule
	Edit              []Rule
	Bash              []Rule
	ExternalDirectory []Rule
	McpTools          []Rule
	DefaultAction     Action
}

// Rules returns the rule list for a category.
func (c *Config) Rules(category Category) []Rule {
	switch category {
	case CategoryRead:
		return c.Read
	case CategoryEdit:
		return c.Edit
	case CategoryBash:
		return c.Bash
	case CategoryExternalDirectory:
		return c.ExternalDirectory
	case CategoryMcpTools:
		return c.McpTools
	default:
		return nil
	}
}

// Validate checks every action in the config.
func (c *Config) Validate() error {
	if !c.DefaultAction.Valid() {
		return &InvalidActionError{Value: string(c.DefaultAction), Field: "default_action"}
	}
	for _, cat := range Categories {
		for i, r := range c.Rules(cat) {
			if !r.Action.Valid() {
				return &InvalidActionError{Value: string(r.Action), Field: fmt.Sprintf("%s[%d]", cat, i)}
			}
			if strings.TrimSpace(r.Pattern) == "" {
				return fmt.Errorf("%s[%d]: %w", cat, i, ErrEmptyPattern)
			}
		}
	}
	return nil
}

// Decision is the outcome of evaluating a target.
type Decision struct {
	Action Action
	Rule   *Rule // nil when the default action or the built-in override applied
	Reason string
}

var (
	// ErrNilConfig is returned when an engine is built without a config.
	ErrNilConfig = errors.New("permission config is required")
	// ErrEmptyPattern is returned for rules with a blank pattern.
	ErrEmptyPattern = errors.New("rule pattern cannot be empty")
)

// InvalidActionError is returned for unknown action strings.
type InvalidActionError struct {
	Value string
	Field string
}

func (e *InvalidActionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid action %q for %s (want allow, deny or ask)", e.Value, e.Field)
	}
	return fmt.Sprintf("invalid action %q (want allow, deny or ask)", e.Value)
}
