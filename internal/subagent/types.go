// Package subagent runs bounded child executions of the tool loop on behalf
// of a parent agent.
package subagent

import (
	"fmt"
	"time"
)

// Type selects the tool set and budget of a sub-agent.
type Type string

const (
	TypeExplore Type = "explore"
	TypeGeneral Type = "general"
)

// ParseType converts a model-supplied string, defaulting to explore.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "":
		return TypeExplore, nil
	case TypeExplore, TypeGeneral:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown sub-agent type %q (want %q or %q)", s, TypeExplore, TypeGeneral)
	}
}

// Context describes one sub-agent task. It is immutable once spawned.
type Context struct {
	ID                string `json:"id"`
	Type              Type   `json:"type"`
	Task              string `json:"task"`
	AdditionalContext string `json:"additional_context,omitempty"`
	Depth             int    `json:"depth"`
	ParentID          string `json:"parent_id,omitempty"`
	MaxTurns          int    `json:"max_turns"`
	MaxTokens         int    `json:"max_tokens"`
}

// Status is how a sub-agent run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusLimit     Status = "limit_reached"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// Result is the only channel through which a child reports to its parent.
type Result struct {
	ID         string        `json:"id"`
	Status     Status        `json:"status"`
	Success    bool          `json:"success"`
	Output     string        `json:"output,omitempty"`
	Error      string        `json:"error,omitempty"`
	TurnsUsed  int           `json:"turns_used"`
	TokensUsed int           `json:"tokens_used"`
	Duration   time.Duration `json:"duration_ns"`
}

// Limits is the budget and tool scope of one sub-agent type.
type Limits struct {
	MaxTurns     int      `json:"max_turns"`
	MaxTokens    int      `json:"max_tokens"`
	AllowedTools []string `json:"allowed_tools,omitempty"` // nil means every tool
}

// Config bounds the scheduler.
type Config struct {
	MaxDepth      int    `json:"max_depth"`
	MaxConcurrent int    `json:"max_concurrent"`
	Explore       Limits `json:"explore"`
	General       Limits `json:"general"`
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      2,
		MaxConcurrent: 3,
		Explore: Limits{
			MaxTurns:     15,
			MaxTokens:    200_000,
			AllowedTools: []string{"read_file", "list_directory", "find_file", "search_content"},
		},
		General: Limits{
			MaxTurns:  30,
			MaxTokens: 500_000,
		},
	}
}

func (c Config) limits(t Type) Limits {
	if t == TypeGeneral {
		return c.General
	}
	return c.Explore
}
