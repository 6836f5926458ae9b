package config

import (
	"github.com/Cyclone1070/agentcore/internal/failure"
	"github.com/Cyclone1070/agentcore/internal/subagent"
)

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Loop      LoopConfig      `json:"loop"`
	SubAgents SubAgentsConfig `json:"sub_agents"`
	Failure   FailureConfig   `json:"failure"`
	Provider  ProviderConfig  `json:"provider"`
	Tools     ToolsConfig     `json:"tools"`
	UI        UIConfig        `json:"ui"`
	MCP       MCPConfig       `json:"mcp"`
}

type LoopConfig struct {
	MaxTurns     int  `json:"max_turns" envconfig:"MAX_TURNS"`         // Default: 50
	MaxTokens    int  `json:"max_tokens" envconfig:"MAX_TOKENS"`       // Default: 0 (unbounded)
	PlanFirst    bool `json:"plan_first" envconfig:"PLAN_FIRST"`       // Default: false
	CompactAfter int  `json:"compact_after" envconfig:"COMPACT_AFTER"` // Default: 200 messages, 0 disables
}

type AgentLimits struct {
	MaxTurns     int      `json:"max_turns" envconfig:"MAX_TURNS"`
	MaxTokens    int      `json:"max_tokens" envconfig:"MAX_TOKENS"`
	AllowedTools []string `json:"allowed_tools,omitempty" envconfig:"ALLOWED_TOOLS"`
}

type SubAgentsConfig struct {
	MaxDepth      int         `json:"max_depth" envconfig:"MAX_DEPTH"`           // Default: 2
	MaxConcurrent int         `json:"max_concurrent" envconfig:"MAX_CONCURRENT"` // Default: 3
	Explore       AgentLimits `json:"explore" envconfig:"EXPLORE"`
	General       AgentLimits `json:"general" envconfig:"GENERAL"`
}

type FailureConfig struct {
	MaxConsecutiveFailures int `json:"max_consecutive_failures" envconfig:"MAX_CONSECUTIVE"` // Default: 3
	MaxTotalFailures       int `json:"max_total_failures" envconfig:"MAX_TOTAL"`             // Default: 10
}

type ProviderConfig struct {
	Model           string   `json:"model" envconfig:"MODEL"` // Default: gemini-2.5-flash
	APIKey          string   `json:"-" envconfig:"API_KEY"`
	Temperature     *float32 `json:"temperature,omitempty" envconfig:"TEMPERATURE"`
	MaxOutputTokens int32    `json:"max_output_tokens" envconfig:"MAX_OUTPUT_TOKENS"` // Default: 8192
	Stream          bool     `json:"stream" envconfig:"STREAM"`                       // Default: true
	MaxRetries      int      `json:"max_retries" envconfig:"MAX_RETRIES"`             // Default: 2
}

type ToolsConfig struct {
	// File Operations
	MaxFileSize int64 `json:"max_file_size"` // Default: 5 * 1024 * 1024 (5MB)

	// Directory Listing
	DefaultListDirectoryLimit int `json:"default_list_directory_limit"` // Default: 1000
	MaxListDirectoryLimit     int `json:"max_list_directory_limit"`     // Default: 10000
	MaxListDirectoryResults   int `json:"max_list_directory_results"`   // Default: 50000

	// Command Execution
	DefaultMaxCommandOutputSize int64 `json:"default_max_command_output_size"` // Default: 1MB
	DefaultShellTimeout         int   `json:"default_shell_timeout"`           // Default: 120 seconds
	GracefulShutdownMs          int   `json:"graceful_shutdown_ms"`            // Default: 2000

	// Search
	MaxSearchContentResults   int `json:"max_search_content_results"`   // Default: 10000
	MaxLineLength             int `json:"max_line_length"`              // Default: 10000
	DefaultSearchContentLimit int `json:"default_search_content_limit"` // Default: 100
	MaxSearchContentLimit     int `json:"max_search_content_limit"`     // Default: 1000
	MaxFindFileResults        int `json:"max_find_file_results"`        // Default: 10000
	DefaultFindFileLimit      int `json:"default_find_file_limit"`      // Default: 100
	MaxFindFileLimit          int `json:"max_find_file_limit"`          // Default: 1000
}

type UIConfig struct {
	ColorPrimary  string `json:"color_primary"`  // Default: "63"
	ColorSuccess  string `json:"color_success"`  // Default: "42"
	ColorError    string `json:"color_error"`    // Default: "196"
	ColorWarning  string `json:"color_warning"`  // Default: "214"
	ColorMuted    string `json:"color_muted"`    // Default: "241"
	MarkdownStyle string `json:"markdown_style"` // Default: "auto"
}

// MCPServer is one stdio MCP server whose tools are exposed as mcp__<name>__<tool>.
type MCPServer struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

type MCPConfig struct {
	Servers map[string]MCPServer `json:"servers,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	sub := subagent.DefaultConfig()
	fail := failure.DefaultConfig()
	return &Config{
		Loop: LoopConfig{
			MaxTurns:     50,
			CompactAfter: 200,
		},
		SubAgents: SubAgentsConfig{
			MaxDepth:      sub.MaxDepth,
			MaxConcurrent: sub.MaxConcurrent,
			Explore: AgentLimits{
				MaxTurns:     sub.Explore.MaxTurns,
				MaxTokens:    sub.Explore.MaxTokens,
				AllowedTools: sub.Explore.AllowedTools,
			},
			General: AgentLimits{
				MaxTurns:  sub.General.MaxTurns,
				MaxTokens: sub.General.MaxTokens,
			},
		},
		Failure: FailureConfig{
			MaxConsecutiveFailures: fail.MaxConsecutiveFailures,
			MaxTotalFailures:       fail.MaxTotalFailures,
		},
		Provider: ProviderConfig{
			Model:           "gemini-2.5-flash",
			MaxOutputTokens: 8192,
			Stream:          true,
			MaxRetries:      2,
		},
		Tools: ToolsConfig{
			MaxFileSize:                 5 * 1024 * 1024,
			DefaultListDirectoryLimit:   1000,
			MaxListDirectoryLimit:       10000,
			MaxListDirectoryResults:     50000,
			DefaultMaxCommandOutputSize: 1024 * 1024,
			DefaultShellTimeout:         120,
			GracefulShutdownMs:          2000,
			MaxSearchContentResults:     10000,
			MaxLineLength:               10000,
			DefaultSearchContentLimit:   100,
			MaxSearchContentLimit:       1000,
			MaxFindFileResults:          10000,
			DefaultFindFileLimit:        100,
			MaxFindFileLimit:            1000,
		},
		UI: UIConfig{
			ColorPrimary:  "63",
			ColorSuccess:  "42",
			ColorError:    "196",
			ColorWarning:  "214",
			ColorMuted:    "241",
			MarkdownStyle: "auto",
		},
	}
}

// Scheduler converts the sub-agent section for the scheduler.
func (c *Config) Scheduler() subagent.Config {
	return subagent.Config{
		MaxDepth:      c.SubAgents.MaxDepth,
		MaxConcurrent: c.SubAgents.MaxConcurrent,
		Explore: subagent.Limits{
			MaxTurns:     c.SubAgents.Explore.MaxTurns,
			MaxTokens:    c.SubAgents.Explore.MaxTokens,
			AllowedTools: c.SubAgents.Explore.AllowedTools,
		},
		General: subagent.Limits{
			MaxTurns:     c.SubAgents.General.MaxTurns,
			MaxTokens:    c.SubAgents.General.MaxTokens,
			AllowedTools: c.SubAgents.General.AllowedTools,
		},
	}
}

// Tracker converts the failure section for the failure tracker.
func (c *Config) Tracker() failure.Config {
	return failure.Config{
		MaxConsecutiveFailures: c.Failure.MaxConsecutiveFailures,
		MaxTotalFailures:       c.Failure.MaxTotalFailures,
	}
}
