package config

import (
	"fmt"
	"strconv"
)

// Validate checks config values for life correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Loop
	if c.Loop.MaxTurns < 1 {
		errs = append(errs, "loop.max_turns must be >= 1")
	}
	if c.Loop.MaxTokens < 0 {
		errs = append(errs, "loop.max_tokens must be >= 0")
	}
	if c.Loop.CompactAfter < 0 {
		errs = append(errs, "loop.compact_after must be >= 0")
	}

	// Sub-agents
	if c.SubAgents.MaxDepth < 0 {
		errs = append(errs, "sub_agents.max_depth must be >= 0")
	}
	if c.SubAgents.MaxConcurrent < 1 {
		errs = append(errs, "sub_agents.max_concurrent must be >= 1")
	}
	if c.SubAgents.Explore.MaxTurns < 1 {
		errs = append(errs, "sub_agents.explore.max_turns must be >= 1")
	}
	if c.SubAgents.General.MaxTurns < 1 {
		errs = append(errs, "sub_agents.general.max_turns must be >= 1")
	}
	if c.SubAgents.Explore.MaxTokens < 0 || c.SubAgents.General.MaxTokens < 0 {
		errs = append(errs, "sub_agents.*.max_tokens must be >= 0")
	}

	// Failure tracking
	if c.Failure.MaxConsecutiveFailures < 1 {
		errs = append(errs, "failure.max_consecutive_failures must be >= 1")
	}
	if c.Failure.MaxTotalFailures < 1 {
		errs = append(errs, "failure.max_total_failures must be >= 1")
	}

	// Provider
	if c.Provider.Model == "" {
		errs = append(errs, "provider.model must not be empty")
	}
	if c.Provider.MaxOutputTokens < 1 {
		errs = append(errs, "provider.max_output_tokens must be >= 1")
	}
	if t := c.Provider.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, "provider.temperature must be between 0 and 2")
	}
	if c.Provider.MaxRetries < 0 {
		errs = append(errs, "provider.max_retries must be >= 0")
	}

	// Tools validation
	if c.Tools.MaxFileSize < 1 {
		errs = append(errs, "tools.max_file_size must be >= 1")
	}
	if c.Tools.DefaultListDirectoryLimit < 1 {
		errs = append(errs, "tools.default_list_directory_limit must be >= 1")
	}
	if c.Tools.MaxListDirectoryLimit < 1 {
		errs = append(errs, "tools.max_list_directory_limit must be >= 1")
	}
	if c.Tools.MaxListDirectoryResults < 1 {
		errs = append(errs, "tools.max_list_directory_results must be >= 1")
	}
	if c.Tools.DefaultMaxCommandOutputSize < 1 {
		errs = append(errs, "tools.default_max_command_output_size must be >= 1")
	}
	if c.Tools.DefaultShellTimeout < 1 {
		errs = append(errs, "tools.default_shell_timeout must be >= 1")
	}
	if c.Tools.GracefulShutdownMs < 0 {
		errs = append(errs, "tools.graceful_shutdown_ms must be >= 0")
	}

	// Tools validation - Search & Find
	if c.Tools.MaxLineLength < 1 {
		errs = append(errs, "tools.max_line_length must be >= 1")
	}
	if c.Tools.MaxSearchContentResults < 1 {
		errs = append(errs, "tools.max_search_content_results must be >= 1")
	}
	if c.Tools.DefaultSearchContentLimit < 1 {
		errs = append(errs, "tools.default_search_content_limit must be >= 1")
	}
	if c.Tools.MaxSearchContentLimit < 1 {
		errs = append(errs, "tools.max_search_content_limit must be >= 1")
	}
	if c.Tools.MaxFindFileResults < 1 {
		errs = append(errs, "tools.max_find_file_results must be >= 1")
	}
	if c.Tools.DefaultFindFileLimit < 1 {
		errs = append(errs, "tools.default_find_file_limit must be >= 1")
	}
	if c.Tools.MaxFindFileLimit < 1 {
		errs = append(errs, "tools.max_find_file_limit must be >= 1")
	}

	// Semantic validation: Default <= Max constraints
	if c.Tools.DefaultListDirectoryLimit > c.Tools.MaxListDirectoryLimit {
		errs = append(errs, "tools.default_list_directory_limit must be <= tools.max_list_directory_limit")
	}
	if c.Tools.DefaultSearchContentLimit > c.Tools.MaxSearchContentLimit {
		errs = append(errs, "tools.default_search_content_limit must be <= tools.max_search_content_limit")
	}
	if c.Tools.DefaultFindFileLimit > c.Tools.MaxFindFileLimit {
		errs = append(errs, "tools.default_find_file_limit must be <= tools.max_find_file_limit")
	}

	// UI colors are ANSI 256 codes
	colors := map[string]string{
		"ui.color_primary": c.UI.ColorPrimary,
		"ui.color_success": c.UI.ColorSuccess,
		"ui.color_error":   c.UI.ColorError,
		"ui.color_warning": c.UI.ColorWarning,
		"ui.color_muted":   c.UI.ColorMuted,
	}
	for _, field := range []string{"ui.color_primary", "ui.color_success", "ui.color_error", "ui.color_warning", "ui.color_muted"} {
		if n, err := strconv.Atoi(colors[field]); err != nil || n < 0 || n > 255 {
			errs = append(errs, field+" must be an ANSI color code between 0 and 255")
		}
	}

	// MCP
	for name, s := range c.MCP.Servers {
		if s.Command == "" {
			errs = append(errs, fmt.Sprintf("mcp.servers.%s.command must not be empty", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
