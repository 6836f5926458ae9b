// Package ui is the terminal surface: the approval prompt, event output and
// markdown rendering of the final answer.
package ui

import (
	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles built from the configured palette.
type Styles struct {
	Primary lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Box     lipgloss.Style
}

func NewStyles(cfg config.UIConfig) Styles {
	return Styles{
		Primary: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorPrimary)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorSuccess)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorError)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorWarning)),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.ColorMuted)),
		Bold:    lipgloss.NewStyle().Bold(true),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(cfg.ColorWarning)).
			Padding(0, 1),
	}
}
