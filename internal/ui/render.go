package ui

import (
	"github.com/charmbracelet/glamour"
)

// Renderer renders markdown answers for the terminal.
type Renderer struct {
	r *glamour.TermRenderer
}

// NewRenderer uses a glamour standard style ("dark", "light", "notty", ...)
// or detects one from the terminal when style is "auto" or empty.
func NewRenderer(style string, width int) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Renderer{r: r}, nil
}

// Render returns md rendered, or md unchanged if rendering fails.
func (r *Renderer) Render(md string) string {
	out, err := r.r.Render(md)
	if err != nil {
		return md
	}
	return out
}
