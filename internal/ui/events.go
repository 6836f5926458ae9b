package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/workflow"
)

// Printer writes workflow events as styled lines.
type Printer struct {
	out    io.Writer
	styles Styles
}

func NewPrinter(out io.Writer, styles Styles) *Printer {
	if out == nil {
		panic("out is required")
	}
	return &Printer{out: out, styles: styles}
}

// Consume prints events until the channel closes or ctx is done.
func (p *Printer) Consume(ctx context.Context, events <-chan workflow.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.Print(ev)
		}
	}
}

func (p *Printer) Print(ev workflow.Event) {
	s := p.styles
	var line string
	switch e := ev.(type) {
	case workflow.ToolStartEvent:
		line = s.Primary.Render("● "+e.ToolName) + " " + s.Muted.Render(e.RequestDisplay)
	case workflow.ToolEndEvent:
		line = p.toolEnd(e)
	case workflow.PermissionEvent:
		switch e.Verdict {
		case "approved":
			return
		default:
			line = s.Error.Render(fmt.Sprintf("  ✘ %s %s", e.ToolName, e.Verdict))
			if e.Reason != "" {
				line += s.Muted.Render(": " + e.Reason)
			}
		}
	case workflow.ModeChangeEvent:
		line = s.Muted.Render(fmt.Sprintf("mode %s → %s", e.From, e.To))
	case workflow.ReplanEvent:
		line = s.Warning.Render(fmt.Sprintf("⟲ replanning (%s): %s", e.Severity, e.Reason))
	case workflow.LimitEvent:
		line = s.Warning.Render(fmt.Sprintf("stopped: %s after %d turns, %d tokens", e.Outcome, e.Turns, e.Tokens))
	default:
		return
	}
	fmt.Fprintln(p.out, line)
}

func (p *Printer) toolEnd(e workflow.ToolEndEvent) string {
	s := p.styles
	mark := s.Success.Render("  ✔")
	if !e.Success {
		mark = s.Error.Render("  ✘")
	}

	switch d := e.Display.(type) {
	case tool.DiffDisplay:
		return mark + " " + s.Muted.Render(fmt.Sprintf("+%d -%d", d.AddedLines, d.RemovedLines)) + "\n" + p.diff(d.Diff)
	case tool.ShellDisplay:
		status := fmt.Sprintf("exit %d", d.ExitCode)
		if d.TimedOut {
			status = "timed out"
		}
		return mark + " " + s.Muted.Render(fmt.Sprintf("$ %s (%s)", d.Command, status))
	case tool.StringDisplay:
		return mark + " " + s.Muted.Render(firstLine(string(d)))
	default:
		return mark + " " + s.Muted.Render(e.ToolName)
	}
}

func (p *Printer) diff(diff string) string {
	var out []string
	for _, l := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			out = append(out, "    "+p.styles.Bold.Render(l))
		case strings.HasPrefix(l, "+"):
			out = append(out, "    "+p.styles.Success.Render(l))
		case strings.HasPrefix(l, "-"):
			out = append(out, "    "+p.styles.Error.Render(l))
		default:
			out = append(out, "    "+p.styles.Muted.Render(l))
		}
	}
	return strings.Join(out, "\n")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
