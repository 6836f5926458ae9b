package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Cyclone1070/agentcore/internal/approval"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type choice int

const (
	choiceAllow choice = iota
	choiceAlways
	choiceDeny
)

var choiceLabels = []string{"Allow once", "Always allow for this session", "Deny"}

// promptModel asks for one verdict. Denying moves to an optional reason field.
type promptModel struct {
	req       approval.Request
	styles    Styles
	cursor    int
	reasoning bool
	reason    textinput.Model
	done      bool
	resp      approval.Response
}

func newPromptModel(req approval.Request, styles Styles) promptModel {
	ti := textinput.New()
	ti.Placeholder = "Reason for the model (optional)"
	ti.CharLimit = 500
	return promptModel{req: req, styles: styles, reason: ti}
}

func (m promptModel) Init() tea.Cmd { return nil }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Type == tea.KeyCtrlC {
		return m.finish(approval.Response{RejectionReason: "cancelled by user"})
	}

	if m.reasoning {
		switch key.Type {
		case tea.KeyEnter:
			return m.finish(approval.Response{RejectionReason: strings.TrimSpace(m.reason.Value())})
		case tea.KeyEsc:
			return m.finish(approval.Response{})
		}
		var cmd tea.Cmd
		m.reason, cmd = m.reason.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(choiceLabels)-1 {
			m.cursor++
		}
	case "y":
		return m.choose(choiceAllow)
	case "a":
		return m.choose(choiceAlways)
	case "n":
		return m.choose(choiceDeny)
	case "esc":
		return m.finish(approval.Response{RejectionReason: "cancelled by user"})
	case "enter":
		return m.choose(choice(m.cursor))
	}
	return m, nil
}

func (m promptModel) choose(c choice) (tea.Model, tea.Cmd) {
	switch c {
	case choiceAllow:
		return m.finish(approval.Response{Approved: true})
	case choiceAlways:
		return m.finish(approval.Response{Approved: true, AlwaysApprove: true})
	default:
		m.reasoning = true
		m.cursor = int(choiceDeny)
		return m, m.reason.Focus()
	}
}

func (m promptModel) finish(resp approval.Response) (tea.Model, tea.Cmd) {
	m.done = true
	m.resp = resp
	return m, tea.Quit
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}
	s := m.styles
	var lines []string
	lines = append(lines, s.Bold.Render("Permission required"))

	a := m.req.Assessment
	lines = append(lines, s.Warning.Render(fmt.Sprintf("[%s risk] %s", a.Level, Describe(m.req.ToolName, m.req.Arguments))))
	if m.req.Description != "" {
		lines = append(lines, m.req.Description)
	}
	if p := Preview(m.req.ToolName, m.req.Arguments); p != "" {
		lines = append(lines, "", s.Muted.Render(p))
	}
	lines = append(lines, "")

	if m.reasoning {
		lines = append(lines, "Denied. "+m.reason.View())
		lines = append(lines, "", s.Muted.Render("Enter: send  Esc: skip"))
		return s.Box.Render(strings.Join(lines, "\n")) + "\n"
	}

	for i, label := range choiceLabels {
		if i == m.cursor {
			lines = append(lines, s.Primary.Bold(true).Render("▸ "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	lines = append(lines, "", s.Muted.Render("↑/↓: Navigate  Enter: Select  y/a/n: Shortcut"))
	return s.Box.Render(strings.Join(lines, "\n")) + "\n"
}

// Prompter asks the human for approval in the terminal. Requests from
// concurrent sub-agents are queued and shown one at a time.
type Prompter struct {
	in     io.Reader
	out    io.Writer
	styles Styles
	mu     sync.Mutex
}

func NewPrompter(in io.Reader, out io.Writer, styles Styles) *Prompter {
	if in == nil {
		panic("in is required")
	}
	if out == nil {
		panic("out is required")
	}
	return &Prompter{in: in, out: out, styles: styles}
}

func (p *Prompter) RequestApproval(ctx context.Context, req approval.Request) (approval.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return approval.Response{}, err
	}

	prog := tea.NewProgram(newPromptModel(req, p.styles),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return approval.Response{}, ctxErr
	}
	if err != nil {
		return approval.Response{}, fmt.Errorf("approval prompt: %w", err)
	}
	m, ok := final.(promptModel)
	if !ok || !m.done {
		return approval.Response{RejectionReason: "no answer"}, nil
	}
	return m.resp, nil
}
