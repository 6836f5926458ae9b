package ui

import (
	"bytes"
	"context"
	"testing"

	"github.com/Cyclone1070/agentcore/internal/approval"
	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/risk"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStyles() Styles {
	return NewStyles(config.DefaultConfig().UI)
}

func shellRequest() approval.Request {
	return approval.Request{
		ToolName:    "shell",
		Arguments:   map[string]any{"command": []any{"rm", "-rf", "build"}},
		Assessment:  risk.Assessment{Level: risk.LevelHigh},
		Description: "Run a destructive command",
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m tea.Model, msgs ...tea.Msg) promptModel {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	pm, ok := m.(promptModel)
	require.True(t, ok)
	return pm
}

func TestPromptModel_Shortcuts(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.Msg
		want approval.Response
	}{
		{"allow", []tea.Msg{runes("y")}, approval.Response{Approved: true}},
		{"always", []tea.Msg{runes("a")}, approval.Response{Approved: true, AlwaysApprove: true}},
		{"deny without reason", []tea.Msg{runes("n"), tea.KeyMsg{Type: tea.KeyEsc}}, approval.Response{}},
		{"deny with reason", []tea.Msg{runes("n"), runes("use make clean"), tea.KeyMsg{Type: tea.KeyEnter}}, approval.Response{RejectionReason: "use make clean"}},
		{"ctrl+c", []tea.Msg{tea.KeyMsg{Type: tea.KeyCtrlC}}, approval.Response{RejectionReason: "cancelled by user"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(t, newPromptModel(shellRequest(), testStyles()), tt.keys...)
			assert.True(t, m.done)
			assert.Equal(t, tt.want, m.resp)
		})
	}
}

func TestPromptModel_NavigateAndSelect(t *testing.T) {
	m := press(t, newPromptModel(shellRequest(), testStyles()),
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	assert.True(t, m.done)
	assert.Equal(t, approval.Response{Approved: true, AlwaysApprove: true}, m.resp)
}

func TestPromptModel_View(t *testing.T) {
	m := newPromptModel(shellRequest(), testStyles())

	view := m.View()

	assert.Contains(t, view, "Permission required")
	assert.Contains(t, view, "shell 'rm -rf build'")
	assert.Contains(t, view, "$ rm -rf build")
	assert.Contains(t, view, "▸ Allow once")

	m = press(t, m, runes("n"))
	assert.Contains(t, m.View(), "Denied.")
}

func TestPrompter_RunsProgram(t *testing.T) {
	var in, out bytes.Buffer
	in.WriteString("a")
	p := NewPrompter(&in, &out, testStyles())

	resp, err := p.RequestApproval(context.Background(), shellRequest())

	require.NoError(t, err)
	assert.Equal(t, approval.Response{Approved: true, AlwaysApprove: true}, resp)
}

func TestPrompter_CancelledContext(t *testing.T) {
	p := NewPrompter(&bytes.Buffer{}, &bytes.Buffer{}, testStyles())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RequestApproval(ctx, shellRequest())

	assert.ErrorIs(t, err, context.Canceled)
}
