package mcptool

import (
	"context"
	"errors"
	"testing"

	"github.com/Cyclone1070/agentcore/internal/risk"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	pages   []*mcp.ListToolsResult
	cursors []string
	calls   []*mcp.CallToolParams
	result  *mcp.CallToolResult
	err     error
	closed  bool
}

func (f *fakeSession) ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cursors = append(f.cursors, params.Cursor)
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeSession) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	f.calls = append(f.calls, params)
	return f.result, f.err
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func TestTools_FollowsCursorsAndQualifiesNames(t *testing.T) {
	fs := &fakeSession{pages: []*mcp.ListToolsResult{
		{Tools: []*mcp.Tool{{Name: "get_issue", Description: "Fetch an issue", InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"id": map[string]any{"type": "integer"}},
			"required":   []any{"id"},
		}}}, NextCursor: "p2"},
		{Tools: []*mcp.Tool{{Name: "search.code"}}},
	}}
	s := NewServer("github", fs)

	tools, err := s.Tools(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"", "p2"}, fs.cursors)
	require.Len(t, tools, 2)

	first := tools[0].Declaration()
	assert.Equal(t, "mcp__github__get_issue", first.Name)
	assert.Equal(t, "Fetch an issue", first.Description)
	assert.Equal(t, tool.TypeInteger, first.Parameters.Properties["id"].Type)
	assert.Equal(t, []string{"id"}, first.Parameters.Required)

	second := tools[1].Declaration()
	assert.Equal(t, "mcp__github__search_code", second.Name)
	assert.Equal(t, tool.TypeObject, second.Parameters.Type)
	assert.Equal(t, risk.FamilyPlugin, risk.FamilyOf(second.Name))
}

func TestRemoteTool_Execute(t *testing.T) {
	fs := &fakeSession{
		pages:  []*mcp.ListToolsResult{{Tools: []*mcp.Tool{{Name: "echo"}}}},
		result: &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "hello"}, &mcp.TextContent{Text: "world"}}},
	}
	tools, err := NewServer("srv", fs).Tools(context.Background())
	require.NoError(t, err)
	inv := tools[0].(tool.Invocable)

	res, err := inv.Execute(context.Background(), map[string]any{"msg": "hi"})

	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", res.Content)
	require.Len(t, fs.calls, 1)
	assert.Equal(t, "echo", fs.calls[0].Name)
	assert.Equal(t, map[string]any{"msg": "hi"}, fs.calls[0].Arguments)
}

func TestRemoteTool_ReportedError(t *testing.T) {
	fs := &fakeSession{
		pages:  []*mcp.ListToolsResult{{Tools: []*mcp.Tool{{Name: "fail"}}}},
		result: &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "no such issue"}}},
	}
	tools, err := NewServer("srv", fs).Tools(context.Background())
	require.NoError(t, err)

	_, err = tools[0].(tool.Invocable).Execute(context.Background(), nil)

	assert.ErrorIs(t, err, ErrRemoteTool)
	assert.ErrorContains(t, err, "no such issue")
}

func TestRemoteTool_TransportError(t *testing.T) {
	fs := &fakeSession{pages: []*mcp.ListToolsResult{{Tools: []*mcp.Tool{{Name: "x"}}}}}
	tools, err := NewServer("srv", fs).Tools(context.Background())
	require.NoError(t, err)
	boom := errors.New("broken pipe")
	fs.err = boom

	_, err = tools[0].(tool.Invocable).Execute(context.Background(), nil)

	assert.ErrorIs(t, err, boom)
}

func TestTools_ListError(t *testing.T) {
	boom := errors.New("down")
	_, err := NewServer("srv", &fakeSession{err: boom}).Tools(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCloseAll(t *testing.T) {
	a, b := &fakeSession{}, &fakeSession{}
	CloseAll([]*Server{NewServer("a", a), NewServer("b", b)})
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestConvertSchema_Fallbacks(t *testing.T) {
	assert.Equal(t, tool.TypeObject, convertSchema(nil).Type)
	assert.Equal(t, tool.TypeObject, convertSchema(map[string]any{"type": []any{"object", "null"}}).Type)
	assert.Equal(t, tool.TypeObject, convertSchema(map[string]any{"properties": map[string]any{}}).Type)
}

func TestNewServer_Panics(t *testing.T) {
	assert.Panics(t, func() { NewServer("", &fakeSession{}) })
	assert.Panics(t, func() { NewServer("x", nil) })
}
