// Package mcptool exposes tools from external MCP servers as plugin tools.
// Each remote tool is offered as mcp__<server>__<tool>.
package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/risk"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrRemoteTool marks a call the MCP server reported as failed.
var ErrRemoteTool = errors.New("mcp tool reported an error")

// session is the part of *mcp.ClientSession the bridge uses.
type session interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

// Server is a connected MCP server.
type Server struct {
	name    string
	session session
}

// NewServer wraps an established session.
func NewServer(name string, s session) *Server {
	if name == "" {
		panic("name is required")
	}
	if s == nil {
		panic("session is required")
	}
	return &Server{name: name, session: s}
}

// Connect launches the server command and completes the MCP handshake.
func Connect(ctx context.Context, name string, cfg config.MCPServer) (*Server, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "agentcore", Version: "0.1.0"}, nil)
	s, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to MCP server %q: %w", name, err)
	}
	return NewServer(name, s), nil
}

// ConnectAll connects every configured server in name order. On failure the
// servers already connected are closed.
func ConnectAll(ctx context.Context, servers map[string]config.MCPServer) ([]*Server, error) {
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []*Server
	for _, name := range names {
		s, err := Connect(ctx, name, servers[name])
		if err != nil {
			CloseAll(out)
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// CloseAll closes servers, logging failures.
func CloseAll(servers []*Server) {
	for _, s := range servers {
		if err := s.Close(); err != nil {
			slog.Warn("close MCP server", "server", s.name, "error", err)
		}
	}
}

// Name returns the configured server name.
func (s *Server) Name() string { return s.name }

// Close ends the session.
func (s *Server) Close() error { return s.session.Close() }

// Tools lists the server's tools, following pagination cursors.
func (s *Server) Tools(ctx context.Context) ([]tool.Tool, error) {
	var out []tool.Tool
	params := &mcp.ListToolsParams{}
	for {
		res, err := s.session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list tools on %q: %w", s.name, err)
		}
		for _, t := range res.Tools {
			out = append(out, &remoteTool{
				server: s,
				remote: t.Name,
				decl: tool.Declaration{
					Name:        QualifiedName(s.name, t.Name),
					Description: t.Description,
					Parameters:  convertSchema(t.InputSchema),
				},
			})
		}
		if res.NextCursor == "" {
			return out, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

// QualifiedName builds the plugin tool name for a remote tool.
func QualifiedName(server, name string) string {
	return risk.PluginPrefix + sanitize(server) + "__" + sanitize(name)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}

// convertSchema maps an MCP input schema onto the provider-neutral Schema.
// Schemas the model-facing type cannot express degrade to an open object.
func convertSchema(in any) *tool.Schema {
	open := &tool.Schema{Type: tool.TypeObject}
	if in == nil {
		return open
	}
	data, err := json.Marshal(in)
	if err != nil {
		return open
	}
	var s tool.Schema
	if err := json.Unmarshal(data, &s); err != nil || s.Type == "" {
		return open
	}
	return &s
}

type remoteTool struct {
	server *Server
	remote string
	decl   tool.Declaration
}

func (t *remoteTool) Declaration() tool.Declaration { return t.decl }

func (t *remoteTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	res, err := t.server.session.CallTool(ctx, &mcp.CallToolParams{Name: t.remote, Arguments: args})
	if err != nil {
		return tool.Result{}, fmt.Errorf("call %s: %w", t.decl.Name, err)
	}
	text := render(res)
	if res.IsError {
		return tool.Result{}, fmt.Errorf("%w: %s", ErrRemoteTool, text)
	}
	return tool.Result{
		Content: text,
		Display: tool.StringDisplay(fmt.Sprintf("Called %s on %s", t.remote, t.server.name)),
	}, nil
}

// render flattens result content into text for the model.
func render(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image %s, %d bytes]", v.MIMEType, len(v.Data)))
		case *mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[audio %s, %d bytes]", v.MIMEType, len(v.Data)))
		default:
			if data, err := json.Marshal(c); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if len(parts) == 0 && res.StructuredContent != nil {
		if data, err := json.Marshal(res.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}
