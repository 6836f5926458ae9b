// Package toolmanager stores the tools offered to a loop and executes calls
// against them without letting a misbehaving tool escape.
package toolmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/Cyclone1070/agentcore/internal/provider"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/workflow"
)

// entry is a registered tool with its kind resolved once at registration.
type entry struct {
	decl   tool.Declaration
	invoke tool.Invocable // nil for declaration-only tools
}

type ToolManager struct {
	registry map[string]entry
}

func NewToolManager(tools ...tool.Tool) *ToolManager {
	tm := &ToolManager{
		registry: make(map[string]entry),
	}
	for _, t := range tools {
		tm.Register(t)
	}
	return tm
}

// Register adds t, replacing any tool with the same name.
func (m *ToolManager) Register(t tool.Tool) {
	decl := t.Declaration()
	e := entry{decl: decl}
	if inv, ok := t.(tool.Invocable); ok {
		e.invoke = inv
	}
	m.registry[decl.Name] = e
}

// Has reports whether a tool named name is registered.
func (m *ToolManager) Has(name string) bool {
	_, ok := m.registry[name]
	return ok
}

// Subset returns a manager holding only the named tools that are registered.
func (m *ToolManager) Subset(names []string) *ToolManager {
	sub := &ToolManager{registry: make(map[string]entry, len(names))}
	for _, n := range names {
		if e, ok := m.registry[n]; ok {
			sub.registry[n] = e
		}
	}
	return sub
}

func (m *ToolManager) Declarations() []tool.Declaration {
	decls := make([]tool.Declaration, 0, len(m.registry))
	for _, e := range m.registry {
		decls = append(decls, e.decl)
	}
	sort.Slice(decls, func(i, j int) bool {
		return decls[i].Name < decls[j].Name
	})
	return decls
}

// Execute runs tc and always produces a result paired with tc.ID. Tool errors
// and panics become failed results. The only error returned is ctx's.
func (m *ToolManager) Execute(ctx context.Context, tc provider.ToolCall, events chan<- workflow.Event) (provider.ToolResult, error) {
	send(ctx, events, workflow.ToolStartEvent{
		CallID:         tc.ID,
		ToolName:       tc.Name,
		RequestDisplay: requestDisplay(tc),
	})

	res, ok := m.invoke(ctx, tc)

	if err := ctx.Err(); err != nil {
		send(ctx, events, workflow.ToolEndEvent{CallID: tc.ID, ToolName: tc.Name, Display: tool.StringDisplay("Cancelled")})
		return provider.ToolResult{}, err
	}

	display := res.Display
	if display == nil {
		display = tool.StringDisplay(res.Content)
	}
	send(ctx, events, workflow.ToolEndEvent{
		CallID:   tc.ID,
		ToolName: tc.Name,
		Success:  ok,
		Display:  display,
	})

	return provider.ToolResult{
		CallID:  tc.ID,
		Name:    tc.Name,
		Content: res.Content,
		Success: ok,
	}, nil
}

func (m *ToolManager) invoke(ctx context.Context, tc provider.ToolCall) (res tool.Result, ok bool) {
	e, found := m.registry[tc.Name]
	if !found {
		declsJSON, _ := json.MarshalIndent(m.Declarations(), "", "  ")
		return tool.Text(fmt.Sprintf("Error: tool %q does not exist.\n\nAvailable tools:\n%s", tc.Name, declsJSON)), false
	}
	if e.invoke == nil {
		return tool.Text(fmt.Sprintf("Error: tool %q cannot be invoked directly.", tc.Name)), false
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool panicked", "tool", tc.Name, "panic", r, "stack", string(debug.Stack()))
			res, ok = tool.Text(fmt.Sprintf("Error: tool %q crashed: %v", tc.Name, r)), false
		}
	}()

	args := tc.Arguments
	if args == nil {
		args = map[string]any{}
	}
	out, err := e.invoke.Execute(ctx, args)
	if err == nil && out.Failed {
		return out, false
	}
	if err != nil {
		declJSON, _ := json.MarshalIndent(e.decl, "", "  ")
		msg := fmt.Sprintf("Error: %v", err)
		if strings.Contains(err.Error(), "invalid arguments") {
			msg += fmt.Sprintf("\n\nExpected schema:\n%s", declJSON)
		}
		return tool.Text(msg), false
	}
	return out, true
}

func requestDisplay(tc provider.ToolCall) string {
	for _, key := range []string{"path", "command", "pattern", "query", "task"} {
		switch v := tc.Arguments[key].(type) {
		case string:
			return v
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, " ")
		}
	}
	return ""
}

func send(ctx context.Context, events chan<- workflow.Event, ev workflow.Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
