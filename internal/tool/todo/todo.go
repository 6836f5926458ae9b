// Package todo implements the read_todos and write_todos tools the agent
// uses to track its plan across turns.
package todo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cyclone1070/agentcore/internal/tool"
)

type store interface {
	Read() []Todo
	Write(todos []Todo)
}

// Tools bundles the todo tools over one store.
type Tools struct {
	store store
}

func New(s store) *Tools {
	if s == nil {
		panic("store is required")
	}
	return &Tools{store: s}
}

// All returns both todo tools.
func (t *Tools) All() []tool.Tool {
	return []tool.Tool{t.ReadTodos(), t.WriteTodos()}
}

func (t *Tools) ReadTodos() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name:        "read_todos",
		Description: "Show the current todo list.",
		Parameters:  &tool.Schema{Type: tool.TypeObject},
	}, func(ctx context.Context, req *ReadTodosRequest) (tool.Result, error) {
		return tool.Text(format(t.store.Read())), nil
	})
}

func (t *Tools) WriteTodos() tool.Invocable {
	return tool.NewFunc(tool.Declaration{
		Name: "write_todos",
		Description: "Replace the whole todo list. Send every item each time, " +
			"with at most one in_progress.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"todos": {
					Type: tool.TypeArray,
					Items: &tool.Schema{
						Type: tool.TypeObject,
						Properties: map[string]*tool.Schema{
							"description": {Type: tool.TypeString},
							"status":      {Type: tool.TypeString, Enum: statuses},
						},
						Required: []string{"description", "status"},
					},
				},
			},
			Required: []string{"todos"},
		},
	}, func(ctx context.Context, req *WriteTodosRequest) (tool.Result, error) {
		t.store.Write(req.Todos)
		return tool.Result{
			Content: fmt.Sprintf("Saved %d todos.\n%s", len(req.Todos), format(req.Todos)),
			Display: tool.StringDisplay(format(req.Todos)),
		}, nil
	})
}

func format(todos []Todo) string {
	if len(todos) == 0 {
		return "(no todos)"
	}
	var b strings.Builder
	for i, t := range todos {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s", t.Status.mark(), t.Description)
	}
	return b.String()
}
