package subagent

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Cyclone1070/agentcore/internal/tool"
)

// ToolName is the name the model uses to delegate work.
const ToolName = "spawn_agent"

// TaskRequest is one delegated task.
type TaskRequest struct {
	Task    string `json:"task"`
	Type    string `json:"type,omitempty"`
	Context string `json:"context,omitempty"`
}

// SpawnRequest carries a single task or a batch run concurrently.
type SpawnRequest struct {
	TaskRequest `json:",squash"`
	Tasks       []TaskRequest `json:"tasks,omitempty"`
}

func (r *SpawnRequest) Validate() error {
	if strings.TrimSpace(r.Task) == "" && len(r.Tasks) == 0 {
		return errors.New("either task or tasks is required")
	}
	if r.Task != "" && len(r.Tasks) > 0 {
		return errors.New("task and tasks are mutually exclusive")
	}
	for _, t := range r.batch() {
		if strings.TrimSpace(t.Task) == "" {
			return errors.New("every entry in tasks needs a task")
		}
		if _, err := ParseType(t.Type); err != nil {
			return err
		}
	}
	return nil
}

func (r *SpawnRequest) batch() []TaskRequest {
	if len(r.Tasks) > 0 {
		return r.Tasks
	}
	return []TaskRequest{r.TaskRequest}
}

// SpawnResponse lists child results in request order.
type SpawnResponse struct {
	Results []Result `json:"results"`
}

// NewTool exposes the scheduler to the model as spawn_agent.
func NewTool(s *Scheduler) tool.Invocable {
	if s == nil {
		panic("scheduler is required")
	}
	return tool.NewFunc(declaration(), func(ctx context.Context, req *SpawnRequest) (tool.Result, error) {
		tasks := req.batch()
		results := make([]Result, len(tasks))

		var wg sync.WaitGroup
		for i, t := range tasks {
			typ, _ := ParseType(t.Type)
			sc := s.NewContext(typ, t.Task, t.Context)
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = s.Spawn(ctx, sc)
			}()
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return tool.Result{}, err
		}
		return tool.JSON(SpawnResponse{Results: results})
	})
}

func declaration() tool.Declaration {
	task := &tool.Schema{
		Type: tool.TypeObject,
		Properties: map[string]*tool.Schema{
			"task": {
				Type:        tool.TypeString,
				Description: "Self-contained description of the work to delegate",
			},
			"type": {
				Type:        tool.TypeString,
				Description: "explore for read-only investigation, general for work that changes files",
				Enum:        []string{string(TypeExplore), string(TypeGeneral)},
			},
			"context": {
				Type:        tool.TypeString,
				Description: "Findings the sub-agent needs that are not in the task",
			},
		},
		Required: []string{"task"},
	}
	params := &tool.Schema{
		Type:       tool.TypeObject,
		Properties: map[string]*tool.Schema{},
	}
	for k, v := range task.Properties {
		params.Properties[k] = v
	}
	params.Properties["tasks"] = &tool.Schema{
		Type:        tool.TypeArray,
		Description: "Independent tasks to run concurrently instead of a single task",
		Items:       task,
	}
	return tool.Declaration{
		Name: ToolName,
		Description: "Delegates work to a sub-agent with its own history and budget. " +
			"Returns each sub-agent's report as JSON. Sub-agents cannot see this conversation.",
		Parameters: params,
	}
}
