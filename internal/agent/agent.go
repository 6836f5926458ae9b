// Package agent assembles the root loop, its tools and the sub-agent
// scheduler into a runnable agent.
package agent

import (
	"context"
	"iter"
	"log/slog"

	"github.com/Cyclone1070/agentcore/internal/approval"
	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/failure"
	"github.com/Cyclone1070/agentcore/internal/mode"
	"github.com/Cyclone1070/agentcore/internal/provider"
	"github.com/Cyclone1070/agentcore/internal/risk"
	"github.com/Cyclone1070/agentcore/internal/subagent"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/todo"
	"github.com/Cyclone1070/agentcore/internal/workflow"
	"github.com/Cyclone1070/agentcore/internal/workflow/loop"
	"github.com/Cyclone1070/agentcore/internal/workflow/toolmanager"
)

type riskAssessor interface {
	AssessRisk(toolName string, args map[string]any) risk.Assessment
}

// Deps are shared by the root agent and every sub-agent.
type Deps struct {
	Provider provider.Provider
	Risk     riskAssessor
	Approver approval.Approver
	// Events receives the root loop's events. Sub-agents do not emit.
	Events chan<- workflow.Event
}

// Agent is the root loop plus the scheduler its spawn_agent tool uses.
type Agent struct {
	cfg       *config.Config
	deps      Deps
	root      string
	base      *toolmanager.ToolManager
	scheduler *subagent.Scheduler
	loop      *loop.Loop
}

// New builds an agent over tools. Approvals are cached for the session and
// shared with sub-agents, so "always approve" carries over to them.
func New(cfg *config.Config, deps Deps, workspaceRoot string, tools []tool.Tool) *Agent {
	if cfg == nil {
		panic("cfg is required")
	}
	if deps.Provider == nil {
		panic("provider is required")
	}
	if deps.Risk == nil {
		panic("risk is required")
	}
	if deps.Approver == nil {
		deps.Approver = approval.Unavailable()
	}
	deps.Approver = approval.NewSession(deps.Approver)

	a := &Agent{
		cfg:  cfg,
		deps: deps,
		root: workspaceRoot,
		base: toolmanager.NewToolManager(tools...),
	}
	a.scheduler = subagent.NewScheduler(cfg.Scheduler(), a.buildSubAgent)

	rootTools := a.clone()
	rootTools.Register(subagent.NewTool(a.scheduler))
	for _, t := range todo.New(todo.NewMemoryStore()).All() {
		rootTools.Register(t)
	}

	a.loop = loop.NewLoop(loop.Deps{
		Provider:  deps.Provider,
		Tools:     rootTools,
		Risk:      deps.Risk,
		Approver:  deps.Approver,
		Modes:     mode.NewMachine(),
		Failures:  failure.NewTracker(cfg.Tracker()),
		Compactor: loop.WindowCompactor{MaxMessages: cfg.Loop.CompactAfter},
		Events:    deps.Events,
	}, loop.Config{
		MaxTurns:     cfg.Loop.MaxTurns,
		MaxTokens:    cfg.Loop.MaxTokens,
		PlanFirst:    cfg.Loop.PlanFirst,
		SystemPrompt: systemPrompt(workspaceRoot),
		Options:      a.options(),
	})
	return a
}

// Run drives the root loop to completion.
func (a *Agent) Run(ctx context.Context, prompt string) (*loop.Result, error) {
	return a.loop.Run(ctx, prompt)
}

// Stream drives the root loop with incremental output.
func (a *Agent) Stream(ctx context.Context, prompt string) iter.Seq2[loop.Delta, error] {
	return a.loop.Stream(ctx, prompt)
}

// Mode reports the root loop's mode.
func (a *Agent) Mode() mode.Mode { return a.loop.Mode() }

// Scheduler exposes the root scheduler.
func (a *Agent) Scheduler() *subagent.Scheduler { return a.scheduler }

func (a *Agent) options() provider.Options {
	return provider.Options{
		Temperature:     a.cfg.Provider.Temperature,
		MaxOutputTokens: a.cfg.Provider.MaxOutputTokens,
	}
}

func (a *Agent) clone() *toolmanager.ToolManager {
	decls := a.base.Declarations()
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}
	return a.base.Subset(names)
}

// buildSubAgent is the scheduler's factory. Explore agents see only their
// allowed tools; general agents see everything and may spawn further when
// the scheduler hands them a child.
func (a *Agent) buildSubAgent(sc subagent.Context, limits subagent.Limits, child *subagent.Scheduler) (subagent.Runner, error) {
	var tools *toolmanager.ToolManager
	if sc.Type == subagent.TypeExplore {
		tools = a.base.Subset(limits.AllowedTools)
	} else {
		tools = a.clone()
		if child != nil {
			tools.Register(subagent.NewTool(child))
		}
	}

	slog.Debug("building sub-agent", "id", sc.ID, "type", sc.Type, "depth", sc.Depth, "tools", len(tools.Declarations()))

	return loop.NewLoop(loop.Deps{
		Provider:  a.deps.Provider,
		Tools:     tools,
		Risk:      a.deps.Risk,
		Approver:  a.deps.Approver,
		Modes:     mode.NewMachine(),
		Failures:  failure.NewTracker(a.cfg.Tracker()),
		Compactor: loop.WindowCompactor{MaxMessages: a.cfg.Loop.CompactAfter},
	}, loop.Config{
		MaxTurns:     limits.MaxTurns,
		MaxTokens:    limits.MaxTokens,
		SystemPrompt: subAgentPrompt(sc.Type, a.root),
		Options:      a.options(),
	}), nil
}
