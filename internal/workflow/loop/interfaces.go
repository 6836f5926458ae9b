package loop

import (
	"context"
	"iter"

	"github.com/Cyclone1070/agentcore/internal/provider"
	"github.com/Cyclone1070/agentcore/internal/risk"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/workflow"
)

// llmProvider communicates with an LLM.
type llmProvider interface {
	// Generate sends the request and returns the complete response.
	Generate(ctx context.Context, req *provider.Request) (*provider.Response, error)

	// Stream sends the request and yields incremental deltas.
	Stream(ctx context.Context, req *provider.Request) iter.Seq2[provider.Delta, error]
}

// toolManager manages tool storage and execution.
type toolManager interface {
	// Declarations returns all tool schemas for the LLM.
	Declarations() []tool.Declaration

	// Execute runs a tool call and returns its paired result.
	// It only returns an error when ctx is done.
	Execute(ctx context.Context, tc provider.ToolCall, events chan<- workflow.Event) (provider.ToolResult, error)
}

// riskAssessor classifies proposed tool calls.
type riskAssessor interface {
	AssessRisk(toolName string, args map[string]any) risk.Assessment
}

// Compactor shrinks the history sent to the model. The loop keeps its full
// history; only the request is compacted.
type Compactor interface {
	Compact(ctx context.Context, messages []provider.Message) ([]provider.Message, error)
}
