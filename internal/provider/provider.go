// Package provider defines the model transport consumed by the execution loop.
package provider

import (
	"context"
	"iter"

	"github.com/Cyclone1070/agentcore/internal/tool"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to invoke a named tool.
// ID is assigned by the transport and must be echoed back in the matching ToolResult.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult answers exactly one ToolCall.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Success bool   `json:"success"`
}

// Message is one entry of the conversation history.
type Message struct {
	Role        Role         `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// Options are sampling parameters. Nil pointers leave the provider default.
type Options struct {
	Temperature     *float32
	TopP            *float32
	MaxOutputTokens int32
}

// Request is a single model call.
type Request struct {
	Messages []Message
	Tools    []tool.Declaration
	Options  Options
}

// Usage reports token consumption of one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is a complete model answer.
type Response struct {
	Message Message
	Usage   Usage
}

// Delta is one increment of a streamed response. Exactly one field is set.
type Delta struct {
	Text     string
	ToolCall *ToolCall
	Usage    *Usage
}

// Provider is the model transport.
type Provider interface {
	// Generate sends the request and waits for the complete response.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Stream sends the request and yields incremental deltas.
	// Iteration stops after the first error.
	Stream(ctx context.Context, req *Request) iter.Seq2[Delta, error]
}

// Accumulator assembles streamed deltas into a Response.
type Accumulator struct {
	text  []byte
	calls []ToolCall
	usage Usage
}

// Add folds d into the response being built.
func (a *Accumulator) Add(d Delta) {
	switch {
	case d.ToolCall != nil:
		a.calls = append(a.calls, *d.ToolCall)
	case d.Usage != nil:
		a.usage = *d.Usage
	default:
		a.text = append(a.text, d.Text...)
	}
}

// Response returns the assembled assistant response.
func (a *Accumulator) Response() *Response {
	return &Response{
		Message: Message{
			Role:      RoleAssistant,
			Content:   string(a.text),
			ToolCalls: a.calls,
		},
		Usage: a.usage,
	}
}
