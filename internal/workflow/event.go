// Package workflow holds the events the execution loop reports to observers.
package workflow

import (
	"github.com/Cyclone1070/agentcore/internal/mode"
	"github.com/Cyclone1070/agentcore/internal/tool"
)

// Event is the interface for all workflow events.
// UI handles events via type switch.
type Event interface {
	isEvent()
}

// ThinkingEvent is emitted before each model call.
type ThinkingEvent struct {
	Turn int
}

func (ThinkingEvent) isEvent() {}

// TextEvent is emitted when the LLM produces text output.
type TextEvent struct {
	Text string
}

func (TextEvent) isEvent() {}

// ToolStartEvent is emitted when a tool execution begins.
type ToolStartEvent struct {
	CallID         string
	ToolName       string
	RequestDisplay string // e.g., "Reading src/index.ts"
}

func (ToolStartEvent) isEvent() {}

// ToolEndEvent is emitted when a tool execution completes.
type ToolEndEvent struct {
	CallID   string
	ToolName string
	Success  bool
	Display  tool.Display
}

func (ToolEndEvent) isEvent() {}

// PermissionEvent is emitted when a call is denied or sent for approval.
type PermissionEvent struct {
	CallID   string
	ToolName string
	Verdict  string // "denied", "approved" or "rejected"
	Reason   string
}

func (PermissionEvent) isEvent() {}

// ModeChangeEvent is emitted after every accepted mode transition.
type ModeChangeEvent struct {
	From    mode.Mode
	To      mode.Mode
	Trigger mode.Trigger
}

func (ModeChangeEvent) isEvent() {}

// ReplanEvent is emitted when failures push the agent back to planning.
type ReplanEvent struct {
	Severity string
	Reason   string
}

func (ReplanEvent) isEvent() {}

// LimitEvent is emitted when a run stops on its turn or token budget.
type LimitEvent struct {
	Outcome string
	Turns   int
	Tokens  int
}

func (LimitEvent) isEvent() {}

// DoneEvent is emitted when the workflow loop completes.
type DoneEvent struct {
	Outcome string
}

func (DoneEvent) isEvent() {}
