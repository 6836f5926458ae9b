// Package loop drives the model through think, call tools and observe turns.
package loop

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/Cyclone1070/agentcore/internal/approval"
	"github.com/Cyclone1070/agentcore/internal/failure"
	"github.com/Cyclone1070/agentcore/internal/mode"
	"github.com/Cyclone1070/agentcore/internal/permission"
	"github.com/Cyclone1070/agentcore/internal/provider"
	"github.com/Cyclone1070/agentcore/internal/risk"
	"github.com/Cyclone1070/agentcore/internal/workflow"
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeTurnLimit  Outcome = "turn_limit"
	OutcomeTokenLimit Outcome = "token_limit"
)

// Message appended after a plan is accepted so the model starts executing it.
const proceedMessage = "The plan is accepted. Carry it out now using the available tools."

// Result is what a run reports to its caller.
type Result struct {
	Text       string
	Outcome    Outcome
	TurnsUsed  int
	TokensUsed int
}

// Delta is one increment of a streamed run. The final delta carries Result.
type Delta struct {
	Text       string
	ToolCall   *provider.ToolCall
	ToolResult *provider.ToolResult
	Result     *Result
}

// Config bounds a loop.
type Config struct {
	MaxTurns     int
	MaxTokens    int // 0 disables the token budget
	PlanFirst    bool
	SystemPrompt string
	Options      provider.Options
}

// Deps are the collaborators of a loop. Provider, Tools and Risk are required.
type Deps struct {
	Provider  llmProvider
	Tools     toolManager
	Risk      riskAssessor
	Approver  approval.Approver
	Modes     *mode.Machine
	Failures  *failure.Tracker
	Compactor Compactor
	Events    chan<- workflow.Event
}

type Loop struct {
	provider  llmProvider
	tools     toolManager
	risk      riskAssessor
	approver  approval.Approver
	modes     *mode.Machine
	failures  *failure.Tracker
	compactor Compactor
	events    chan<- workflow.Event
	cfg       Config

	// mu serializes runs; history is appended by one run at a time.
	mu       sync.Mutex
	messages []provider.Message
}

func NewLoop(deps Deps, cfg Config) *Loop {
	if deps.Provider == nil {
		panic("provider is required")
	}
	if deps.Tools == nil {
		panic("tools is required")
	}
	if deps.Risk == nil {
		panic("risk is required")
	}
	if cfg.MaxTurns <= 0 {
		panic("max turns must be positive")
	}
	if deps.Approver == nil {
		deps.Approver = approval.Unavailable()
	}
	if deps.Modes == nil {
		deps.Modes = mode.NewMachine()
	}
	if deps.Failures == nil {
		deps.Failures = failure.NewTracker(failure.DefaultConfig())
	}

	l := &Loop{
		provider:  deps.Provider,
		tools:     deps.Tools,
		risk:      deps.Risk,
		approver:  deps.Approver,
		modes:     deps.Modes,
		failures:  deps.Failures,
		compactor: deps.Compactor,
		events:    deps.Events,
		cfg:       cfg,
	}
	l.modes.OnEnter(mode.Planning, func(mode.Mode, mode.Trigger) {
		l.failures.Reset()
	})
	return l
}

// Messages returns a copy of the conversation history.
func (l *Loop) Messages() []provider.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.messages)
}

// Mode returns the loop's current mode.
func (l *Loop) Mode() mode.Mode {
	return l.modes.Current()
}

// Run sends prompt and drives turns until the model answers without tool
// calls or a budget runs out. Budget exhaustion is reported through
// Result.Outcome, not as an error. Errors are provider failures and ctx's.
func (l *Loop) Run(ctx context.Context, prompt string) (*Result, error) {
	return l.run(ctx, prompt, nil)
}

// Stream is Run with incremental output. Breaking out of the iteration
// cancels the run.
func (l *Loop) Stream(ctx context.Context, prompt string) iter.Seq2[Delta, error] {
	return func(yield func(Delta, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		emit := func(d Delta) bool {
			if stopped {
				return false
			}
			if !yield(d, nil) {
				stopped = true
				cancel()
			}
			return !stopped
		}

		res, err := l.run(ctx, prompt, emit)
		if stopped {
			return
		}
		if err != nil {
			yield(Delta{}, err)
			return
		}
		yield(Delta{Result: res}, nil)
	}
}

func (l *Loop) run(ctx context.Context, prompt string, emit func(Delta) bool) (res *Result, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.messages) == 0 && l.cfg.SystemPrompt != "" {
		l.messages = append(l.messages, provider.Message{Role: provider.RoleSystem, Content: l.cfg.SystemPrompt})
	}
	l.messages = append(l.messages, provider.Message{Role: provider.RoleUser, Content: prompt})

	if l.modes.Current() == mode.Idle {
		if l.cfg.PlanFirst {
			l.fire(ctx, mode.StartPlanning)
		} else {
			l.fire(ctx, mode.StartWorking)
		}
	}

	defer func() {
		if !l.fire(ctx, mode.Complete) {
			l.fire(ctx, mode.Reset)
		}
		outcome := ""
		if res != nil {
			outcome = string(res.Outcome)
		}
		l.emitEvent(ctx, workflow.DoneEvent{Outcome: outcome})
	}()

	var (
		turns    int
		tokens   int
		lastText string
	)

	for turns < l.cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if l.cfg.MaxTokens > 0 && tokens >= l.cfg.MaxTokens {
			l.emitEvent(ctx, workflow.LimitEvent{Outcome: string(OutcomeTokenLimit), Turns: turns, Tokens: tokens})
			return &Result{Text: lastText, Outcome: OutcomeTokenLimit, TurnsUsed: turns, TokensUsed: tokens}, nil
		}

		l.emitEvent(ctx, workflow.ThinkingEvent{Turn: turns + 1})

		resp, err := l.generate(ctx, emit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("provider.Generate: %w", err)
		}
		turns++
		tokens += resp.Usage.TotalTokens

		msg := resp.Message
		msg.Role = provider.RoleAssistant
		l.messages = append(l.messages, msg)

		if msg.Content != "" {
			lastText = msg.Content
			l.emitEvent(ctx, workflow.TextEvent{Text: msg.Content})
		}

		if len(msg.ToolCalls) == 0 {
			if l.modes.Current() == mode.Planning {
				l.fire(ctx, mode.FinishPlanning)
				l.messages = append(l.messages, provider.Message{Role: provider.RoleUser, Content: proceedMessage})
				continue
			}
			return &Result{Text: msg.Content, Outcome: OutcomeCompleted, TurnsUsed: turns, TokensUsed: tokens}, nil
		}

		results, err := l.handleToolCalls(ctx, msg.ToolCalls, emit)
		l.messages = append(l.messages, provider.Message{Role: provider.RoleTool, ToolResults: results})
		if err != nil {
			return nil, err
		}

		l.checkReplan(ctx)
	}

	slog.Info("turn limit reached", "max_turns", l.cfg.MaxTurns, "tokens", tokens)
	l.emitEvent(ctx, workflow.LimitEvent{Outcome: string(OutcomeTurnLimit), Turns: turns, Tokens: tokens})
	return &Result{Text: lastText, Outcome: OutcomeTurnLimit, TurnsUsed: turns, TokensUsed: tokens}, nil
}

// generate makes one model call, streaming when a consumer is attached.
func (l *Loop) generate(ctx context.Context, emit func(Delta) bool) (*provider.Response, error) {
	history := l.messages
	if l.compactor != nil {
		compacted, err := l.compactor.Compact(ctx, history)
		if err != nil {
			return nil, fmt.Errorf("compact: %w", err)
		}
		history = compacted
	}

	req := &provider.Request{
		Messages: history,
		Tools:    l.modes.FilterDeclarations(l.tools.Declarations()),
		Options:  l.cfg.Options,
	}

	if emit == nil {
		return l.provider.Generate(ctx, req)
	}

	var acc provider.Accumulator
	for d, err := range l.provider.Stream(ctx, req) {
		if err != nil {
			return nil, err
		}
		acc.Add(d)
		switch {
		case d.ToolCall != nil:
			emit(Delta{ToolCall: d.ToolCall})
		case d.Text != "":
			emit(Delta{Text: d.Text})
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return acc.Response(), nil
}

// handleToolCalls answers every call in order, one result per call ID. On
// cancellation the remaining calls are answered as cancelled so the history
// stays paired, and ctx's error is returned.
func (l *Loop) handleToolCalls(ctx context.Context, calls []provider.ToolCall, emit func(Delta) bool) ([]provider.ToolResult, error) {
	results := make([]provider.ToolResult, 0, len(calls))
	for i, tc := range calls {
		r, err := l.resolve(ctx, tc)
		if err != nil {
			for _, rest := range calls[i:] {
				results = append(results, failed(rest, "Cancelled before completion."))
			}
			return results, err
		}
		results = append(results, r)
		if emit != nil {
			emit(Delta{ToolResult: &r})
		}
	}
	return results, nil
}

// resolve applies mode visibility, the risk verdict and approval to one call,
// then executes it when allowed.
func (l *Loop) resolve(ctx context.Context, tc provider.ToolCall) (provider.ToolResult, error) {
	current := l.modes.Current()
	if !mode.ToolVisible(current, tc.Name) {
		return failed(tc, fmt.Sprintf("Error: tool %q is not available in %s mode.", tc.Name, current)), nil
	}

	args := tc.Arguments
	assessment := l.risk.AssessRisk(tc.Name, args)

	switch assessment.Action {
	case permission.ActionDeny:
		l.emitEvent(ctx, workflow.PermissionEvent{CallID: tc.ID, ToolName: tc.Name, Verdict: "denied", Reason: assessment.Reason})
		return failed(tc, "Permission denied: "+assessment.Reason), nil

	case permission.ActionAsk:
		approved, newArgs, reason, err := l.ask(ctx, tc, assessment, args)
		if err != nil {
			return provider.ToolResult{}, err
		}
		if !approved {
			return failed(tc, "Permission denied by user: "+reason), nil
		}
		args = newArgs
	}

	call := tc
	call.Arguments = args
	res, err := l.tools.Execute(ctx, call, l.events)
	if err != nil {
		return provider.ToolResult{}, err
	}
	res.CallID = tc.ID
	res.Name = tc.Name

	if res.Success {
		l.failures.RecordSuccess(tc.Name)
	} else {
		l.failures.RecordFailure(tc.Name, res.Content)
	}
	return res, nil
}

// ask blocks on the approver. The returned error is only ever ctx's; approver
// failures count as a rejection.
func (l *Loop) ask(ctx context.Context, tc provider.ToolCall, assessment risk.Assessment, args map[string]any) (bool, map[string]any, string, error) {
	entered := l.fire(ctx, mode.RiskyOperationDetected)

	resp, err := l.approver.RequestApproval(ctx, approval.Request{
		ToolName:    tc.Name,
		Arguments:   args,
		Assessment:  assessment,
		Description: assessment.ApprovalPrompt,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, nil, "", ctxErr
		}
		slog.Warn("approval failed", "tool", tc.Name, "error", err)
		resp = approval.Response{Approved: false, RejectionReason: err.Error()}
	}

	if !resp.Approved {
		if entered {
			l.fire(ctx, mode.UserRejected)
			l.fire(ctx, mode.StartWorking)
		}
		reason := resp.RejectionReason
		if reason == "" {
			reason = "no reason given"
		}
		l.emitEvent(ctx, workflow.PermissionEvent{CallID: tc.ID, ToolName: tc.Name, Verdict: "rejected", Reason: reason})
		return false, nil, reason, nil
	}

	if entered {
		l.fire(ctx, mode.UserApproved)
	}
	l.emitEvent(ctx, workflow.PermissionEvent{CallID: tc.ID, ToolName: tc.Name, Verdict: "approved"})

	if resp.ModifiedArguments == nil {
		return true, args, "", nil
	}
	// Edited arguments are assessed again; only a hard deny overrides the human.
	again := l.risk.AssessRisk(tc.Name, resp.ModifiedArguments)
	if again.Action == permission.ActionDeny {
		return false, nil, "modified arguments are denied: " + again.Reason, nil
	}
	return true, resp.ModifiedArguments, "", nil
}

// checkReplan sends the agent back to planning when failures escalate.
func (l *Loop) checkReplan(ctx context.Context) {
	d := l.failures.ShouldReplan()
	if !d.ShouldReplan || l.modes.Current() != mode.Working {
		return
	}
	slog.Warn("replanning after tool failures", "severity", d.Severity, "reason", d.Reason)
	l.emitEvent(ctx, workflow.ReplanEvent{Severity: d.Severity.String(), Reason: d.Reason})
	l.fire(ctx, mode.ReplanRequested)
	l.messages = append(l.messages, provider.Message{
		Role: provider.RoleUser,
		Content: fmt.Sprintf("[Replan needed (%s severity): %s. Investigate with read-only tools and describe a revised plan before making further changes.]",
			d.Severity, d.Reason),
	})
}

func (l *Loop) fire(ctx context.Context, trigger mode.Trigger) bool {
	from := l.modes.Current()
	if !l.modes.Fire(trigger) {
		return false
	}
	l.emitEvent(ctx, workflow.ModeChangeEvent{From: from, To: l.modes.Current(), Trigger: trigger})
	return true
}

func (l *Loop) emitEvent(ctx context.Context, ev workflow.Event) {
	if l.events == nil {
		return
	}
	select {
	case l.events <- ev:
	case <-ctx.Done():
	}
}

func failed(tc provider.ToolCall, content string) provider.ToolResult {
	return provider.ToolResult{CallID: tc.ID, Name: tc.Name, Content: content, Success: false}
}

// IsLimit reports whether outcome is one of the budget outcomes.
func IsLimit(o Outcome) bool {
	return o == OutcomeTurnLimit || o == OutcomeTokenLimit
}
