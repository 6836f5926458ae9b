package subagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Cyclone1070/agentcore/internal/workflow/loop"
	"github.com/google/uuid"
)

// Runner executes one child task. *loop.Loop satisfies it.
type Runner interface {
	Run(ctx context.Context, prompt string) (*loop.Result, error)
}

// Factory builds the runner for a child. child is the scheduler the child
// uses for its own spawns, or nil when the child may not spawn.
type Factory func(sc Context, limits Limits, child *Scheduler) (Runner, error)

// Scheduler admits and runs sub-agents for one parent.
//
// Each scheduler owns its own semaphore, so a child waiting on grandchildren
// never competes with its siblings for slots.
type Scheduler struct {
	cfg      Config
	depth    int
	parentID string
	factory  Factory
	sem      *semaphore
	running  atomic.Int32
}

// NewScheduler creates the root scheduler at depth 0.
func NewScheduler(cfg Config, factory Factory) *Scheduler {
	if factory == nil {
		panic("factory is required")
	}
	if cfg.MaxConcurrent <= 0 {
		panic("MaxConcurrent must be positive")
	}
	if cfg.MaxDepth < 0 {
		panic("MaxDepth must not be negative")
	}
	return newScheduler(cfg, factory, 0, "")
}

func newScheduler(cfg Config, factory Factory, depth int, parentID string) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		depth:    depth,
		parentID: parentID,
		factory:  factory,
		sem:      newSemaphore(cfg.MaxConcurrent),
	}
}

// Depth is the depth of the agent owning this scheduler.
func (s *Scheduler) Depth() int { return s.depth }

// Running returns the number of children currently executing.
func (s *Scheduler) Running() int { return int(s.running.Load()) }

// CanSpawn reports whether a child could start right now. The answer may be
// stale by the time Spawn runs; the semaphore is the real bound.
func (s *Scheduler) CanSpawn(Type) bool {
	return s.depth < s.cfg.MaxDepth && int(s.running.Load()) < s.cfg.MaxConcurrent
}

// NewContext fills in the id, depth, parent and budget for a task.
func (s *Scheduler) NewContext(t Type, task, additional string) Context {
	lim := s.cfg.limits(t)
	return Context{
		ID:                uuid.NewString(),
		Type:              t,
		Task:              task,
		AdditionalContext: additional,
		Depth:             s.depth + 1,
		ParentID:          s.parentID,
		MaxTurns:          lim.MaxTurns,
		MaxTokens:         lim.MaxTokens,
	}
}

// TrySpawn rejects immediately when no slot is free instead of waiting.
// Admission and slot acquisition happen in one step.
func (s *Scheduler) TrySpawn(ctx context.Context, sc Context) Result {
	if res, ok := s.admit(&sc); !ok {
		return res
	}
	if !s.sem.tryAcquire() {
		return rejected(sc, fmt.Sprintf("cannot spawn: %d of %d sub-agents running at depth %d (max depth %d)",
			s.Running(), s.cfg.MaxConcurrent, s.depth, s.cfg.MaxDepth))
	}
	return s.execute(ctx, sc, time.Now())
}

// Spawn runs a child to completion. It blocks while the concurrency ceiling
// is reached and rejects outright when the depth ceiling is.
func (s *Scheduler) Spawn(ctx context.Context, sc Context) Result {
	if res, ok := s.admit(&sc); !ok {
		return res
	}
	start := time.Now()
	if err := s.sem.acquire(ctx); err != nil {
		return Result{ID: sc.ID, Status: StatusCancelled, Error: err.Error(), Duration: time.Since(start)}
	}
	return s.execute(ctx, sc, start)
}

func (s *Scheduler) admit(sc *Context) (Result, bool) {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if s.depth >= s.cfg.MaxDepth {
		return rejected(*sc, fmt.Sprintf("maximum sub-agent depth %d reached", s.cfg.MaxDepth)), false
	}
	if strings.TrimSpace(sc.Task) == "" {
		return rejected(*sc, "task is required"), false
	}
	return Result{}, true
}

// execute runs an admitted child. The caller must hold a semaphore slot.
func (s *Scheduler) execute(ctx context.Context, sc Context, start time.Time) (res Result) {
	s.running.Add(1)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("sub-agent panicked", "id", sc.ID, "panic", r)
			res = Result{ID: sc.ID, Status: StatusFailed, Error: fmt.Sprintf("sub-agent panicked: %v", r)}
		}
		s.running.Add(-1)
		s.sem.release()
		res.Duration = time.Since(start)
	}()

	slog.Info("sub-agent started", "id", sc.ID, "type", sc.Type, "depth", sc.Depth, "parent", sc.ParentID)
	res = s.run(ctx, sc)
	slog.Info("sub-agent finished", "id", sc.ID, "status", res.Status, "turns", res.TurnsUsed, "tokens", res.TokensUsed)
	return res
}

func (s *Scheduler) run(ctx context.Context, sc Context) Result {
	lim := s.cfg.limits(sc.Type)
	if sc.MaxTurns > 0 {
		lim.MaxTurns = sc.MaxTurns
	}
	if sc.MaxTokens > 0 {
		lim.MaxTokens = sc.MaxTokens
	}

	var child *Scheduler
	if sc.Type == TypeGeneral && sc.Depth < s.cfg.MaxDepth {
		child = newScheduler(s.cfg, s.factory, sc.Depth, sc.ID)
	}

	runner, err := s.factory(sc, lim, child)
	if err != nil {
		return Result{ID: sc.ID, Status: StatusFailed, Error: fmt.Sprintf("build sub-agent: %v", err)}
	}

	out, err := runner.Run(ctx, Prompt(sc))
	if err != nil {
		status := StatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = StatusCancelled
		}
		return Result{ID: sc.ID, Status: status, Error: err.Error()}
	}

	res := Result{
		ID:         sc.ID,
		Status:     StatusCompleted,
		Success:    true,
		Output:     out.Text,
		TurnsUsed:  out.TurnsUsed,
		TokensUsed: out.TokensUsed,
	}
	if loop.IsLimit(out.Outcome) {
		res.Status = StatusLimit
		res.Success = false
		res.Error = fmt.Sprintf("sub-agent stopped: %s", out.Outcome)
	}
	return res
}

// Prompt renders the task handed to a child loop.
func Prompt(sc Context) string {
	var b strings.Builder
	b.WriteString(sc.Task)
	if ctx := strings.TrimSpace(sc.AdditionalContext); ctx != "" {
		b.WriteString("\n\nContext from the parent agent:\n")
		b.WriteString(ctx)
	}
	b.WriteString("\n\nWhen you are done, reply with a concise report of what you found or changed.")
	return b.String()
}

func rejected(sc Context, reason string) Result {
	slog.Warn("sub-agent rejected", "id", sc.ID, "depth", sc.Depth, "reason", reason)
	return Result{ID: sc.ID, Status: StatusRejected, Error: reason}
}
