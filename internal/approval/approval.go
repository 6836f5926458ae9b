// Package approval defines the human-approval collaborator consulted for calls
// whose rule verdict is "ask".
package approval

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Cyclone1070/agentcore/internal/risk"
)

// ErrNoApprover is returned by Unavailable.
var ErrNoApprover = errors.New("no approver configured")

// Request describes the call awaiting a verdict.
type Request struct {
	ToolName    string
	Arguments   map[string]any
	Assessment  risk.Assessment
	Description string
}

// Response is the human's verdict. ModifiedArguments, when non-nil, replace the
// original arguments and are assessed again before execution.
type Response struct {
	Approved          bool
	AlwaysApprove     bool
	ModifiedArguments map[string]any
	RejectionReason   string
}

// Approver blocks until a verdict is available or ctx is done.
type Approver interface {
	RequestApproval(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function into an Approver.
type Func func(ctx context.Context, req Request) (Response, error)

func (f Func) RequestApproval(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Static returns an Approver that answers every request the same way.
// Headless runs use it for --yes and --no.
func Static(approved bool, reason string) Approver {
	return Func(func(ctx context.Context, req Request) (Response, error) {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		return Response{Approved: approved, RejectionReason: reason}, nil
	})
}

// Unavailable fails every request. The loop reports the failure to the model
// as a denial.
func Unavailable() Approver {
	return Func(func(ctx context.Context, req Request) (Response, error) {
		return Response{}, ErrNoApprover
	})
}

type grantKey struct {
	tool   string
	target string
}

// Session remembers "always approve" verdicts for the lifetime of one agent
// session, keyed by tool and target.
type Session struct {
	next Approver

	mu     sync.Mutex
	grants map[grantKey]struct{}
}

// NewSession wraps next with a session grant cache.
func NewSession(next Approver) *Session {
	if next == nil {
		panic("approver is required")
	}
	return &Session{next: next, grants: make(map[grantKey]struct{})}
}

// RequestApproval answers from the grant cache or delegates to the wrapped approver.
func (s *Session) RequestApproval(ctx context.Context, req Request) (Response, error) {
	key := grantKey{tool: risk.CanonicalName(req.ToolName), target: req.Assessment.Target}

	s.mu.Lock()
	_, granted := s.grants[key]
	s.mu.Unlock()
	if granted {
		slog.Debug("approval granted from session cache", "tool", key.tool, "target", key.target)
		return Response{Approved: true}, nil
	}

	resp, err := s.next.RequestApproval(ctx, req)
	if err != nil {
		return Response{}, err
	}
	// A grant only covers the arguments the human saw.
	if resp.Approved && resp.AlwaysApprove && resp.ModifiedArguments == nil {
		s.mu.Lock()
		s.grants[key] = struct{}{}
		s.mu.Unlock()
	}
	return resp, nil
}

// Forget drops all remembered grants.
func (s *Session) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.grants)
}
