// Package failure tracks tool failures within a session and recommends when
// the agent should return to planning.
package failure

import (
	"fmt"
	"sync"
	"time"
)

// Severity grades a replan recommendation.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityNormal
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "normal"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "none"
	}
}

// windowSize is the number of trailing failures inspected for a repeating pattern.
const windowSize = 3

// Failure is one recorded tool failure.
type Failure struct {
	Tool      string
	Error     string
	Timestamp time.Time
}

// Decision is the tracker's replan recommendation.
type Decision struct {
	ShouldReplan bool
	Severity     Severity
	Reason       string
}

// Config holds escalation thresholds.
type Config struct {
	MaxConsecutiveFailures int
	MaxTotalFailures       int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{MaxConsecutiveFailures: 3, MaxTotalFailures: 10}
}

// Tracker records tool outcomes for one agent session.
type Tracker struct {
	mu          sync.Mutex
	cfg         Config
	total       int
	consecutive int
	window      []Failure
	now         func() time.Time
}

// NewTracker creates a Tracker. Non-positive thresholds fall back to the defaults.
func NewTracker(cfg Config) *Tracker {
	def := DefaultConfig()
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = def.MaxConsecutiveFailures
	}
	if cfg.MaxTotalFailures <= 0 {
		cfg.MaxTotalFailures = def.MaxTotalFailures
	}
	return &Tracker{cfg: cfg, now: time.Now}
}

// RecordFailure registers a failed call of toolName with its error text.
func (t *Tracker) RecordFailure(toolName, errText string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	t.consecutive++
	t.window = append(t.window, Failure{Tool: toolName, Error: errText, Timestamp: t.now()})
	if len(t.window) > windowSize {
		t.window = t.window[len(t.window)-windowSize:]
	}
}

// RecordSuccess breaks the consecutive-failure streak. The failure window is kept.
func (t *Tracker) RecordSuccess(toolName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive = 0
}

// ShouldReplan evaluates the escalation policy.
//
// A streak that is one failure repeating is reported as a pattern rather than
// as a consecutive-failure streak, so identical retries escalate at Normal.
func (t *Tracker) ShouldReplan() Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	repeating := t.repeatingLocked()

	if t.consecutive >= t.cfg.MaxConsecutiveFailures && !repeating {
		return Decision{
			ShouldReplan: true,
			Severity:     SeverityHigh,
			Reason:       fmt.Sprintf("%d consecutive tool failures", t.consecutive),
		}
	}
	if t.total >= t.cfg.MaxTotalFailures {
		return Decision{
			ShouldReplan: true,
			Severity:     SeverityCritical,
			Reason:       fmt.Sprintf("%d tool failures in this session", t.total),
		}
	}
	if repeating {
		last := t.window[len(t.window)-1]
		return Decision{
			ShouldReplan: true,
			Severity:     SeverityNormal,
			Reason:       fmt.Sprintf("%s failed %d times in a row with the same error: %s", last.Tool, windowSize, last.Error),
		}
	}
	return Decision{Severity: SeverityNone}
}

// repeatingLocked reports whether the last windowSize failures are identical.
// Successes in between do not break the pattern.
func (t *Tracker) repeatingLocked() bool {
	if len(t.window) < windowSize {
		return false
	}
	first := t.window[0]
	for _, f := range t.window[1:] {
		if f.Tool != first.Tool || f.Error != first.Error {
			return false
		}
	}
	return true
}

// Recent returns a copy of the trailing failure window.
func (t *Tracker) Recent() []Failure {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Failure, len(t.window))
	copy(out, t.window)
	return out
}

// Counts returns the total and consecutive failure counters.
func (t *Tracker) Counts() (total, consecutive int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total, t.consecutive
}

// Reset clears all counters and the window.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = 0
	t.consecutive = 0
	t.window = nil
}
