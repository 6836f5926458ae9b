package permission

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/Cyclone1070/agentcore/internal/glob"
)

// Engine evaluates targets against a Config. It is safe for concurrent use.
type Engine struct {
	config *Config

	// compiled patterns keyed by raw pattern, one map per glob kind
	pathCache    sync.Map
	commandCache sync.Map
}

// NewEngine validates cfg and returns an engine bound to it. A new config needs a new engine.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: cfg}, nil
}

// Config returns the engine's config.
func (e *Engine) Config() *Config {
	return e.config
}

// Evaluate returns the verdict for target within category.
//
// The bash category first checks the catastrophic command list, which cannot be overridden.
// Among matching rules the highest priority wins; equal priorities keep the first declared rule.
func (e *Engine) Evaluate(category Category, target string) Decision {
	kind := kindFor(category)
	normalized := glob.Normalize(kind, target)

	if normalized == "" {
		return Decision{
			Action: e.config.DefaultAction,
			Reason: "empty target, default action applied",
		}
	}

	if category == CategoryBash {
		if hit, ok := MatchDangerous(normalized); ok {
			return Decision{
				Action: ActionDeny,
				Reason: fmt.Sprintf("blocked dangerous command pattern %q", hit),
			}
		}
	}

	var best *Rule
	rules := e.config.Rules(category)
	for i := range rules {
		r := &rules[i]
		re := e.compiled(kind, r.Pattern)
		if re == nil || !re.MatchString(normalized) {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}

	if best == nil {
		return Decision{
			Action: e.config.DefaultAction,
			Reason: fmt.Sprintf("no %s rule matched, default action applied", category),
		}
	}

	reason := best.Reason
	if reason == "" {
		reason = fmt.Sprintf("matched %s rule %q", category, best.Pattern)
	}
	matched := *best
	return Decision{Action: best.Action, Rule: &matched, Reason: reason}
}

// compiled returns the cached regexp for pattern, compiling it on first use.
// Two goroutines may both compile the same pattern; the loser's value is dropped.
func (e *Engine) compiled(kind glob.Kind, pattern string) *regexp.Regexp {
	cache := &e.pathCache
	if kind == glob.Command {
		cache = &e.commandCache
	}
	if v, ok := cache.Load(pattern); ok {
		return v.(*regexp.Regexp)
	}
	re, err := glob.Compile(kind, pattern)
	if err != nil {
		return nil
	}
	actual, _ := cache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp)
}

func kindFor(category Category) glob.Kind {
	switch category {
	case CategoryBash, CategoryMcpTools:
		return glob.Command
	default:
		return glob.Path
	}
}
