// Package mode implements the agent's operating-phase state machine and the
// tool visibility each phase grants.
package mode

import (
	"slices"
	"sync"

	"github.com/Cyclone1070/agentcore/internal/tool"
)

// Mode is the coarse operating phase of an agent.
type Mode string

const (
	Idle           Mode = "idle"
	Planning       Mode = "planning"
	Working        Mode = "working"
	HumanInTheLoop Mode = "human_in_the_loop"
)

// Trigger is an event that may move the machine to another mode.
type Trigger string

const (
	StartPlanning          Trigger = "start_planning"
	StartWorking           Trigger = "start_working"
	FinishPlanning         Trigger = "finish_planning"
	RiskyOperationDetected Trigger = "risky_operation_detected"
	UserApproved           Trigger = "user_approved"
	UserRejected           Trigger = "user_rejected"
	ReplanRequested        Trigger = "replan_requested"
	Complete               Trigger = "complete"
	Reset                  Trigger = "reset"
)

// Modes and Triggers list every value, used for exhaustive iteration.
var (
	Modes    = []Mode{Idle, Planning, Working, HumanInTheLoop}
	Triggers = []Trigger{
		StartPlanning, StartWorking, FinishPlanning, RiskyOperationDetected,
		UserApproved, UserRejected, ReplanRequested, Complete, Reset,
	}
)

type edge struct {
	from    Mode
	trigger Trigger
}

var transitions = map[edge]Mode{
	{Idle, StartPlanning}:             Planning,
	{Idle, StartWorking}:              Working,
	{Planning, FinishPlanning}:        Working,
	{Planning, Reset}:                 Idle,
	{Working, RiskyOperationDetected}: HumanInTheLoop,
	{Working, Complete}:               Idle,
	{Working, Reset}:                  Idle,
	{Working, ReplanRequested}:        Planning,
	{HumanInTheLoop, UserApproved}:    Working,
	{HumanInTheLoop, UserRejected}:    Idle,
	{HumanInTheLoop, Reset}:           Idle,
}

// Next returns the mode reached by firing trigger in from.
// The second result is false when the pair has no transition.
func Next(from Mode, trigger Trigger) (Mode, bool) {
	to, ok := transitions[edge{from, trigger}]
	return to, ok
}

// PlanningTools are the read-only tools reachable while planning.
var PlanningTools = []string{"read_file", "list_directory", "find_file", "search_content"}

// ToolVisible reports whether toolName may be offered to the model in m.
func ToolVisible(m Mode, toolName string) bool {
	switch m {
	case Working:
		return true
	case Planning:
		return slices.Contains(PlanningTools, toolName)
	default:
		return false
	}
}

// Hook runs after the machine enters a mode.
type Hook func(from Mode, trigger Trigger)

// Machine holds the current mode of one agent session.
type Machine struct {
	mu      sync.Mutex
	current Mode
	hooks   map[Mode][]Hook
}

// NewMachine returns a machine in Idle.
func NewMachine() *Machine {
	return &Machine{
		current: Idle,
		hooks:   make(map[Mode][]Hook),
	}
}

// Current returns the current mode.
func (m *Machine) Current() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnEnter registers a hook run every time the machine enters target.
func (m *Machine) OnEnter(target Mode, h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[target] = append(m.hooks[target], h)
}

// Fire applies trigger. It returns false and leaves the mode unchanged when the
// transition is not in the table. Hooks run after the lock is released.
func (m *Machine) Fire(trigger Trigger) bool {
	m.mu.Lock()
	from := m.current
	to, ok := Next(from, trigger)
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.current = to
	hooks := slices.Clone(m.hooks[to])
	m.mu.Unlock()

	for _, h := range hooks {
		h(from, trigger)
	}
	return true
}

// Visible reports whether toolName is reachable in the current mode.
func (m *Machine) Visible(toolName string) bool {
	return ToolVisible(m.Current(), toolName)
}

// FilterDeclarations returns the declarations visible in the current mode.
func (m *Machine) FilterDeclarations(decls []tool.Declaration) []tool.Declaration {
	current := m.Current()
	out := make([]tool.Declaration, 0, len(decls))
	for _, d := range decls {
		if ToolVisible(current, d.Name) {
			out = append(out, d)
		}
	}
	return out
}
