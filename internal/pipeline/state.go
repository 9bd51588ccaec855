package pipeline

import (
	"errors"
	"fmt"
)

// Stage identifies one of the four reasoning stages.
type Stage int

const (
	StageSelect Stage = iota + 1
	StageAdapt
	StageStructure
	StageExecute
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageSelect, StageAdapt, StageStructure, StageExecute}

var stageNames = map[Stage]string{
	StageSelect:    "select",
	StageAdapt:     "adapt",
	StageStructure: "structure",
	StageExecute:   "execute",
}

var stageLabels = map[Stage]string{
	StageSelect:    "Step 1: Select relevant reasoning modules for the task",
	StageAdapt:     "Step 2: Adapt the selected reasoning modules to the task",
	StageStructure: "Step 3: Implement the adapted modules as a reasoning structure",
	StageExecute:   "Step 4: Execute the reasoning structure to solve the task",
}

var stageStates = map[Stage]State{
	StageSelect:    StateSelecting,
	StageAdapt:     StateAdapting,
	StageStructure: StateStructuring,
	StageExecute:   StateExecuting,
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Label is the heading displayed above the stage's streamed text.
func (s Stage) Label() string { return stageLabels[s] }

// State is the orchestrator's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateAdapting
	StateStructuring
	StateExecuting
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateSelecting:   "selecting",
	StateAdapting:    "adapting",
	StateStructuring: "structuring",
	StateExecuting:   "executing",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// ErrIllegalTransition is returned when a transition skips, repeats or leaves
// a terminal state.
var ErrIllegalTransition = errors.New("illegal state transition")

var successors = map[State]State{
	StateIdle:        StateSelecting,
	StateSelecting:   StateAdapting,
	StateAdapting:    StateStructuring,
	StateStructuring: StateExecuting,
	StateExecuting:   StateDone,
}

// Machine tracks one run's state. Idle advances only to Selecting; each
// running state advances to its successor or to Failed.
type Machine struct {
	state    State
	observer func(from State, to State)
}

func NewMachine(observer func(from State, to State)) *Machine {
	return &Machine{state: StateIdle, observer: observer}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Transition(to State) error {
	if !canTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, to)
	}
	from := m.state
	m.state = to
	if m.observer != nil {
		m.observer(from, to)
	}
	return nil
}

func canTransition(from State, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return from != StateIdle
	}
	next, ok := successors[from]
	return ok && next == to
}
