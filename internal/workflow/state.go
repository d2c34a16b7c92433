package workflow

import (
	"errors"
	"fmt"
	"slices"
)

// State is a step of a conversation.
type State int

// Conversation states.
const (
	StateStart State = iota
	StateAwaitCategory
	StateAwaitItem
	StateAwaitOperation
	StateAwaitQuantity
	StateMutate
	StateDone
	StateAborted
)

var stateNames = [...]string{
	StateStart:          "start",
	StateAwaitCategory:  "await_category",
	StateAwaitItem:      "await_item",
	StateAwaitOperation: "await_operation",
	StateAwaitQuantity:  "await_quantity",
	StateMutate:         "mutate",
	StateDone:           "done",
	StateAborted:        "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether s ends the conversation.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// ErrInvalidTransition is returned for a transition the machine does not
// allow, including any move back to a state already visited.
var ErrInvalidTransition = errors.New("invalid state transition")

// transitions lists the forward edges. Every non-terminal state may also
// move to StateAborted.
var transitions = map[State][]State{
	StateStart:          {StateAwaitCategory, StateMutate},
	StateAwaitCategory:  {StateAwaitItem, StateMutate},
	StateAwaitItem:      {StateAwaitOperation, StateMutate},
	StateAwaitOperation: {StateAwaitQuantity},
	StateAwaitQuantity:  {StateMutate},
	StateMutate:         {StateDone},
}

// machine tracks one conversation's progress.
type machine struct {
	state   State
	visited uint16
	path    []State
}

func newMachine() *machine {
	m := &machine{state: StateStart}
	m.mark(StateStart)
	return m
}

func (m *machine) mark(s State) {
	m.visited |= 1 << uint(s)
	m.path = append(m.path, s)
}

// advance moves to next.
func (m *machine) advance(next State) error {
	if m.state.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, m.state)
	}
	if m.visited&(1<<uint(next)) != 0 {
		return fmt.Errorf("%w: %s already visited", ErrInvalidTransition, next)
	}
	if next != StateAborted && !slices.Contains(transitions[m.state], next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	m.state = next
	m.mark(next)
	return nil
}
