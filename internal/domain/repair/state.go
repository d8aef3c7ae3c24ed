package repair

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is returned when a suggestion skips a step.
var ErrIllegalTransition = errors.New("illegal repair state transition")

// State is the progress of one selector through the advisor.
type State string

const (
	StateNeedsContext        State = "NEEDS_CONTEXT"
	StateContextExtracted    State = "CONTEXT_EXTRACTED"
	StateSuggestionRequested State = "SUGGESTION_REQUESTED"
	StateSuggested           State = "SUGGESTED"
	StateSuggestionFailed    State = "SUGGESTION_FAILED"
)

var transitions = map[State][]State{
	StateNeedsContext:        {StateContextExtracted, StateSuggestionFailed},
	StateContextExtracted:    {StateSuggestionRequested, StateSuggestionFailed},
	StateSuggestionRequested: {StateSuggested, StateSuggestionFailed},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSuggested || s == StateSuggestionFailed
}

// CanTransition reports whether to directly follows s.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StateNeedsContext}
}

func (m *machine) advance(to State) error {
	if !m.state.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, to)
	}
	m.state = to
	return nil
}
