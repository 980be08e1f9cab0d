package media

import "fmt"

// State is the coarse workflow lifecycle of a media entity. Entities
// start as 'draft'; processing advances them to 'published'; 'archived'
// is terminal.
type State string

const (
	DraftState     State = "draft"
	PublishedState State = "published"
	ArchivedState  State = "archived"
)

// allowedTransitions is the edge table of the entity workflow. A state
// with no entry (or an empty list) has no outgoing transitions.
var allowedTransitions = map[State][]State{
	DraftState:     {PublishedState, ArchivedState},
	PublishedState: {DraftState, ArchivedState},
	ArchivedState:  {},
}

// InvalidTransitionError is returned when a requested state change is
// not present in the workflow's allowed-edge table. Transitioning to
// the current state is also rejected.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal media state transition from '%s' to '%s'", e.From, e.To)
}

// CanTransitionTo reports whether the workflow allows moving from this
// state to the next one.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Transition moves the entity to the next state, returning an
// InvalidTransitionError if the workflow does not allow the edge.
func (m *Media) Transition(next State) error {
	if !m.State.CanTransitionTo(next) {
		return &InvalidTransitionError{From: m.State, To: next}
	}

	m.State = next
	return nil
}
