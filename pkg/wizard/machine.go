package wizard

import (
	"context"
	"fmt"
)

// Guard vetoes a transition by returning an error.
type Guard func(ctx context.Context, state *State) error

// Action runs after guards pass and before the state moves on.
// An error aborts the transition.
type Action func(ctx context.Context, state *State, from, to Step) error

// Transition is one edge of the wizard graph.
type Transition struct {
	From    Step
	To      Step
	Guards  []Guard
	Actions []Action
}

// Machine advances wizard states along a fixed transition table.
// It holds no per-user state and is safe for concurrent use once built.
type Machine struct {
	transitions map[Step]Transition
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithGuard appends a guard to the transition leaving from.
func WithGuard(from Step, g Guard) MachineOption {
	return func(m *Machine) {
		if t, ok := m.transitions[from]; ok && g != nil {
			t.Guards = append(t.Guards, g)
			m.transitions[from] = t
		}
	}
}

// WithAction appends an action to the transition leaving from.
func WithAction(from Step, a Action) MachineOption {
	return func(m *Machine) {
		if t, ok := m.transitions[from]; ok && a != nil {
			t.Actions = append(t.Actions, a)
			m.transitions[from] = t
		}
	}
}

// NewMachine builds the linear welcome -> generator -> validation -> done
// table. Every transition is guarded by RequirePrevious.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{transitions: make(map[Step]Transition)}
	for _, step := range Steps() {
		m.transitions[step] = Transition{
			From:   step,
			To:     step.Next(),
			Guards: []Guard{RequirePrevious(step)},
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Advance records data as the validated result of submitted and moves state
// to the next step. On any error state is left as it was.
func (m *Machine) Advance(ctx context.Context, state *State, submitted Step, data map[string]string) (Step, error) {
	if submitted != state.Current {
		return state.Current, ErrStepMismatch
	}

	t, ok := m.transitions[state.Current]
	if !ok {
		return state.Current, &TransitionError{From: state.Current, To: state.Current, Err: ErrNoTransition}
	}

	previous, hadData := state.Data[submitted]
	state.SetStepData(submitted, data)
	rollback := func() {
		if hadData {
			state.Data[submitted] = previous
		} else {
			delete(state.Data, submitted)
		}
	}

	for _, guard := range t.Guards {
		if err := guard(ctx, state); err != nil {
			rollback()
			return state.Current, &TransitionError{From: t.From, To: t.To, Err: err}
		}
	}

	for _, action := range t.Actions {
		if err := action(ctx, state, t.From, t.To); err != nil {
			rollback()
			return state.Current, &TransitionError{From: t.From, To: t.To, Err: err}
		}
	}

	state.Current = t.To
	return t.To, nil
}

// CanAdvance reports whether a transition leaves the current step.
func (m *Machine) CanAdvance(state *State) bool {
	_, ok := m.transitions[state.Current]
	return ok
}

// Complete reports whether every form step has validated data.
func (m *Machine) Complete(state *State) bool {
	for _, step := range Steps() {
		if !state.Validated(step) {
			return false
		}
	}
	return true
}

// RequirePrevious rejects leaving step unless every earlier step validated.
func RequirePrevious(step Step) Guard {
	return func(_ context.Context, state *State) error {
		for _, s := range Steps() {
			if s >= step {
				break
			}
			if !state.Validated(s) {
				return fmt.Errorf("%w: %s", ErrStepIncomplete, s)
			}
		}
		return nil
	}
}
