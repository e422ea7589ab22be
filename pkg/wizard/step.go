package wizard

import "fmt"

// Step is a stage of the two-factor setup wizard.
type Step int

const (
	StepWelcome Step = iota
	StepGenerator
	StepValidation
	// StepDone is terminal; it is reached after the last step validates and
	// never rendered as a form.
	StepDone
)

var stepNames = [...]string{
	StepWelcome:    "welcome",
	StepGenerator:  "generator",
	StepValidation: "validation",
	StepDone:       "done",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepWelcome && s <= StepDone
}

// Next returns the step following s. StepDone is its own successor.
func (s Step) Next() Step {
	if s >= StepDone {
		return StepDone
	}
	return s + 1
}

// Steps returns the form steps in order, without StepDone.
func Steps() []Step {
	return []Step{StepWelcome, StepGenerator, StepValidation}
}

// ParseStep converts a step name into a Step.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}
