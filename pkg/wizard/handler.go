package wizard

import (
	"context"
	"net/url"

	"github.com/settlex/settlex/pkg/device"
)

// View is what a step hands to the template layer.
type View struct {
	Step   Step
	Data   map[string]any
	Errors *ValidationError
}

// StepHandler renders and validates one step. Every step receives the state
// and the device bound to the run (nil before the generator step created
// one); steps that do not need the device ignore it.
type StepHandler interface {
	Step() Step
	// Prepare builds the view for a GET or a re-render.
	Prepare(ctx context.Context, state *State, d *device.Device) (View, error)
	// Submit validates the posted form. It returns the cleaned step data or a
	// *ValidationError.
	Submit(ctx context.Context, state *State, d *device.Device, form url.Values) (map[string]string, error)
}

// FieldName prefixes a form field with its step, e.g. "validation-token".
func FieldName(step Step, field string) string {
	return step.String() + "-" + field
}

// CurrentStepField is the hidden input naming the step a form belongs to.
const CurrentStepField = "current_step"
