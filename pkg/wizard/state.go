package wizard

import (
	"maps"

	"github.com/google/uuid"
)

const extraDeviceID = "device_id"

// State is the persisted progress of one wizard run.
type State struct {
	Current Step
	Data    map[Step]map[string]string
	Extra   map[string]string
}

// NewState returns a state positioned at the first step.
func NewState() *State {
	return &State{
		Current: StepWelcome,
		Data:    make(map[Step]map[string]string),
		Extra:   make(map[string]string),
	}
}

// StepData returns the cleaned data stored for step.
func (s *State) StepData(step Step) (map[string]string, bool) {
	data, ok := s.Data[step]
	return data, ok
}

// SetStepData stores a copy of data as the validated result of step.
// A nil map still marks the step as validated.
func (s *State) SetStepData(step Step, data map[string]string) {
	if s.Data == nil {
		s.Data = make(map[Step]map[string]string)
	}
	if data == nil {
		data = map[string]string{}
	}
	s.Data[step] = maps.Clone(data)
}

// Validated reports whether step has stored data.
func (s *State) Validated(step Step) bool {
	_, ok := s.Data[step]
	return ok
}

// DeviceID returns the device bound to this run, if any.
func (s *State) DeviceID() (uuid.UUID, bool) {
	raw, ok := s.Extra[extraDeviceID]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *State) SetDeviceID(id uuid.UUID) {
	if s.Extra == nil {
		s.Extra = make(map[string]string)
	}
	s.Extra[extraDeviceID] = id.String()
}
