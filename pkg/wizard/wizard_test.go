package wizard_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlex/settlex/pkg/wizard"
)

type mapBag map[string]any

func (b mapBag) Get(key string) (any, bool) { v, ok := b[key]; return v, ok }
func (b mapBag) Set(key string, value any)  { b[key] = value }
func (b mapBag) Delete(key string)          { delete(b, key) }

func TestStep(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []wizard.Step{wizard.StepWelcome, wizard.StepGenerator, wizard.StepValidation}, wizard.Steps())
	assert.Equal(t, wizard.StepGenerator, wizard.StepWelcome.Next())
	assert.Equal(t, wizard.StepDone, wizard.StepValidation.Next())
	assert.Equal(t, wizard.StepDone, wizard.StepDone.Next())
	assert.Equal(t, "validation", wizard.StepValidation.String())
	assert.False(t, wizard.Step(42).Valid())

	for _, step := range append(wizard.Steps(), wizard.StepDone) {
		parsed, err := wizard.ParseStep(step.String())
		require.NoError(t, err)
		assert.Equal(t, step, parsed)
	}

	_, err := wizard.ParseStep("bogus")
	assert.ErrorIs(t, err, wizard.ErrUnknownStep)
	_, err = wizard.ParseStep("")
	assert.ErrorIs(t, err, wizard.ErrUnknownStep)
}

func TestStateDeviceID(t *testing.T) {
	t.Parallel()

	st := wizard.NewState()
	_, ok := st.DeviceID()
	assert.False(t, ok)

	id := uuid.New()
	st.SetDeviceID(id)
	got, ok := st.DeviceID()
	require.True(t, ok)
	assert.Equal(t, id, got)

	st.Extra["device_id"] = "garbage"
	_, ok = st.DeviceID()
	assert.False(t, ok)
}

func TestStorage(t *testing.T) {
	t.Parallel()

	storage := wizard.NewStorage("two_factor_setup")
	assert.Equal(t, "wizard_two_factor_setup", storage.Key())

	t.Run("fresh state when empty", func(t *testing.T) {
		st := storage.Load(mapBag{})
		assert.Equal(t, wizard.StepWelcome, st.Current)
		assert.Empty(t, st.Data)
	})

	t.Run("round trip", func(t *testing.T) {
		bag := mapBag{}
		st := wizard.NewState()
		st.Current = wizard.StepValidation
		st.SetStepData(wizard.StepWelcome, nil)
		st.SetStepData(wizard.StepGenerator, map[string]string{})
		id := uuid.New()
		st.SetDeviceID(id)
		storage.Save(bag, st)

		got := storage.Load(bag)
		assert.Equal(t, wizard.StepValidation, got.Current)
		assert.True(t, got.Validated(wizard.StepWelcome))
		assert.True(t, got.Validated(wizard.StepGenerator))
		assert.False(t, got.Validated(wizard.StepValidation))
		gotID, ok := got.DeviceID()
		require.True(t, ok)
		assert.Equal(t, id, gotID)
	})

	t.Run("survives json encoding", func(t *testing.T) {
		bag := mapBag{}
		st := wizard.NewState()
		st.Current = wizard.StepDone
		st.SetStepData(wizard.StepValidation, map[string]string{"device_id": "abc"})
		storage.Save(bag, st)

		raw, err := json.Marshal(map[string]any(bag))
		require.NoError(t, err)
		decoded := mapBag{}
		require.NoError(t, json.Unmarshal(raw, &decoded))

		got := storage.Load(decoded)
		assert.Equal(t, wizard.StepDone, got.Current)
		data, ok := got.StepData(wizard.StepValidation)
		require.True(t, ok)
		assert.Equal(t, "abc", data["device_id"])
	})

	t.Run("corrupt state falls back to fresh", func(t *testing.T) {
		bag := mapBag{storage.Key(): "not a map"}
		assert.Equal(t, wizard.StepWelcome, storage.Load(bag).Current)

		bag = mapBag{storage.Key(): map[string]any{"step": "nope"}}
		assert.Equal(t, wizard.StepWelcome, storage.Load(bag).Current)
	})

	t.Run("reset", func(t *testing.T) {
		bag := mapBag{}
		storage.Save(bag, wizard.NewState())
		storage.Reset(bag)
		_, ok := bag.Get(storage.Key())
		assert.False(t, ok)
	})
}

func TestMachineAdvance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("walks every step", func(t *testing.T) {
		m := wizard.NewMachine()
		st := wizard.NewState()

		for _, want := range []wizard.Step{wizard.StepGenerator, wizard.StepValidation, wizard.StepDone} {
			next, err := m.Advance(ctx, st, st.Current, nil)
			require.NoError(t, err)
			assert.Equal(t, want, next)
		}
		assert.True(t, m.Complete(st))
		assert.False(t, m.CanAdvance(st))

		_, err := m.Advance(ctx, st, wizard.StepDone, nil)
		assert.ErrorIs(t, err, wizard.ErrNoTransition)
	})

	t.Run("step mismatch", func(t *testing.T) {
		m := wizard.NewMachine()
		st := wizard.NewState()

		_, err := m.Advance(ctx, st, wizard.StepValidation, map[string]string{"device_id": "x"})
		assert.ErrorIs(t, err, wizard.ErrStepMismatch)
		assert.Equal(t, wizard.StepWelcome, st.Current)
		assert.False(t, st.Validated(wizard.StepValidation))
	})

	t.Run("skipped step is rejected", func(t *testing.T) {
		m := wizard.NewMachine()
		st := wizard.NewState()
		st.Current = wizard.StepValidation

		_, err := m.Advance(ctx, st, wizard.StepValidation, nil)
		assert.ErrorIs(t, err, wizard.ErrStepIncomplete)
		assert.Equal(t, wizard.StepValidation, st.Current)
		assert.False(t, st.Validated(wizard.StepValidation))
	})

	t.Run("failing action keeps state", func(t *testing.T) {
		boom := errors.New("boom")
		var ran []wizard.Step
		m := wizard.NewMachine(
			wizard.WithAction(wizard.StepWelcome, func(_ context.Context, _ *wizard.State, from, _ wizard.Step) error {
				ran = append(ran, from)
				return nil
			}),
			wizard.WithAction(wizard.StepGenerator, func(context.Context, *wizard.State, wizard.Step, wizard.Step) error {
				return boom
			}),
		)
		st := wizard.NewState()

		_, err := m.Advance(ctx, st, wizard.StepWelcome, nil)
		require.NoError(t, err)
		assert.Equal(t, []wizard.Step{wizard.StepWelcome}, ran)

		_, err = m.Advance(ctx, st, wizard.StepGenerator, nil)
		assert.ErrorIs(t, err, boom)
		var te *wizard.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, wizard.StepGenerator, te.From)
		assert.Equal(t, wizard.StepGenerator, st.Current)
		assert.False(t, st.Validated(wizard.StepGenerator))
	})

	t.Run("extra guard", func(t *testing.T) {
		denied := errors.New("denied")
		m := wizard.NewMachine(wizard.WithGuard(wizard.StepWelcome, func(context.Context, *wizard.State) error {
			return denied
		}))
		_, err := m.Advance(ctx, wizard.NewState(), wizard.StepWelcome, nil)
		assert.ErrorIs(t, err, denied)
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := wizard.NewValidationError("token", "Invalid token").Add("", "device missing")
	assert.Equal(t, []string{"Invalid token"}, err.Get("token"))
	assert.Equal(t, "validation failed: form: device missing; token: Invalid token", err.Error())
	assert.True(t, wizard.IsValidationError(error(err)))
	assert.False(t, wizard.IsValidationError(errors.New("x")))
	assert.Equal(t, "validation-token", wizard.FieldName(wizard.StepValidation, "token"))
}
