package wizard

// Bag is the key-value container a wizard state is stored in.
// *session.Session satisfies it.
type Bag interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
}

const (
	keyCurrent = "step"
	keyData    = "step_data"
	keyExtra   = "extra_data"
)

// Storage keeps a State inside a Bag as nested maps of strings, a shape that
// survives both in-memory and JSON-backed session stores.
type Storage struct {
	key string
}

// NewStorage returns storage for the wizard called name.
func NewStorage(name string) *Storage {
	return &Storage{key: "wizard_" + name}
}

// Key is the bag key the state lives under.
func (s *Storage) Key() string {
	return s.key
}

// Load returns the stored state, or a fresh one when nothing usable is stored.
func (s *Storage) Load(bag Bag) *State {
	state := NewState()

	raw, ok := bag.Get(s.key)
	if !ok {
		return state
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return state
	}

	if name, ok := m[keyCurrent].(string); ok {
		if step, err := ParseStep(name); err == nil {
			state.Current = step
		}
	}

	if data, ok := m[keyData].(map[string]any); ok {
		for name, fields := range data {
			step, err := ParseStep(name)
			if err != nil {
				continue
			}
			if values, ok := toStrings(fields); ok {
				state.Data[step] = values
			}
		}
	}

	if extra, ok := toStrings(m[keyExtra]); ok {
		state.Extra = extra
	}

	return state
}

// Save writes state into bag. Nested maps are rebuilt on every call so the
// bag never shares them with the caller's State.
func (s *Storage) Save(bag Bag, state *State) {
	data := make(map[string]any, len(state.Data))
	for step, fields := range state.Data {
		data[step.String()] = fromStrings(fields)
	}

	bag.Set(s.key, map[string]any{
		keyCurrent: state.Current.String(),
		keyData:    data,
		keyExtra:   fromStrings(state.Extra),
	})
}

// Reset removes any stored state.
func (s *Storage) Reset(bag Bag) {
	bag.Delete(s.key)
}

func toStrings(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			str, ok := val.(string)
			if !ok {
				return nil, false
			}
			out[k] = str
		}
		return out, true
	default:
		return nil, false
	}
}

func fromStrings(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
