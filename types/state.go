package types

import (
	"encoding/json"

	"github.com/juju/errors"
	"github.com/spf13/cast"

	"github.com/ConnorStoneAstro/flow/utils"
)

// State is the mutable object flowing through a chart.
type State map[string]any

func (s *State) Get(key string) (any, bool) {
	v, exists := (*s)[key]
	return v, exists
}

func (s *State) GetString(key string) (string, bool) {
	v, exists := s.Get(key)
	return cast.ToString(v), exists
}

func (s *State) GetInt(key string) (int, bool) {
	v, exists := s.Get(key)
	return cast.ToInt(v), exists
}

func (s *State) GetInt64(key string) (int64, bool) {
	v, exists := s.Get(key)
	return cast.ToInt64(v), exists
}

func (s *State) GetBool(key string) (bool, bool) {
	v, exists := s.Get(key)
	return cast.ToBool(v), exists
}

func (s *State) GetFloat64(key string) (float64, bool) {
	v, exists := s.Get(key)
	return cast.ToFloat64(v), exists
}

func (s *State) GetStruct(key string, out any) error {
	v, exists := s.Get(key)
	if !exists {
		return errors.NotFound
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Trace(err)
	}
	return json.Unmarshal(b, out)
}

// GetStates reads a collection of states stored under key, as left by a
// pipe or prepared by the caller.
func (s *State) GetStates(key string) ([]State, bool) {
	v, exists := s.Get(key)
	if !exists {
		return nil, false
	}
	states, err := ToStates(v)
	if err != nil {
		return nil, false
	}
	return states, true
}

func (s *State) Set(key string, value any) {
	(*s)[key] = value
}

// Clone copies the top level of the state. Values are shared, keys are
// not, which is enough for handing the same input to several chart runs
// that each build their own result keys.
func (s State) Clone() State {
	return utils.CloneMap(s)
}

// ToStates coerces a value into a slice of states. Accepts []State,
// []map[string]any and []any with map elements.
func ToStates(v any) ([]State, error) {
	switch batch := v.(type) {
	case []State:
		return batch, nil
	case []map[string]any:
		states := make([]State, len(batch))
		for i, m := range batch {
			states[i] = State(m)
		}
		return states, nil
	case []any:
		states := make([]State, len(batch))
		for i, e := range batch {
			switch s := e.(type) {
			case State:
				states[i] = s
			case map[string]any:
				states[i] = State(s)
			default:
				m, err := cast.ToStringMapE(e)
				if err != nil {
					return nil, errors.NotValidf("state collection element %d", i)
				}
				states[i] = State(m)
			}
		}
		return states, nil
	}
	return nil, errors.NotValidf("state collection %T", v)
}
