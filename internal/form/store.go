package form

import (
	"net/url"
	"strings"
)

// FieldState is the live state of one input.
type FieldState struct {
	Value   string
	Touched bool // changed by the user
	Dirty   bool // differs from what the form was opened with
	Error   string
}

// DeriveFunc recomputes derived fields from the latest value of a source
// field. It writes through set, which performs a programmatic update.
type DeriveFunc[F ~string] func(source string, set func(name F, value string))

// Store holds the per-field state of one form instance. It is not safe for
// concurrent use; the owning Controller serializes access.
type Store[F ~string] struct {
	schema      Schema[F]
	initial     Values[F]
	fields      map[F]*FieldState
	derivations map[F][]DeriveFunc[F]
}

// NewStore creates a store seeded with initial values. Fields without an
// initial value start empty.
func NewStore[F ~string](schema Schema[F], initial Values[F]) *Store[F] {
	s := &Store[F]{
		schema:      schema,
		initial:     make(Values[F], len(initial)),
		fields:      make(map[F]*FieldState, len(schema)),
		derivations: make(map[F][]DeriveFunc[F]),
	}
	for k, v := range initial {
		s.initial[k] = v
	}
	s.Reset()
	return s
}

// Derive registers fn to run synchronously every time source changes.
func (s *Store[F]) Derive(source F, fn DeriveFunc[F]) {
	s.derivations[source] = append(s.derivations[source], fn)
}

// Set is a user edit: the field becomes touched and dirty, and every
// derivation fed by it runs immediately.
func (s *Store[F]) Set(name F, value string) {
	s.bind(name, value)
	s.derive(name, value)
}

func (s *Store[F]) bind(name F, value string) {
	st := s.field(name)
	st.Value = value
	st.Touched = true
	st.Dirty = value != s.initial[name]
}

// SetValue is a programmatic update. It does not mark the field touched and
// does not trigger derivations, so derived fields cannot cascade.
func (s *Store[F]) SetValue(name F, value string) {
	st := s.field(name)
	st.Value = value
	st.Dirty = value != s.initial[name]
}

func (s *Store[F]) derive(source F, value string) {
	for _, fn := range s.derivations[source] {
		fn(value, s.SetValue)
	}
}

// Load binds submitted form values in schema order. Non-secret values are
// trimmed. Fields absent from src keep their current value. Derivations run
// after every field is bound, and only for sources whose value changed, so a
// changed source always wins over a submitted derived value while an
// unchanged one leaves a manual edit alone.
func (s *Store[F]) Load(src url.Values) {
	var changed []F
	for _, f := range s.schema {
		raw, ok := src[string(f.Name)]
		if !ok {
			continue
		}
		value := ""
		if len(raw) > 0 {
			value = raw[0]
		}
		if !f.Secret {
			value = strings.TrimSpace(value)
		}
		if len(s.derivations[f.Name]) > 0 && value != s.Get(f.Name) {
			changed = append(changed, f.Name)
		}
		s.bind(f.Name, value)
	}
	for _, name := range changed {
		s.derive(name, s.Get(name))
	}
}

// Get returns the current value of name.
func (s *Store[F]) Get(name F) string {
	if st, ok := s.fields[name]; ok {
		return st.Value
	}
	return ""
}

// State returns a copy of the state of name.
func (s *Store[F]) State(name F) FieldState {
	if st, ok := s.fields[name]; ok {
		return *st
	}
	return FieldState{}
}

// Values returns a snapshot of all values.
func (s *Store[F]) Values() Values[F] {
	out := make(Values[F], len(s.fields))
	for name, st := range s.fields {
		out[name] = st.Value
	}
	return out
}

// Errors returns a snapshot of all field errors.
func (s *Store[F]) Errors() Errors[F] {
	out := make(Errors[F])
	for name, st := range s.fields {
		if st.Error != "" {
			out[name] = st.Error
		}
	}
	return out
}

// SetErrors replaces every field error with errs.
func (s *Store[F]) SetErrors(errs Errors[F]) {
	for name, st := range s.fields {
		st.Error = errs[name]
	}
	for name, msg := range errs {
		s.field(name).Error = msg
	}
}

// Reset restores the initial values and clears all flags and errors.
func (s *Store[F]) Reset() {
	s.fields = make(map[F]*FieldState, len(s.schema))
	for _, f := range s.schema {
		s.fields[f.Name] = &FieldState{Value: s.initial[f.Name]}
	}
	for name, v := range s.initial {
		if _, ok := s.fields[name]; !ok {
			s.fields[name] = &FieldState{Value: v}
		}
	}
}

func (s *Store[F]) field(name F) *FieldState {
	st, ok := s.fields[name]
	if !ok {
		st = &FieldState{}
		s.fields[name] = st
	}
	return st
}
