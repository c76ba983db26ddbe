package form

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_SetMarksTouchedAndDirty(t *testing.T) {
	s := NewStore(testSchema(), Values[testField]{fieldName: "Ada"})

	assert.Equal(t, FieldState{Value: "Ada"}, s.State(fieldName))

	s.Set(fieldName, "Grace")
	assert.Equal(t, FieldState{Value: "Grace", Touched: true, Dirty: true}, s.State(fieldName))

	s.Set(fieldName, "Ada")
	st := s.State(fieldName)
	assert.True(t, st.Touched)
	assert.False(t, st.Dirty, "back to the initial value is not dirty")
}

func TestStore_SetValueIsNotTouched(t *testing.T) {
	s := NewStore(testSchema(), nil)
	s.SetValue(fieldEmail, "a@b.co")

	st := s.State(fieldEmail)
	assert.Equal(t, "a@b.co", st.Value)
	assert.False(t, st.Touched)
	assert.True(t, st.Dirty)
}

func TestStore_DerivationRunsOnEveryChange(t *testing.T) {
	s := NewStore(testSchema(), nil)
	calls := 0
	s.Derive(fieldPhone, func(source string, set func(testField, string)) {
		calls++
		set(fieldName, strings.ToUpper(source))
	})

	s.Set(fieldPhone, "abc")
	assert.Equal(t, "ABC", s.Get(fieldName))

	// A manual edit of the derived field is overwritten by the next change
	// of its source.
	s.Set(fieldName, "manual")
	s.Set(fieldPhone, "xyz")
	assert.Equal(t, "XYZ", s.Get(fieldName))
	assert.Equal(t, 2, calls)

	// Programmatic updates do not cascade.
	s.SetValue(fieldPhone, "no")
	assert.Equal(t, "XYZ", s.Get(fieldName))
	assert.Equal(t, 2, calls)
}

func TestStore_Load(t *testing.T) {
	schema := append(testSchema(), Field[testField]{Name: "password", Secret: true})
	s := NewStore(schema, Values[testField]{fieldPhone: "0800"})

	s.Load(url.Values{
		"name":     {"  Ada "},
		"email":    {"a@b.co"},
		"password": {" secret "},
		"ignored":  {"x"},
	})

	assert.Equal(t, Values[testField]{
		fieldName:  "Ada",
		fieldEmail: "a@b.co",
		fieldPhone: "0800",
		"password": " secret ",
	}, s.Values())
	assert.False(t, s.State(fieldPhone).Touched)
}

func TestStore_ResetAndErrors(t *testing.T) {
	s := NewStore(testSchema(), Values[testField]{fieldName: "Ada"})
	s.Set(fieldName, "")
	s.SetErrors(Errors[testField]{fieldName: "required"})
	assert.Equal(t, Errors[testField]{fieldName: "required"}, s.Errors())

	s.SetErrors(Errors[testField]{})
	assert.Empty(t, s.Errors())

	s.SetErrors(Errors[testField]{fieldEmail: "bad"})
	s.Reset()
	assert.Empty(t, s.Errors())
	assert.Equal(t, FieldState{Value: "Ada"}, s.State(fieldName))
	assert.Equal(t, "", s.Get(fieldEmail))
}

func TestStore_LoadDerivesFromChangedSourcesOnly(t *testing.T) {
	s := NewStore(testSchema(), nil)
	calls := 0
	s.Derive(fieldPhone, func(source string, set func(testField, string)) {
		calls++
		set(fieldName, strings.ToUpper(source))
	})

	// The derived field is bound before its source in schema order, yet the
	// changed source still wins.
	s.Load(url.Values{"name": {"typed"}, "phone": {"abc"}})
	assert.Equal(t, "ABC", s.Get(fieldName))
	assert.Equal(t, 1, calls)

	// Same source value: a manual edit of the derived field survives.
	s.Load(url.Values{"name": {"manual"}, "phone": {"abc"}})
	assert.Equal(t, "manual", s.Get(fieldName))
	assert.Equal(t, 1, calls)
}
