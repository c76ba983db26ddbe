package form

// Values maps field names to their current value.
type Values[F ~string] map[F]string

// Get returns the value for name, or "" if unset.
func (v Values[F]) Get(name F) string {
	return v[name]
}

// Errors maps failing field names to their message.
type Errors[F ~string] map[F]string

// Strings flattens the keys for templates and logs.
func (e Errors[F]) Strings() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[string(k)] = v
	}
	return out
}

// Field declares one input of a form.
type Field[F ~string] struct {
	Name  F
	Label string
	Rule  Rule

	// Secret fields are neither trimmed on bind nor re-rendered after a
	// failed submission.
	Secret bool
}

// Schema is the static, ordered field set of a form.
type Schema[F ~string] []Field[F]

// Validate checks every field independently and returns only the failing
// ones. Missing values are validated as "".
func (s Schema[F]) Validate(values Values[F]) Errors[F] {
	errs := make(Errors[F])
	for _, f := range s {
		if f.Rule == nil {
			continue
		}
		if msg := f.Rule(values[f.Name]); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

// Names returns the field names in declaration order.
func (s Schema[F]) Names() []F {
	names := make([]F, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the declaration of name.
func (s Schema[F]) Lookup(name F) (Field[F], bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field[F]{}, false
}
