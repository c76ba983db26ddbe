package phone

import (
	"testing"

	"github.com/sourzer/sourzer-web/internal/form"
	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   Region
		wantOK bool
	}{
		{"fiction range falls back to calling code", "+15551234567", Region{Code: "US", Name: "United States"}, true},
		{"nigeria", "+2348031234567", Region{Code: "NG", Name: "Nigeria"}, true},
		{"united kingdom", "+44 20 7946 0958", Region{Code: "GB", Name: "United Kingdom"}, true},
		{"surrounding whitespace", "  +2348031234567 ", Region{Code: "NG", Name: "Nigeria"}, true},
		{"empty", "", Region{}, false},
		{"no country prefix", "08031234567", Region{}, false},
		{"garbage", "hello", Region{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

type field string

func TestDeriveCountry(t *testing.T) {
	schema := form.Schema[field]{{Name: "phone_number"}, {Name: "country"}, {Name: "country_code"}}
	s := form.NewStore(schema, nil)
	s.Derive("phone_number", DeriveCountry[field]("country", "country_code"))

	s.Set("phone_number", "+15551234567")
	assert.Equal(t, "United States", s.Get("country"))
	assert.Equal(t, "US", s.Get("country_code"))
	assert.False(t, s.State("country").Touched, "derived fields are not user edits")

	// The latest source value always wins over a manual edit.
	s.Set("country", "Somewhere")
	s.Set("phone_number", "+2348031234567")
	assert.Equal(t, "Nigeria", s.Get("country"))

	s.Set("phone_number", "")
	assert.Equal(t, "", s.Get("country"))
	assert.Equal(t, "", s.Get("country_code"))
}
