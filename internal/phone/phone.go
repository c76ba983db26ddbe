// Package phone derives a visitor's country from the phone number they type.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Region is a country resolved from a phone number.
type Region struct {
	Code string // ISO 3166-1 alpha-2, e.g. "US"
	Name string // English display name, e.g. "United States"
}

// unknownRegion is what phonenumbers reports when it cannot place a number.
const unknownRegion = "ZZ"

var regionNamer = display.English.Regions()

// Lookup parses raw as an international number and resolves its country.
// Numbers that parse but do not belong to an assigned range (such as the
// +1 555 fiction range) fall back to the main country of their calling
// code. ok is false for empty or unparsable input.
func Lookup(raw string) (Region, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Region{}, false
	}

	num, err := phonenumbers.Parse(raw, unknownRegion)
	if err != nil {
		return Region{}, false
	}

	code := phonenumbers.GetRegionCodeForNumber(num)
	if code == "" || code == unknownRegion {
		code = phonenumbers.GetRegionCodeForCountryCode(int(num.GetCountryCode()))
	}
	if code == "" || code == unknownRegion {
		return Region{}, false
	}

	name := code
	if region, err := language.ParseRegion(code); err == nil {
		if n := regionNamer.Name(region); n != "" {
			name = n
		}
	}
	return Region{Code: code, Name: name}, true
}
