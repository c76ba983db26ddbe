package phone

import "github.com/sourzer/sourzer-web/internal/form"

// DeriveCountry returns a store derivation that keeps countryField and
// codeField in step with the phone number. A number that cannot be placed
// clears both.
func DeriveCountry[F ~string](countryField, codeField F) form.DeriveFunc[F] {
	return func(source string, set func(F, string)) {
		region, ok := Lookup(source)
		if !ok {
			set(countryField, "")
			set(codeField, "")
			return
		}
		set(countryField, region.Name)
		set(codeField, region.Code)
	}
}
