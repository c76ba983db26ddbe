package domain

// Defaults applied to waitlist payloads when the visitor leaves a field empty.
const (
	DefaultWaitlistCountryCode = "NG"
	DefaultWaitlistRegChannel  = "linkedin"
)

// WaitlistSubmission is the validated waitlist form.
type WaitlistSubmission struct {
	Name        string
	Email       string
	PhoneNumber string
	Country     string
	CountryCode string
	CompanyName string
	RegChannel  string
}

// WaitlistPayload is the body sent to the external waitlist endpoint.
type WaitlistPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	CompanyName string `json:"company_name"`
	RegChannel  string `json:"reg_channel"`
}

// Payload fills the defaults the external endpoint expects.
func (s WaitlistSubmission) Payload(defaultCountryCode, defaultRegChannel string) WaitlistPayload {
	if defaultCountryCode == "" {
		defaultCountryCode = DefaultWaitlistCountryCode
	}
	if defaultRegChannel == "" {
		defaultRegChannel = DefaultWaitlistRegChannel
	}

	p := WaitlistPayload{
		Name:        s.Name,
		Email:       s.Email,
		PhoneNumber: s.PhoneNumber,
		Country:     s.Country,
		CountryCode: s.CountryCode,
		CompanyName: s.CompanyName,
		RegChannel:  s.RegChannel,
	}
	if p.CountryCode == "" {
		p.CountryCode = defaultCountryCode
	}
	if p.RegChannel == "" {
		p.RegChannel = defaultRegChannel
	}
	return p
}
