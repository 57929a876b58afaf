package quiz

import "net/url"

// Subtype is the self-reported one-letter-per-trait refinement collected by
// the subtype form. Letters are taken as given.
type Subtype struct {
	O string `json:"O"`
	C string `json:"C"`
	E string `json:"E"`
	A string `json:"A"`
	N string `json:"N"`
}

func (s Subtype) Code() string {
	return s.O + s.C + s.E + s.A + s.N
}

// SubtypeLink builds the report URL carrying both the main code and subcode.
func SubtypeLink(main Code, sub string) string {
	if main == "" {
		main = NeutralCode
	}
	return "/report?code=" + url.QueryEscape(string(main)) + "&sub=" + url.QueryEscape(sub)
}
