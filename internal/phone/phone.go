// Package phone converts user supplied phone numbers into E.164 strings.
package phone

import (
	"regexp"
	"strings"
)

// DefaultCountryCode is the calling code applied to numbers with a trunk prefix.
const DefaultCountryCode = "66"

const trunkPrefix = "0"

var nonDigits = regexp.MustCompile(`\D`)

// Normalizer rewrites local numbers using a fixed country calling code.
type Normalizer struct {
	CountryCode string
}

// New returns a Normalizer for the given calling code, falling back to DefaultCountryCode.
func New(countryCode string) Normalizer {
	countryCode = nonDigits.ReplaceAllString(countryCode, "")
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return Normalizer{CountryCode: countryCode}
}

// Normalize returns raw in E.164 form. An empty string means the input held no digits.
func (n Normalizer) Normalize(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	cc := n.CountryCode
	if cc == "" {
		cc = DefaultCountryCode
	}
	if strings.HasPrefix(digits, trunkPrefix) {
		return "+" + cc + digits[len(trunkPrefix):]
	}
	// Anything else already carries a calling code.
	return "+" + digits
}

// ToE164 normalizes raw with DefaultCountryCode.
func ToE164(raw string) string {
	return Normalizer{CountryCode: DefaultCountryCode}.Normalize(raw)
}
