package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToE164(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "trunk prefix", in: "0812345678", want: "+66812345678"},
		{name: "trunk prefix with separators", in: "081-234-5678", want: "+66812345678"},
		{name: "bare country code", in: "66812345678", want: "+66812345678"},
		{name: "already international", in: "+66 81 234 5678", want: "+66812345678"},
		{name: "foreign international", in: "+1 (555) 010-9999", want: "+15550109999"},
		{name: "plain digits", in: "5550109999", want: "+5550109999"},
		{name: "empty", in: "", want: ""},
		{name: "no digits", in: "call me", want: ""},
		{name: "plus only", in: "+", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToE164(tc.in))
		})
	}
}

func TestNormalizerCustomCountryCode(t *testing.T) {
	n := New("+44")
	assert.Equal(t, "44", n.CountryCode)
	assert.Equal(t, "+447700900123", n.Normalize("07700 900123"))
	assert.Equal(t, "+447700900123", n.Normalize("447700900123"))
}

func TestNewFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultCountryCode, New("").CountryCode)
	assert.Equal(t, "+66812345678", Normalizer{}.Normalize("0812345678"))
}
