// Package phone validates and formats DRC mobile numbers and detects the
// operator from the numeric prefix.
package phone

import (
	"errors"
	"strings"
)

const CountryCode = "243"

// Mobile operators supported for mobile-money deposits.
const (
	OperatorVodacom = "VODACOM"
	OperatorAirtel  = "AIRTEL"
	OperatorOrange  = "ORANGE"
)

// Each two-digit prefix maps to exactly one operator.
var operatorPrefixes = map[string]string{
	"81": OperatorVodacom,
	"82": OperatorVodacom,
	"83": OperatorVodacom,
	"84": OperatorVodacom,
	"85": OperatorVodacom,
	"97": OperatorAirtel,
	"98": OperatorAirtel,
	"99": OperatorAirtel,
	"89": OperatorOrange,
	"90": OperatorOrange,
	"91": OperatorOrange,
}

var ErrInvalidFormat = errors.New("invalid phone number format")

func stripNonDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidLocalNumber reports whether raw is a valid DRC mobile number: either
// 12 digits starting with the country code, or a bare 9-digit number whose
// first two digits match a known operator prefix.
func IsValidLocalNumber(raw string) bool {
	cleaned := stripNonDigits(raw)

	if strings.HasPrefix(cleaned, CountryCode) {
		return len(cleaned) == 12
	}

	if len(cleaned) == 9 {
		_, ok := operatorPrefixes[cleaned[:2]]
		return ok
	}

	return false
}

// FormatToInternational normalizes raw to the 243XXXXXXXXX form. Numbers
// already carrying the country code are returned as-is.
func FormatToInternational(raw string) (string, error) {
	cleaned := stripNonDigits(raw)

	if strings.HasPrefix(cleaned, CountryCode) {
		return cleaned, nil
	}

	if len(cleaned) == 9 {
		return CountryCode + cleaned, nil
	}

	return "", ErrInvalidFormat
}

// DetectOperator returns the operator owning raw's prefix, or "" when the
// prefix is unknown.
func DetectOperator(raw string) string {
	cleaned := stripNonDigits(raw)

	local := cleaned
	if strings.HasPrefix(cleaned, CountryCode) {
		local = cleaned[len(CountryCode):]
	}
	if len(local) < 2 {
		return ""
	}

	return operatorPrefixes[local[:2]]
}

// OperatorMatches reports whether raw belongs to the claimed operator. A
// number with an unknown prefix matches no operator.
func OperatorMatches(raw, claimed string) bool {
	detected := DetectOperator(raw)
	return detected != "" && detected == claimed
}
