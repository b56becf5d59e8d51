package domain

import (
	"strings"
	"unicode"
)

// NormalizePhone converts a Nigerian phone number into the 11-digit local
// form (0XXXXXXXXXX). Spaces, dashes, brackets and a leading + are ignored;
// the 234 country prefix is replaced by 0.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == 13 && strings.HasPrefix(digits, "234"):
		digits = "0" + digits[3:]
	case len(digits) == 10 && digits[0] != '0':
		digits = "0" + digits
	}

	if len(digits) != 11 || digits[0] != '0' {
		return "", NewValidationError("phone_number", "must be a valid 11-digit phone number")
	}
	return digits, nil
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidNIN reports whether s is an 11-digit national identification number.
func ValidNIN(s string) bool { return len(s) == 11 && IsDigits(s) }

// ValidBVN reports whether s is an 11-digit bank verification number.
func ValidBVN(s string) bool { return len(s) == 11 && IsDigits(s) }

// ValidAccountNumber reports whether s is a 10-digit NUBAN account number.
func ValidAccountNumber(s string) bool { return len(s) == 10 && IsDigits(s) }

// ValidBankCode reports whether s looks like a CBN bank code.
func ValidBankCode(s string) bool { return len(s) >= 3 && len(s) <= 6 && IsDigits(s) }

// Contains reports whether v is in list.
func Contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// NamesMatch compares two business or person names ignoring case, punctuation
// and repeated whitespace.
func NamesMatch(a, b string) bool {
	return canonicalName(a) == canonicalName(b)
}

func canonicalName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
