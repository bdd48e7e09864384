package validations

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phoneRe = regexp.MustCompile(`^[0-9+]{6,20}$`)
	// External ids that must remain literal strings (channel, chat, message
	// ids) are restricted to a conservative charset.
	externalIDRe = regexp.MustCompile(`^[A-Za-z0-9@._:+-]+$`)
)

// IsValidEmail reports whether the value looks like a deliverable address.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// SanitizePhone strips formatting characters and validates the result.
// Accepted raw input may contain digits, '+', '(', ')', '-' and spaces; the
// sanitized form keeps only digits and '+'. Returns "" when the input is
// empty, overlong, or contains anything else.
func SanitizePhone(phone string) string {
	if len(phone) > 64 {
		return ""
	}
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
		case r == '+' || r == '(' || r == ')' || r == '-' || r == ' ':
		default:
			return ""
		}
	}
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' {
			return r
		}
		return -1
	}, phone)
	if !phoneRe.MatchString(digits) {
		return ""
	}
	return digits
}

// IsSafeExternalID validates identifiers that are persisted or echoed back
// verbatim: non-empty, bounded length, conservative charset.
func IsSafeExternalID(id string) bool {
	if id == "" || len(id) > 255 {
		return false
	}
	return externalIDRe.MatchString(id)
}
