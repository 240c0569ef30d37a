// Package email holds small helpers for addressing outbound mail.
package email

import (
	"net/mail"
	"strings"
	"unicode"
)

// Valid reports whether addr parses as a single bare address.
func Valid(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}

// GreetingName derives a first name from the local part of an address, e.g.
// "ana.lopez+gigs@example.com" becomes "Ana". Returns "" when nothing usable is left.
func GreetingName(addr string) string {
	localPart := addr
	if at := strings.IndexByte(addr, '@'); at > 0 {
		localPart = addr[:at]
	}
	if plus := strings.IndexByte(localPart, '+'); plus >= 0 {
		localPart = localPart[:plus]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for _, p := range parts {
		if strings.IndexFunc(p, unicode.IsLetter) >= 0 {
			return capitalize(strings.ToLower(p))
		}
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
