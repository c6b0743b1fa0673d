// Package inputval holds small validators for user-supplied input.
package inputval

import (
	"net/mail"
	"strings"
)

// IsValidEmail reports whether s is a bare addr-spec: no display name, no
// whitespace, and no leading, trailing or doubled dots in either part.
func IsValidEmail(s string) bool {
	if strings.TrimSpace(s) == "" || len(s) > 254 {
		return false
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return dotsOK(s[:at]) && dotsOK(s[at+1:])
}

func dotsOK(part string) bool {
	return !strings.HasPrefix(part, ".") &&
		!strings.HasSuffix(part, ".") &&
		!strings.Contains(part, "..")
}

// IsValidID reports whether s looks like an upstream record id: 1 to 128
// characters of letters, digits, '-' or '_'.
func IsValidID(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
