// Package inputval validates untrusted form input before it reaches the
// stores. Validators are strict: anything ambiguous is rejected.
package inputval

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinPasswordLength is the minimum accepted password length for
// password-based accounts.
const MinPasswordLength = 8

var allowedAuthMethods = []string{"password", "google"}

// IsValidAuthMethod reports whether method names a supported sign-in
// mechanism. Case-insensitive, surrounding whitespace ignored.
func IsValidAuthMethod(method string) bool {
	m := strings.TrimSpace(strings.ToLower(method))
	for _, allowed := range allowedAuthMethods {
		if m == allowed {
			return true
		}
	}
	return false
}

// AllowedAuthMethodsList returns the supported sign-in mechanisms in
// canonical (lowercase) form.
func AllowedAuthMethodsList() []string {
	out := make([]string, len(allowedAuthMethods))
	copy(out, allowedAuthMethods)
	return out
}

// IsValidEmail reports whether s looks like a deliverable address.
// Stricter than RFC 5322: display names, leading/trailing dots, and
// consecutive dots are rejected. Single-label domains are allowed for
// dev and test environments.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if !validDotAtoms(local) || !validDotAtoms(domain) {
		return false
	}
	return true
}

// validDotAtoms checks a dot-separated sequence of non-empty atoms.
func validDotAtoms(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

// IsValidPassword reports whether pw meets the minimum length after
// trimming. Composition rules are deliberately not enforced.
func IsValidPassword(pw string) bool {
	return len(strings.TrimSpace(pw)) >= MinPasswordLength
}

// IsValidObjectID reports whether s parses as a Mongo ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}
