// Package normalize provides canonical forms for user-entered identifiers
// so lookups and uniqueness checks behave predictably.
package normalize

import "strings"

// Email lowercases and trims an email address. Stored emails and email
// queries must both pass through here.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name collapses interior whitespace runs and trims a display name.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
