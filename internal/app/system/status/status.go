// Package status defines the account/record status values used across
// collections.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a known status value.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}
