// Package strings holds the small string checks shared by modules and documents
package strings

import std "strings"

// Blank reports whether s has no non whitespace content
func Blank(s string) bool { return std.TrimSpace(s) == "" }

// IfEmpty returns def when in is empty
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustString returns s or panics naming what was missing
func MustString(s string, name string) string {
	if Blank(s) {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes a mount path like /yaml to one leading slash and no trailing
// slash. It panics on the root path
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}
