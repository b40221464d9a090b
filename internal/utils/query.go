// Package utils provides small helpers for parsing request input. They carry
// no domain logic.
package utils

import "strconv"

// AtoiDefault parses s, returning def when s is empty or not an integer.
//
//	utils.AtoiDefault("42", 0) // 42
//	utils.AtoiDefault("", 10)  // 10
//	utils.AtoiDefault("x", 5)  // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// LimitParam parses a ?limit= style value: missing or unparsable input yields
// def, and the result is clamped to [1, max].
func LimitParam(s string, def, max int) int {
	return Clamp(AtoiDefault(s, def), 1, max)
}
