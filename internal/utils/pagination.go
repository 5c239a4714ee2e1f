// Package utils contains small shared helpers for the HTTP layer.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 integer, returning def when s is empty
// or malformed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
