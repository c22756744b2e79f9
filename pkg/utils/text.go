// Package utils provides shared utilities for text handling and logging.
package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns s truncated to at most maxLen bytes on a rune boundary, with "..." appended
// if truncated. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:RuneBoundary(s, maxLen)] + "..."
}

// RuneBoundary returns the largest index <= n that does not split a UTF-8 sequence in s.
func RuneBoundary(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
