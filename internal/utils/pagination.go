// Package utils provides small helpers shared across layers, mostly around
// parsing and windowing list query parameters.
package utils

import "strconv"

// AtoiDefault parses s as an int and returns def when s is empty or not a
// valid integer. Query-string values are passed through untrimmed, so
// " 42" counts as invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Window applies an offset/limit view to items. A non-positive offset or
// limit leaves that side of the window open; an offset past the end yields
// nil. The result aliases the input slice.
func Window[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
