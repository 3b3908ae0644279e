// Package strings provides string normalization used at trust boundaries.
package strings

import (
	"slices"
	"strings"
	"unicode"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// TagSet lowercases, trims and dedupes values and returns them sorted, so two
// tag lists with the same members compare equal.
//
//	TagSet([]string{" Legal", "urgent", "LEGAL", ""})
//	// []string{"legal", "urgent"}
func TagSet(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		lowered = append(lowered, strings.ToLower(v))
	}
	result := DedupeAndTrim(lowered)
	if result == nil {
		return []string{}
	}
	slices.Sort(result)
	return result
}

// Digits strips every non-digit rune, e.g. "12.345.678/0001-95" -> "12345678000195".
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
