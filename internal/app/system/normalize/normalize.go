// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls to ensure consistent behavior.
package normalize

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email normalizes an email address by trimming whitespace and converting to lowercase.
// This is the canonical way to normalize emails before storage or comparison.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name normalizes a display name or title by trimming whitespace.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role normalizes a role value by trimming whitespace and converting to lowercase.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LanguageCode normalizes a language code ("EN", " pt-BR ") to lowercase.
func LanguageCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

var slugJunk = regexp.MustCompile(`[^a-z0-9._]+`)

// Slug turns free text into a URL segment: diacritics are folded, the result
// is lowercased, and every run of other characters becomes a single dash.
// "Getting Started!" -> "getting-started".
func Slug(s string) string {
	s = text.Fold(strings.TrimSpace(s))
	s = slugJunk.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,99}$`)

// IsSlug reports whether s is already a valid slug: 1-100 characters of
// lowercase letters, digits, dot, underscore or dash, not starting with a
// separator.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}
