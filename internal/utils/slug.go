package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the input, collapses every run of non-alphanumeric
// characters into a single dash and trims leading/trailing dashes.
// Returns "" for input with no usable characters.
func Slugify(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
