package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// Name lowercases, collapses whitespace, and trims the input, for
// case-insensitive matching of service and patient names.
func Name(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	return multiSpace.ReplaceAllString(s, " ")
}

// Label trims and collapses whitespace but keeps the original casing.
func Label(s string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}
