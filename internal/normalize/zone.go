package normalize

import (
	"regexp"
	"strings"

	"github.com/gyeh/odontoplan/internal/model"
)

var zoneSeparators = regexp.MustCompile(`[\s\-]+`)

// ZoneKey canonicalizes user-typed zone input: trims, lowercases and turns
// spaces and hyphens into underscores, so "Upper Arch" becomes "upper_arch".
// Tooth numbers pass through unchanged.
func ZoneKey(raw string) model.ZoneKey {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = zoneSeparators.ReplaceAllString(s, "_")
	return model.ZoneKey(s)
}

// Color trims and lowercases a color token.
func Color(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
