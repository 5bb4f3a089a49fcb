package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips all markup from user supplied text and trims surrounding space.
func Sanitize(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}
