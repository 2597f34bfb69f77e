package validation

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy *bluemonday.Policy

func init() {
	strictHTMLPolicy = bluemonday.StrictPolicy() // Removes all HTML tags
}

// SanitizeString strips any HTML from a user-provided string and trims
// surrounding whitespace. Applied to free-text inputs before they are stored
// or echoed back in responses.
func SanitizeString(input string) string {
	return strings.TrimSpace(strictHTMLPolicy.Sanitize(input))
}
