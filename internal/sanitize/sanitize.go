// ABOUTME: Plain-text sanitization for user-entered names and labels.
// ABOUTME: Strips markup with bluemonday while leaving comparison text like "(<120)" intact.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// IsPlainText reports whether s contains no markup. Tags need both '<' and '>'.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}

// PlainText trims s and removes any HTML, returning unescaped text.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || IsPlainText(s) {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(s)))
}
